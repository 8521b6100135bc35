// # cmd/cilscan/lookup.go
package main

import (
	"cilscan/internal/core/errors"
	"cilscan/internal/core/ports"
	"cilscan/internal/engine/cil"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newLookupCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	var listing string

	cmd := &cobra.Command{
		Use:   "lookup <uniqueName> [paths...]",
		Short: "Find where a type is declared",
		Long: `Scan the given paths (or the configured scan_paths) and print every
declaration of uniqueName. Nested types use the Outer$Inner form. When the
symbol store is enabled, previously stored declarations are consulted if
the current scan has none.

With --file, print the types declared by one listing instead; every
argument is then a scan path.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if listing == "" && len(args) == 0 {
				return fmt.Errorf("requires a type name or --file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if listing == "" {
				paths = args[1:]
			}

			a, err := root.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.RunScan(cmd.Context(), ports.ScanRequest{Paths: paths}); err != nil {
				return err
			}

			var infos []cil.TypeInfo
			if listing != "" {
				if infos, err = a.FileTypes(listing); err != nil {
					return err
				}
				if len(infos) == 0 {
					return errors.AddContext(errors.New(errors.CodeNotFound, "no types declared by listing"), errors.CtxPath, listing)
				}
			} else {
				name := args[0]
				infos = a.Lookup(name)
				if len(infos) == 0 {
					return errors.AddContext(errors.New(errors.CodeNotFound, "type not found"), errors.CtxType, name)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			renderTypes(out, infos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print matches as JSON")
	cmd.Flags().StringVar(&listing, "file", "", "Print the types declared by this listing")
	return cmd
}
