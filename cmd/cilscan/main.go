// # cmd/cilscan/main.go
package main

import (
	"fmt"
	"os"
)

const VERSION = "1.0.0"

func main() {
	opts := newRootOptions()
	if err := run(newRootCommand(opts), opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
