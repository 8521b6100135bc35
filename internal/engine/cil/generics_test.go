package cil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenericDeclaration(t *testing.T) {
	t.Run("no generics", func(t *testing.T) {
		assert.Empty(t, ParseGenericDeclaration(".class public Foo extends [mscorlib]System.Object"))
	})

	t.Run("base type arguments ignored", func(t *testing.T) {
		assert.Empty(t, ParseGenericDeclaration(".class public Foo extends class Bar`1<int32>"))
	})

	t.Run("unbalanced", func(t *testing.T) {
		assert.Empty(t, ParseGenericDeclaration(".class public Foo`1<T"))
	})

	t.Run("simple list", func(t *testing.T) {
		got := ParseGenericDeclaration(".class public Pair`2<A,B>")
		require.Len(t, got, 2)
		assert.Equal(t, "A", got[0].Name)
		assert.Equal(t, "B", got[1].Name)
		assert.Equal(t, "<A, B>", got.String())
	})

	t.Run("special constraints and variance", func(t *testing.T) {
		got := ParseGenericDeclaration(".class interface public abstract IFactory`2<-TIn, class .ctor TOut>")
		require.Len(t, got, 2)
		assert.Equal(t, Contravariant, got[0].Variance)
		assert.Equal(t, "TIn", got[0].Name)
		assert.True(t, got[1].ReferenceType)
		assert.True(t, got[1].DefaultConstructor)
		assert.False(t, got[1].ValueType)
		assert.Equal(t, "TOut", got[1].Name)
	})

	t.Run("multiple constraints", func(t *testing.T) {
		got := ParseGenericDeclaration(".class public Box`1<valuetype (class [mscorlib]System.IDisposable, class [mscorlib]System.IComparable) T>")
		require.Len(t, got, 1)
		assert.True(t, got[0].ValueType)
		assert.Equal(t, []string{"class [mscorlib]System.IDisposable", "class [mscorlib]System.IComparable"}, got[0].Constraints)
	})
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{".class", "public", "Foo"}, Split("  .class  public Foo ", ' '))
	assert.Empty(t, Split("   ", ' '))
	assert.Equal(t, []string{"a", "b"}, Split("a,,b", ','))
	assert.Equal(t, []string{".class", "public", "Foo"}, Split(".class\tpublic \t Foo", ' '))
	assert.Equal(t, []string{"a\tb"}, Split("a\tb", ','))
}

func TestIsReservedModifier(t *testing.T) {
	for _, tok := range []string{".class", "public", "nested", "sealed", "interface", "beforefieldinit", "famorassem"} {
		assert.True(t, isReservedModifier(tok), tok)
	}
	for _, tok := range []string{"Foo", "Public", "class"} {
		assert.False(t, isReservedModifier(tok), tok)
	}
}

func TestAssemblyRegistry(t *testing.T) {
	reg := NewAssemblyRegistry()
	reg.RegisterType("A", "a.il")
	reg.RegisterType("A", "a.il")
	reg.RegisterType("B", "b.il")
	reg.RegisterType("", "c.il")
	assert.Equal(t, 2, reg.Len())

	assert.Equal(t, 1, reg.Forget("a.il"))
	_, ok := reg.SourceOf("A")
	assert.False(t, ok)

	var nilReg *AssemblyRegistry
	nilReg.RegisterType("X", "x.il")
	assert.Equal(t, 0, nilReg.Len())
	assert.Nil(t, nilReg.SourcesOf("X"))
}

func TestAssemblyRegistry_SharedNameSurvivesForget(t *testing.T) {
	reg := NewAssemblyRegistry()
	reg.RegisterType("Foo", "a.il")
	reg.RegisterType("Foo", "b.il")

	src, ok := reg.SourceOf("Foo")
	require.True(t, ok)
	assert.Equal(t, "b.il", src)
	assert.Equal(t, []string{"a.il", "b.il"}, reg.SourcesOf("Foo"))

	assert.Equal(t, 1, reg.Forget("b.il"))
	src, ok = reg.SourceOf("Foo")
	require.True(t, ok, "a.il still declares Foo")
	assert.Equal(t, "a.il", src)

	// Re-registering moves a listing to the end without duplicating it.
	reg.RegisterType("Foo", "b.il")
	reg.RegisterType("Foo", "a.il")
	assert.Equal(t, []string{"b.il", "a.il"}, reg.SourcesOf("Foo"))

	assert.Equal(t, 1, reg.Forget("a.il"))
	assert.Equal(t, 1, reg.Forget("b.il"))
	_, ok = reg.SourceOf("Foo")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestTypeRecord_CloseOnce(t *testing.T) {
	rec := newTypeRecord("Foo", "", 3, nil, false)
	assert.Equal(t, -1, rec.EndLine())
	assert.True(t, rec.close(7))
	assert.False(t, rec.close(9))
	assert.Equal(t, 7, rec.EndLine())
}
