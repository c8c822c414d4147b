package parsing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

func TestDefaultRegistryCoversEveryGrammar(t *testing.T) {
	reg := Default()
	for _, ext := range []string{".go", ".ts", ".tsx", ".js", ".py", ".rs", ".php", ".cs", ".cpp", ".c"} {
		_, ok := reg.For(ext)
		require.True(t, ok, "missing adapter for %s", ext)
	}
}

func TestGoAdapterExtractsFunctionsAndCalls(t *testing.T) {
	src := []byte(`package main

import "fmt"

func greet(name string) string {
	return fmt.Sprintf("hi %s", name)
}

type Greeter struct{}

func (g *Greeter) Greet(name string) string {
	return greet(name)
}
`)
	a := NewGoAdapter()
	counter := ids.NewCounter(0)
	res, err := a.Parse(src, ids.FileID(1), counter)
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	require.Contains(t, names, "greet")
	require.Contains(t, names, "Greeter")
	require.Contains(t, names, "Greet")

	require.Len(t, res.Imports, 1)
	require.Equal(t, "fmt", res.Imports[0].Path)

	var calledGreet bool
	for _, e := range res.Edges {
		if e.ToName == "greet" && e.Kind == symbol.RelationCalls {
			calledGreet = true
		}
	}
	require.True(t, calledGreet)
}

func TestGoAdapterToleratesInvalidSource(t *testing.T) {
	a := NewGoAdapter()
	counter := ids.NewCounter(0)
	res, err := a.Parse([]byte("func this is not valid go {{{"), ids.FileID(1), counter)
	require.NoError(t, err)
	_ = res // tree-sitter error-recovers; whatever it extracts is acceptable, never a panic
}

func TestPythonAdapterDistinguishesMethodsFromFunctions(t *testing.T) {
	src := []byte(`
class Greeter:
    def greet(self, name):
        return f"hi {name}"

def standalone():
    pass
`)
	a := NewPythonAdapter()
	counter := ids.NewCounter(0)
	res, err := a.Parse(src, ids.FileID(1), counter)
	require.NoError(t, err)

	var sawMethod, sawFunction bool
	for _, s := range res.Symbols {
		if s.Name == "greet" && s.Kind == symbol.KindMethod {
			sawMethod = true
		}
		if s.Name == "standalone" && s.Kind == symbol.KindFunction {
			sawFunction = true
		}
	}
	require.True(t, sawMethod)
	require.True(t, sawFunction)
}

func TestRustAdapterSeparatesInherentAndTraitImpls(t *testing.T) {
	src := []byte(`
struct Widget;

trait Drawable {
    fn draw(&self);
}

impl Widget {
    fn new() -> Widget { Widget }
}

impl Drawable for Widget {
    fn draw(&self) {}
}
`)
	a := NewRustAdapter()
	counter := ids.NewCounter(0)
	res, err := a.Parse(src, ids.FileID(1), counter)
	require.NoError(t, err)

	var methodNames []string
	for _, s := range res.Symbols {
		if s.Kind == symbol.KindMethod {
			methodNames = append(methodNames, s.Name)
		}
	}
	require.Contains(t, methodNames, "new")
	require.Contains(t, methodNames, "draw")

	var implementsEdge bool
	for _, e := range res.Edges {
		if e.Kind == symbol.RelationImplements && e.ToName == "Drawable" {
			implementsEdge = true
		}
	}
	require.True(t, implementsEdge)
}
