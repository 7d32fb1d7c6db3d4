// Package sourcetree extracts function-like expression trees from real
// JavaScript source using tree-sitter. A call expression such as
// f(a, b(c)) becomes a tree rooted at f with a leaf a and an internal
// node b, the shape the SPSM filter matches over.
package sourcetree

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/sematrix/spsm/tree"
)

// FromJavaScript parses src as JavaScript and converts the first
// top-level call expression into a tree. It returns an error when src
// does not parse or contains no call expression.
func FromJavaScript(ctx context.Context, src []byte) (*tree.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	parsed, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("sourcetree: parse: %w", err)
	}
	defer parsed.Close()

	call := firstCall(parsed.RootNode())
	if call == nil {
		return nil, fmt.Errorf("sourcetree: no call expression found")
	}

	t := tree.New()
	root := t.CreateRoot(calleeName(call, src))
	if err := addArguments(t, root, call, src); err != nil {
		return nil, err
	}
	return t, nil
}

// firstCall walks the syntax tree depth-first and returns the first
// call_expression node, or nil.
func firstCall(n *sitter.Node) *sitter.Node {
	if n.Type() == "call_expression" {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := firstCall(n.NamedChild(i)); found != nil {
			return found
		}
	}
	return nil
}

func calleeName(call *sitter.Node, src []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return call.Content(src)
	}
	return fn.Content(src)
}

// addArguments appends one child per call argument: a nested call
// becomes an internal node with its own arguments, anything else
// becomes a leaf named by its source text.
func addArguments(t *tree.Tree, parent tree.Node, call *sitter.Node, src []byte) error {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return fmt.Errorf("sourcetree: call expression %q has no argument list", call.Content(src))
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "call_expression" {
			child := t.CreateChild(parent, calleeName(arg, src))
			if err := addArguments(t, child, arg, src); err != nil {
				return err
			}
			continue
		}
		t.CreateChild(parent, arg.Content(src))
	}
	return nil
}
