// Package treeio reads function-like expression notation into trees and
// candidate mapping fixtures: "f(a,b(c))" describes a root f with a
// leaf child a and an internal child b whose only child is the leaf c.
// The notation is the inverse of tree.Signature.
package treeio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sematrix/spsm/mapping"
	"github.com/sematrix/spsm/relation"
	"github.com/sematrix/spsm/tree"
)

// Parse reads a single function-like expression into a tree. Node names
// are trimmed of surrounding whitespace; empty names, unbalanced
// parentheses and trailing garbage are errors.
func Parse(s string) (*tree.Tree, error) {
	p := &parser{input: s}
	t := tree.New()

	name, err := p.readName()
	if err != nil {
		return nil, err
	}
	root := t.CreateRoot(name)
	if err := p.readChildren(t, root); err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("treeio: unexpected %q at offset %d", p.input[p.pos], p.pos)
	}
	return t, nil
}

// MustParse is Parse for fixtures known to be well-formed; it panics on
// error.
func MustParse(s string) *tree.Tree {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) readName() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && !strings.ContainsRune("(),", rune(p.input[p.pos])) {
		p.pos++
	}
	name := strings.TrimSpace(p.input[start:p.pos])
	if name == "" {
		return "", fmt.Errorf("treeio: empty node name at offset %d", start)
	}
	return name, nil
}

// readChildren consumes an optional parenthesized child list for the
// node just created.
func (p *parser) readChildren(t *tree.Tree, parent tree.Node) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != '(' {
		return nil
	}
	p.pos++ // consume '('
	for {
		name, err := p.readName()
		if err != nil {
			return err
		}
		child := t.CreateChild(parent, name)
		if err := p.readChildren(t, child); err != nil {
			return err
		}
		p.skipSpace()
		if p.pos >= len(p.input) {
			return fmt.Errorf("treeio: unbalanced parentheses")
		}
		switch p.input[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return nil
		default:
			return fmt.Errorf("treeio: unexpected %q at offset %d", p.input[p.pos], p.pos)
		}
	}
}

// Fixture is a parsed source/target pair together with the candidate
// relations declared between their nodes.
type Fixture struct {
	Source    *tree.Tree
	Target    *tree.Tree
	Candidate *mapping.Matrix
}

// ParseFixture reads a fixture in the line-oriented format:
//
//	source: f(a,b)
//	target: f(b,a)
//	f=f
//	a=a
//	b=b
//
// Blank lines and lines starting with # are ignored. Relation lines use
// the single-character notation (= > < !) between a source node name
// and a target node name; names are resolved against the first node
// with that name in creation order.
func ParseFixture(r io.Reader) (*Fixture, error) {
	f := &Fixture{}
	var relationLines []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "source:"):
			t, err := Parse(strings.TrimPrefix(line, "source:"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			f.Source = t
		case strings.HasPrefix(line, "target:"):
			t, err := Parse(strings.TrimPrefix(line, "target:"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			f.Target = t
		default:
			relationLines = append(relationLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if f.Source == nil || f.Target == nil {
		return nil, fmt.Errorf("treeio: fixture needs both a source: and a target: line")
	}

	f.Candidate = mapping.NewMatrix(f.Source, f.Target)
	for _, line := range relationLines {
		if err := addRelationLine(f, line); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// LoadFixture reads a fixture file from disk.
func LoadFixture(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("treeio: open fixture: %w", err)
	}
	defer file.Close()

	f, err := ParseFixture(file)
	if err != nil {
		return nil, fmt.Errorf("treeio: fixture %s: %w", path, err)
	}
	return f, nil
}

func addRelationLine(f *Fixture, line string) error {
	idx := strings.IndexAny(line, "=><!")
	if idx < 0 {
		return fmt.Errorf("treeio: relation line %q has no relation symbol", line)
	}
	rel := relation.ParseSymbol(line[idx : idx+1])
	sourceName := strings.TrimSpace(line[:idx])
	targetName := strings.TrimSpace(line[idx+1:])

	s, ok := findByName(f.Source, sourceName)
	if !ok {
		return fmt.Errorf("treeio: relation line %q: no source node named %q", line, sourceName)
	}
	t, ok := findByName(f.Target, targetName)
	if !ok {
		return fmt.Errorf("treeio: relation line %q: no target node named %q", line, targetName)
	}
	f.Candidate.Set(s, t, rel)
	return nil
}

func findByName(t *tree.Tree, name string) (tree.Node, bool) {
	for _, n := range t.Nodes() {
		if n.Name() == name {
			return n, true
		}
	}
	return tree.Node{}, false
}
