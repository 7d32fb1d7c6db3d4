package treeio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sematrix/spsm/relation"
	"github.com/sematrix/spsm/tree"
)

func TestParseRoundTripsWithSignature(t *testing.T) {
	for _, expr := range []string{
		"f",
		"f(a)",
		"f(a,b)",
		"f(a,b(c))",
		"f(g(x,y),h(z),w)",
	} {
		t.Run(expr, func(t *testing.T) {
			parsed, err := Parse(expr)
			require.NoError(t, err)
			assert.Equal(t, expr, tree.Signature(parsed.Root()))
		})
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	parsed, err := Parse("  f ( a , b ( c ) ) ")
	require.NoError(t, err)
	assert.Equal(t, "f(a,b(c))", tree.Signature(parsed.Root()))
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{
		"",
		"f(",
		"f(a",
		"f(a,)",
		"f(a))",
		"(a)",
		"f(a)b",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			assert.Error(t, err)
		})
	}
}

func TestMustParsePanicsOnError(t *testing.T) {
	assert.Panics(t, func() { MustParse("f(") })
}

func TestParseFixture(t *testing.T) {
	input := `# swapped siblings
source: f(a,b)
target: f(b,a)

f=f
a=a
b=b
a>b
`
	f, err := ParseFixture(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "f(a,b)", tree.Signature(f.Source.Root()))
	assert.Equal(t, "f(b,a)", tree.Signature(f.Target.Root()))
	assert.Equal(t, 4, f.Candidate.Size())

	a := f.Source.Nodes()[1]
	b := f.Target.Nodes()[1]
	assert.Equal(t, relation.MG, f.Candidate.Get(a, b))
}

func TestParseFixtureRequiresBothTrees(t *testing.T) {
	_, err := ParseFixture(strings.NewReader("source: f(a)\nf=f\n"))
	assert.Error(t, err)
}

func TestParseFixtureUnknownName(t *testing.T) {
	_, err := ParseFixture(strings.NewReader("source: f(a)\ntarget: f(a)\nz=a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source node named")
}

func TestParseFixtureBadRelationLine(t *testing.T) {
	_, err := ParseFixture(strings.NewReader("source: f(a)\ntarget: f(a)\nf f\n"))
	assert.Error(t, err)
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swap.fn")
	content := "source: f(a)\ntarget: f(a)\nf=f\na=a\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Candidate.Size())

	_, err = LoadFixture(filepath.Join(dir, "missing.fn"))
	assert.Error(t, err)
}
