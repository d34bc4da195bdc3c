package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inconshreveable/log15"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/ast"
)

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func newChecker(opts options) (*checker, *bytes.Buffer) {
	if opts.factory == nil {
		opts.factory = ast.DefaultFactory()
	}
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())
	var out bytes.Buffer
	return &checker{opts: opts, logger: logger, out: &out}, &out
}

func TestCheckAllKeepsFileOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, name := range []string{"a.ctx", "b.ctx", "c.ctx", "d.ctx"} {
		lines := []string{"given S", "pred x ∈ S"}
		if i == 2 {
			lines = append(lines, "pred x = 1")
		}
		paths = append(paths, writeFile(t, dir, name, lines...))
	}
	c, out := newChecker(options{jobs: 3})
	failed, err := c.checkAll(paths)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	text := out.String()
	var last int
	for _, p := range paths {
		at := strings.Index(text, p+":2: x ∈ S")
		require.GreaterOrEqual(t, at, last, text)
		last = at
	}
	assert.Contains(t, text, paths[2]+":3: ")
}

func TestCheckFileDerivedPredicates(t *testing.T) {
	path := writeFile(t, t.TempDir(), "m.ctx",
		"type v ℤ",
		"assign v :∈ 1 ‥ v",
	)
	c, out := newChecker(options{wd: true})
	_, err := c.checkAll([]string{path})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "    FIS 1 ‥ v ≠ ∅\n")
	assert.Contains(t, out.String(), "    BA  v' ∈ 1 ‥ v\n")
}

func TestCheckFileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "j.ctx", "pred n > 0", "pred n = TRUE")
	c, out := newChecker(options{json: true, print: ast.PrintOptions{WithTypes: true}})
	failed, err := c.checkAll([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, path, first["file"])
	assert.Equal(t, "n⦂ℤ > 0", first["typed"])
	assert.Equal(t, "pred", first["directive"])
	assert.NotContains(t, first, "problems")
	assert.NotEmpty(t, second["problems"])
}

func TestCheckFileErrors(t *testing.T) {
	dir := t.TempDir()
	c, _ := newChecker(options{})
	_, err := c.checkAll([]string{filepath.Join(dir, "missing.ctx")})
	require.Error(t, err)

	bad := writeFile(t, dir, "bad.ctx", "lemma x = x")
	_, err = c.checkAll([]string{bad})
	require.ErrorContains(t, err, `unknown directive "lemma"`)
}

func TestDebugDumpsDiagnostics(t *testing.T) {
	path := writeFile(t, t.TempDir(), "d.ctx", "pred 1 = TRUE")
	c, out := newChecker(options{debug: true})
	_, err := c.checkAll([]string{path})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "diagnostic.List")
}

func TestCheckFileNormalForm(t *testing.T) {
	path := writeFile(t, t.TempDir(), "n.ctx", "pred ∀x·∀y·x < y", "pred n > 0 ∧ (∃n·n < 0)")
	c, out := newChecker(options{normalize: true})
	failed, err := c.checkAll([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "    normal   ∀x,y·x < y\n")
	assert.Contains(t, out.String(), "n.ctx:2: ")
}
