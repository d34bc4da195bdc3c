package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/cli"
)

type options struct {
	factory   *ast.Factory
	print     ast.PrintOptions
	tree      bool
	normalize bool
	wd        bool
	json      bool
	jobs      int
	debug     bool
	verbose   bool
}

type checker struct {
	opts   options
	logger log15.Logger
	out    io.Writer
}

// fileReport is a JSON line of the output.
type fileReport struct {
	File string `json:"file"`
	*cli.Report
}

// checkFile runs the directives of one file in a fresh session and renders
// the reports. Each file has its own environment, so files are independent.
func (c *checker) checkFile(path string) ([]byte, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	session := cli.NewSession(cli.Options{
		Factory:   c.opts.factory,
		Print:     c.opts.print,
		Tree:      c.opts.tree,
		Normalize: c.opts.normalize,
		WD:        c.opts.wd,
		Logger:    c.logger.New("file", path),
	})
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	failed, err := session.Run(f, func(r *cli.Report) {
		if c.opts.json {
			// encoding a report cannot fail
			_ = enc.Encode(fileReport{File: path, Report: r})
		} else {
			r.WriteText(&buf, path)
		}
		if c.opts.debug && r.Failed() {
			spew.Fdump(&buf, r.Diagnostics())
		}
	})
	if err != nil {
		return nil, failed, fmt.Errorf("%s: %w", path, err)
	}
	c.logger.Debug("checked file", "file", path, "failed", failed)
	return buf.Bytes(), failed, nil
}

// checkAll checks the files concurrently and prints their reports in the
// order of paths. It returns the total number of failed directives.
func (c *checker) checkAll(paths []string) (int, error) {
	outputs := make([][]byte, len(paths))
	counts := make([]int, len(paths))
	var g errgroup.Group
	if c.opts.jobs > 0 {
		g.SetLimit(c.opts.jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			out, failed, err := c.checkFile(path)
			outputs[i], counts[i] = out, failed
			return err
		})
	}
	err := g.Wait()
	failed := 0
	for i := range paths {
		if _, werr := c.out.Write(outputs[i]); werr != nil && err == nil {
			err = werr
		}
		failed += counts[i]
	}
	return failed, err
}
