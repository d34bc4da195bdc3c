package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/cli"
)

// rodin-check type checks files of formula directives (given, type, expr,
// pred, assign; one per line) and prints each typed formula with the
// names it inferred.
// Flags:
//
//	-lang      language version of the formulas (1 or 2).
//	-types     print type annotations.
//	-parens    print every operand parenthesized.
//	-tree      print the tree of each typed formula.
//	-normalize print the normal form of each typed formula when it differs.
//	-wd        print well-definedness, and for assignments feasibility and before-after predicates.
//	-json      print one JSON report per directive.
//	-j         number of files checked concurrently.
//	-watch     check again whenever a file is written.
//	-debug     dump the diagnostics of failed directives.
//	-v         log at debug level.
//	-version   print version information.
func main() {
	var (
		lang        string
		opts        options
		watch       bool
		showVersion bool
	)
	flag.StringVar(&lang, "lang", ast.Version2.String(), "language version of the formulas")
	flag.BoolVar(&opts.print.WithTypes, "types", false, "print type annotations")
	flag.BoolVar(&opts.print.FullyParenthesized, "parens", false, "print every operand parenthesized")
	flag.BoolVar(&opts.tree, "tree", false, "print the tree of each typed formula")
	flag.BoolVar(&opts.normalize, "normalize", false, "print the normal form of each typed formula")
	flag.BoolVar(&opts.wd, "wd", false, "print WD, and FIS and BA for assignments")
	flag.BoolVar(&opts.json, "json", false, "print one JSON report per directive")
	flag.IntVar(&opts.jobs, "j", runtime.GOMAXPROCS(0), "number of files checked concurrently")
	flag.BoolVar(&watch, "watch", false, "check again whenever a file is written")
	flag.BoolVar(&opts.debug, "debug", false, "dump the diagnostics of failed directives")
	flag.BoolVar(&opts.verbose, "v", false, "log at debug level")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] FILE...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Type checks files of formula directives, one per line:\n")
		fmt.Fprintf(os.Stderr, "  given S, T | type x ℙ(S) | expr E | pred P | assign A\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		cli.PrintVersion(os.Stdout, "rodin-check", opts.json)
		os.Exit(cli.ExitOK)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(cli.ExitUsage)
	}
	version, err := ast.ParseVersion(lang)
	if err != nil {
		cli.ExitWithError("%v", err)
	}
	opts.factory = ast.NewFactory(ast.FactoryConfig{Version: version})
	logger := cli.NewLogger(opts.verbose)

	c := &checker{opts: opts, logger: logger, out: os.Stdout}
	if watch {
		if err := c.watch(flag.Args()); err != nil {
			cli.ExitWithError("%v", err)
		}
		return
	}
	failed, err := c.checkAll(flag.Args())
	if err != nil {
		cli.ExitWithError("%v", err)
	}
	if failed > 0 {
		logger.Info("some directives failed", "count", failed)
		os.Exit(cli.ExitProblems)
	}
}
