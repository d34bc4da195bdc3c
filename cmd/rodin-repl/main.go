package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/cli"
)

const historyFile = ".rodin_history"

func main() {
	var (
		lang        = flag.String("lang", ast.Version2.String(), "language version of the formulas")
		withTypes   = flag.Bool("types", false, "print type annotations")
		showVersion = flag.Bool("version", false, "show version information")
		jsonOutput  = flag.Bool("json", false, "output version in JSON format")
		verbose     = flag.Bool("v", false, "log at debug level")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Interactive formula checker.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n"+help)
	}
	flag.Parse()

	if *showVersion {
		cli.PrintVersion(os.Stdout, "rodin-repl", *jsonOutput)
		os.Exit(cli.ExitOK)
	}
	version, err := ast.ParseVersion(*lang)
	if err != nil {
		cli.ExitWithError("%v", err)
	}
	session := cli.NewSession(cli.Options{
		Factory:   ast.NewFactory(ast.FactoryConfig{Version: version}),
		Print:     ast.PrintOptions{WithTypes: *withTypes},
		Normalize: true,
		WD:        true,
		Logger:    cli.NewLogger(*verbose),
	})
	os.Exit(repl(session))
}

const help = `REPL COMMANDS:
  given S, T         declare carrier sets
  type x T           declare an identifier
  expr E             check an expression
  pred P             check a predicate
  assign A           check an assignment
  :env               show the environment
  :reset             forget every declaration
  :help              show this help
  :quit              exit
`

func repl(session *cli.Session) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		var out []string
		for _, d := range append(cli.Directives, ":env", ":reset", ":help", ":quit") {
			if strings.HasPrefix(d, line) {
				out = append(out, d+" ")
			}
		}
		return out
	})

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	fmt.Printf("rodin-repl v%s, type :help for help\n", cli.Version)
	for {
		line, err := ln.Prompt("rodin> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return cli.ExitOK
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cli.ExitProblems
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		ln.AppendHistory(text)

		switch text {
		case ":quit", ":q":
			return cli.ExitOK
		case ":help", ":h":
			fmt.Print(help)
			continue
		case ":env":
			fmt.Println(session.Env())
			continue
		case ":reset":
			session.Reset()
			continue
		}
		if strings.HasPrefix(text, ":") {
			fmt.Printf("unknown command %s. Type :help for help.\n", text)
			continue
		}
		r, err := session.Exec(text)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if r != nil {
			r.WriteText(os.Stdout, "")
		}
	}
}
