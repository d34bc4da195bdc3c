package cli

import (
	"io"
	"os"

	"github.com/inconshreveable/log15"
)

// NewLogger builds the root logger of a tool. It writes to stderr, in the
// terminal format when stderr is a terminal and as logfmt otherwise, at info
// level or, when verbose, debug level.
func NewLogger(verbose bool) log15.Logger {
	return newLogger(os.Stderr, IsTerminal(os.Stderr.Fd()), verbose)
}

func newLogger(w io.Writer, terminal, verbose bool) log15.Logger {
	format := log15.LogfmtFormat()
	if terminal {
		format = log15.TerminalFormat()
	}
	level := log15.LvlInfo
	if verbose {
		level = log15.LvlDebug
	}
	logger := log15.New()
	logger.SetHandler(log15.LvlFilterHandler(level, log15.StreamHandler(w, format)))
	return logger
}
