// Package cli parses command-line arguments for the capdispatch executable.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError carries the process exit code for a CLI failure.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Config is the parsed command line.
type Config struct {
	DeclPaths     []string
	BaseName      string
	BuildFor      []string
	BuildRequires []string
	LogFormat     string
	LogLevel      string
}

// stringList accumulates repeated string flags.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ", ")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// Parse processes args. It returns the Config, a boolean indicating a clean
// early exit (help, no input), or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("capdispatch", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
capdispatch - expand capability filters into builder variants.

Usage:
  capdispatch [options] DECL_PATH...

Arguments:
  DECL_PATH
    Path to a .hcl declaration file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	baseFlag := flagSet.String("base", "bldr", "Base name for generated builders.")
	var buildFor, buildRequires stringList
	flagSet.Var(&buildFor, "build-for", "Filter contributing one variant dimension, e.g. 'postgresql >= 9.2'. Repeatable.")
	flagSet.Var(&buildRequires, "build-requires", "Filter gating worker eligibility, e.g. 'ssh_key'. Repeatable.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &Config{
		DeclPaths:     flagSet.Args(),
		BaseName:      *baseFlag,
		BuildFor:      buildFor,
		BuildRequires: buildRequires,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	}, false, nil
}
