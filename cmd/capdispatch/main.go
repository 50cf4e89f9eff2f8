package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/anybox/capdispatch/dispatch"
	"github.com/anybox/capdispatch/hclcfg"
	"github.com/anybox/capdispatch/internal/cli"
	"github.com/anybox/capdispatch/internal/ctxlog"
	"github.com/anybox/capdispatch/version"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	config, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(config.LogLevel, config.LogFormat, os.Stderr)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	model, err := hclcfg.NewLoader().Load(ctx, config.DeclPaths...)
	if err != nil {
		return err
	}

	buildFor, err := parseFilters(config.BuildFor)
	if err != nil {
		return err
	}
	buildRequires, err := parseFilters(config.BuildRequires)
	if err != nil {
		return err
	}

	dispatcher := dispatch.New(model.Workers, model.Infos)
	var factory dispatch.StepList
	builders, err := dispatcher.MakeBuilders(ctx, config.BaseName, &factory, buildFor, buildRequires)
	if err != nil {
		return err
	}

	for _, b := range builders {
		fmt.Fprintf(outW, "%s\t%s\n", b.Name, strings.Join(b.Workers, " "))
	}
	if len(builders) == 0 {
		logger.Info("no builder variant has an eligible worker")
	}
	return nil
}

func parseFilters(texts []string) ([]version.Filter, error) {
	filters := make([]version.Filter, 0, len(texts))
	for _, text := range texts {
		f, err := version.ParseFilter(text)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// newLogger configures an isolated slog.Logger for the requested level and
// format.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
