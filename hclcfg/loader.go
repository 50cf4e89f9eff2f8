// Package hclcfg loads worker capability declarations and the
// capability-info table from HCL files into the typed engine model.
//
// The format mirrors the engine's input interfaces:
//
//	worker "w90-91" {
//	  capability "postgresql" {
//	    version "9.0" { params = { port = "5434" } }
//	    version "9.1" { params = { port = "5433" } }
//	  }
//	  capability "ssh_key" {}            # marker, no version blocks
//	}
//
//	capability_info "postgresql" {
//	  version_prop = "pg_version"
//	  abbrev       = "pg"
//	  environ      = { PGPORT = "%(cap(port):-)s" }
//	}
package hclcfg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/anybox/capdispatch/capability"
	"github.com/anybox/capdispatch/dispatch"
	"github.com/anybox/capdispatch/internal/ctxlog"
)

// Model is the loaded configuration: the worker roster in declaration order
// and the capability-info table.
type Model struct {
	Workers []*capability.Worker
	Infos   map[string]dispatch.Info
}

// Loader parses HCL declaration files.
type Loader struct{}

// NewLoader creates an HCL declaration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from the given paths (files or
// directories) and assembles the model. Declaration errors, including
// duplicate (name, version) capability pairs, fail the whole load.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered declaration files", "count", len(files))

	model := &Model{Infos: make(map[string]dispatch.Info)}
	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}
		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", file, diags)
		}
		for _, wb := range root.Workers {
			worker, err := translateWorker(wb)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Workers = append(model.Workers, worker)
		}
		for _, ib := range root.Infos {
			info, err := translateInfo(ib)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			if _, ok := model.Infos[ib.Name]; ok {
				return nil, fmt.Errorf("in %s: capability_info %q declared twice", file, ib.Name)
			}
			model.Infos[ib.Name] = info
		}
	}

	logger.Debug("declaration loading complete",
		"workers", len(model.Workers), "capability_infos", len(model.Infos))
	return model, nil
}

// findHCLFiles expands the given paths into a sorted list of .hcl files.
func findHCLFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		stat, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("declaration path: %w", err)
		}
		if !stat.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, ".hcl") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
	}
	slices.Sort(files)
	return files, nil
}
