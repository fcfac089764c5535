package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire HCL configuration loading process. Paths may
// name individual .hcl files or directories to walk; blocks from every file
// are merged before translation. Exactly one workflow block and at most one
// proxy_pool block may appear across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()

	var workflows []*schema.Workflow
	var pool *schema.ProxyPool
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.GridConfig
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		workflows = append(workflows, root.Workflows...)
		if root.ProxyPool != nil {
			if pool != nil {
				return nil, nil, fmt.Errorf("duplicate proxy_pool block in %s", file)
			}
			pool = root.ProxyPool
		}
	}

	switch len(workflows) {
	case 0:
		return nil, nil, fmt.Errorf("no workflow block found in %v", paths)
	case 1:
		// Exactly one graph per run.
	default:
		return nil, nil, fmt.Errorf("found %d workflow blocks, expected exactly one", len(workflows))
	}

	model := &config.Model{}
	model.Workflow, err = l.translateWorkflow(workflows[0])
	if err != nil {
		return nil, nil, err
	}
	if pool != nil {
		model.ProxyPool, err = l.translateProxyPool(pool)
		if err != nil {
			return nil, nil, err
		}
	}

	logger.Debug("HCL loading complete.",
		"workflow", model.Workflow.Name,
		"tasks", len(model.Workflow.Tasks),
		"proxy_pool", model.ProxyPool != nil,
	)
	return model, NewConverter(), nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found, deduplicated and in discovery order.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
