// Package loader imports graph files from disk into the graph store.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"branchline/internal/codec"
	"branchline/internal/metrics"
	"branchline/internal/service"

	"go.uber.org/zap"
)

// Importer stores one parsed graph document under name
type Importer interface {
	Import(ctx context.Context, name, format string, r io.Reader) (*service.SaveResult, error)
}

// Result lists what LoadDir imported
type Result struct {
	Loaded []string
	Failed map[string]error
}

// IsGraphFile reports whether path has a graph document extension
func IsGraphFile(path string) bool {
	_, err := codec.FormatFromPath(path)
	return err == nil
}

// LoadFile imports one graph file. The graph is named after the file
// without its extension.
func LoadFile(ctx context.Context, graphs Importer, path string) (*service.SaveResult, error) {
	format, err := codec.FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	result, err := graphs.Import(ctx, codec.NameFromPath(path), format, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return result, nil
}

// LoadDir imports every graph file directly inside dir. A file that fails
// is logged and counted; the others still load.
func LoadDir(ctx context.Context, dir string, graphs Importer, logger *zap.Logger, collector *metrics.Collector) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsGraphFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	result := &Result{Failed: make(map[string]error)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		saved, err := LoadFile(ctx, graphs, path)
		if err != nil {
			collector.GraphLoadFailed()
			result.Failed[filepath.Base(path)] = err
			logger.Warn("failed to load graph file", zap.String("path", path), zap.Error(err))
			continue
		}

		result.Loaded = append(result.Loaded, saved.Name)
		for _, w := range saved.Warnings {
			logger.Warn("graph warning",
				zap.String("graph", saved.Name),
				zap.String("code", string(w.Code)),
				zap.String("node_id", w.NodeID),
				zap.String("message", w.Message))
		}
	}

	logger.Info("loaded graph directory",
		zap.String("dir", dir),
		zap.Int("loaded", len(result.Loaded)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}
