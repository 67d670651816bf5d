// Package fs implements [chatstream.ContextSource] over memory files on
// disk selected by doublestar glob patterns.
package fs

import (
	"context"
	"fmt"
	iofs "io/fs"
	"os"
	"slices"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/chatstream"
)

// Interface compliance check.
var _ chatstream.ContextSource = (*ContextSource)(nil)

// ContextSource reads context blocks from files under a root directory.
type ContextSource struct {
	fsys     iofs.FS
	patterns []string
	maxBytes int
}

// New creates a ContextSource for cfg. An empty root means the current
// directory. Invalid patterns are reported as validation errors.
func New(cfg chatstream.ContextConfig) (*ContextSource, error) {
	for _, p := range cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("fs: invalid glob pattern %q: %w", p, chatstream.ErrValidation)
		}
	}
	root := cfg.Root
	if root == "" {
		root = "."
	}
	return &ContextSource{
		fsys:     os.DirFS(root),
		patterns: cfg.Patterns,
		maxBytes: cfg.MaxBytes,
	}, nil
}

// ContextBlocks returns one block per matching regular file, in path order.
// A missing root yields no blocks. Files that are not valid UTF-8 are
// skipped; longer files are cut at maxBytes on a rune boundary.
func (c *ContextSource) ContextBlocks(ctx context.Context) ([]chatstream.ContextBlock, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range c.patterns {
		err := doublestar.GlobWalk(c.fsys, pattern, func(path string, d iofs.DirEntry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || seen[path] {
				return nil
			}
			seen[path] = true
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fs: glob %q: %w", pattern, err)
		}
	}
	slices.Sort(paths)

	blocks := make([]chatstream.ContextBlock, 0, len(paths))
	for _, path := range paths {
		data, err := iofs.ReadFile(c.fsys, path)
		if err != nil {
			return nil, fmt.Errorf("fs: read %s: %w", path, err)
		}
		if !utf8.Valid(data) {
			continue
		}
		blocks = append(blocks, chatstream.ContextBlock{Name: path, Content: c.truncate(data)})
	}
	return blocks, nil
}

func (c *ContextSource) truncate(data []byte) string {
	if c.maxBytes <= 0 || len(data) <= c.maxBytes {
		return string(data)
	}
	n := c.maxBytes
	for n > 0 && !utf8.RuneStart(data[n]) {
		n--
	}
	return string(data[:n])
}
