// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/treerag/ai"
	"github.com/poiesic/treerag/core"
	"github.com/poiesic/treerag/storage"
)

// Sink stores imported trees. *treerag.Library implements it.
type Sink interface {
	Import(ctx context.Context, tree *core.DocumentTree) (*storage.TreeInfo, error)
}

// Config holds configuration for an import run.
type Config struct {
	// Workers is the number of files parsed and stored concurrently.
	Workers int

	// ReportInterval is how often to report progress (number of files).
	ReportInterval int

	// MaxRetries is the maximum number of attempts to store one tree.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	return &Config{
		Workers:        workers,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
	}
}

// Summary describes a finished import.
type Summary struct {
	Imported []*storage.TreeInfo
	Failed   map[string]error // Keyed by file path
	Elapsed  time.Duration
}

// Importer loads persisted tree files into a Sink.
type Importer struct {
	sink     Sink
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// New creates an importer. progress receives human-readable progress and
// may be io.Discard.
func New(sink Sink, config *Config, progress io.Writer) (*Importer, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries < 1 {
		return nil, ai.ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Importer{
		sink:     sink,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "importer"),
	}, nil
}

// Run imports every .json file named by paths. Directories are walked
// recursively. A file that fails to parse or store is recorded in the
// summary and does not stop the run. Run returns an error only when no
// files are found or ctx is cancelled.
func (im *Importer) Run(ctx context.Context, paths ...string) (*Summary, error) {
	files, err := CollectFiles(paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	pool, err := ants.NewPool(max(im.config.Workers, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to create import pool: %w", err)
	}
	defer pool.Release()

	fmt.Fprintf(im.progress, "Importing %d files (%d workers)\n", len(files), pool.Cap())
	tracker := NewProgressTracker(im.progress, len(files), im.config.ReportInterval)
	tracker.Start()

	summary := &Summary{Failed: make(map[string]error)}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			info, err := im.importFile(ctx, file)
			mu.Lock()
			if err != nil {
				summary.Failed[file] = err
			} else {
				summary.Imported = append(summary.Imported, info)
			}
			mu.Unlock()
			tracker.Done(err != nil)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			summary.Failed[file] = submitErr
			mu.Unlock()
			tracker.Done(true)
		}
	}
	wg.Wait()
	tracker.Finish()
	summary.Elapsed = tracker.Elapsed()

	slices.SortFunc(summary.Imported, func(a, b *storage.TreeInfo) int {
		return strings.Compare(a.DocumentName, b.DocumentName)
	})
	im.logger.Info("import finished",
		"imported", len(summary.Imported),
		"failed", len(summary.Failed),
		"elapsed", summary.Elapsed)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (im *Importer) importFile(ctx context.Context, path string) (*storage.TreeInfo, error) {
	tree, err := LoadFile(path)
	if err != nil {
		im.logger.Warn("skipping unreadable tree", "file", path, "err", err)
		return nil, err
	}

	var info *storage.TreeInfo
	attempts := 0
	err = ai.RetryWithBackoff(ctx, func() error {
		attempts++
		var err error
		info, err = im.sink.Import(ctx, tree)
		if permanent(err) {
			return ai.Permanent(err)
		}
		return err
	}, im.config.MaxRetries, im.config.RetryDelay)
	if err != nil {
		im.logger.Warn("failed to store tree", "file", path, "document", tree.DocumentName, "err", err)
		return nil, fmt.Errorf("failed to store %s after %d attempts: %w", tree.DocumentName, attempts, err)
	}
	return info, nil
}

// permanent reports whether a sink error would recur on every attempt.
func permanent(err error) bool {
	for _, target := range []error{
		core.ErrInvalidTree,
		core.ErrMalformedTree,
		storage.ErrInvalidName,
		storage.ErrSerializationFailed,
		storage.ErrStorageClosed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// LoadFile parses a persisted tree file. A tree without a document name is
// named after its root title, then after the file name.
func LoadFile(path string) (*core.DocumentTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree, err := core.ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(tree.DocumentName) == "" {
		tree.DocumentName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return tree, nil
}

// CollectFiles expands paths into a sorted, de-duplicated list of .json
// files. Files named explicitly are kept whatever their extension.
func CollectFiles(paths ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".json") {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(files)
	return files, nil
}
