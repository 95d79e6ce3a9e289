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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/treerag/navigator"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory (overrides config)",
	}

	return &cli.App{
		Name:  "treerag",
		Usage: "Query hierarchical document trees with guided traversal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "treerag.yaml",
				EnvVars: []string{"TREERAG_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with API keys",
				Value: ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import tree JSON files or directories of them",
				ArgsUsage: "<path>...",
				Action:    importCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files imported concurrently",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N files",
						Value: 10,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List imported documents",
				Action: listCommand,
				Flags:  []cli.Flag{dbFlag},
			},
			{
				Name:      "show",
				Usage:     "Print the outline of a document",
				ArgsUsage: "<document>",
				Action:    showCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "depth",
						Usage: "Deepest level to print (root is 0)",
						Value: 2,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove a document",
				ArgsUsage: "<document>",
				Action:    deleteCommand,
				Flags:     []cli.Flag{dbFlag},
			},
			{
				Name:      "search",
				Usage:     "Find the sections of a document relevant to a query",
				ArgsUsage: "<document> <query>...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "max-depth",
						Usage: "Deepest level to expand (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-branches",
						Usage: "Children explored per node (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Score relevance by term overlap instead of calling a model",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the traversal result as JSON",
					},
					&cli.BoolFlag{
						Name:  "context",
						Usage: "Print the formatted prompt context",
					},
					&cli.IntFlag{
						Name:  "context-tokens",
						Usage: "Approximate token budget for --context (0 for no limit)",
						Value: navigator.DefaultContextTokens,
					},
				},
			},
			{
				Name:   "generate",
				Usage:  "Write a synthetic balanced tree for benchmarking",
				Action: generateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Document name",
						Value: "Synthetic Manual",
					},
					&cli.IntFlag{
						Name:  "branching",
						Usage: "Children per internal node",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "depth",
						Usage: "Depth of the leaves (root is 0)",
						Value: 4,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
				},
			},
		},
	}
}

func parseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", strings.ToLower(levelStr))
	}
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	applyLevel(level)
	return nil
}

func applyLevel(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
