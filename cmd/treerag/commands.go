package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/treerag"
	"github.com/poiesic/treerag/ai/lexical"
	"github.com/poiesic/treerag/config"
	"github.com/poiesic/treerag/core"
	"github.com/poiesic/treerag/importer"
	"github.com/poiesic/treerag/navigator"
	"github.com/urfave/cli/v2"
)

// loadConfig layers the config file, the .env file, TREERAG_* variables
// and command-line flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Database.Path = db
		cfg.Database.InMemory = false
	}
	if !c.IsSet("log-level") {
		level, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		applyLevel(level)
	}
	return cfg, nil
}

func openLibrary(c *cli.Context, opts ...treerag.LibraryOption) (*treerag.Library, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	lib, err := treerag.OpenFromConfig(cfg, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, cfg, nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one path is required")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	importConfig := importer.DefaultConfig()
	importConfig.Workers = c.Int("workers")
	importConfig.ReportInterval = c.Int("report-interval")
	if importConfig.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}

	im, err := importer.New(lib, importConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}
	summary, err := im.Run(ctx, c.Args().Slice()...)
	if err != nil && summary == nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out := c.App.Writer
	for _, info := range summary.Imported {
		fmt.Fprintf(out, "imported %s (%d nodes)\n", info.DocumentName, info.Nodes)
	}
	for file, ferr := range summary.Failed {
		fmt.Fprintf(out, "failed %s: %v\n", file, ferr)
	}
	if err != nil {
		return err
	}
	if len(summary.Imported) == 0 {
		return fmt.Errorf("no documents imported")
	}
	return nil
}

func listCommand(c *cli.Context) error {
	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	infos, err := lib.List(c.Context)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(c.App.Writer, "No documents imported.")
		return nil
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT\tNODES\tSAVED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%s\n", info.DocumentName, info.Nodes, info.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func showCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document name is required")
	}
	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	tree, err := lib.Tree(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	printOutline(c.App.Writer, tree, c.Int("depth"))
	return nil
}

// printOutline writes one indented line per node down to maxDepth.
// Nodes already printed are not revisited.
func printOutline(w io.Writer, tree *core.DocumentTree, maxDepth int) {
	type entry struct {
		node  *core.DocumentNode
		depth int
	}
	seen := make(map[*core.DocumentNode]bool)
	stack := []entry{{tree.Root, 0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.node == nil || seen[e.node] {
			continue
		}
		seen[e.node] = true

		line := fmt.Sprintf("%s%s [%s]", strings.Repeat("  ", e.depth), e.node.Title, e.node.ID)
		if e.node.PageRef != "" {
			line += " p." + e.node.PageRef.String()
		}
		fmt.Fprintln(w, line)

		if e.depth >= maxDepth {
			continue
		}
		for i := len(e.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, entry{e.node.Children[i], e.depth + 1})
		}
	}
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document name is required")
	}
	lib, _, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	name := c.Args().First()
	if err := lib.Delete(c.Context, name); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %s\n", name)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("a document name and a query are required")
	}
	document := c.Args().First()
	query := strings.Join(c.Args().Tail(), " ")
	if strings.TrimSpace(query) == "" {
		return navigator.ErrEmptyQuery
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var opts []treerag.LibraryOption
	if c.Bool("offline") {
		opts = append(opts, treerag.WithOracle(lexical.NewOracle()))
	}
	lib, cfg, err := openLibrary(c, opts...)
	if err != nil {
		return err
	}
	defer lib.Close()

	maxDepth := cfg.Traversal.MaxDepth
	if c.IsSet("max-depth") {
		maxDepth = c.Int("max-depth")
	}
	maxBranches := cfg.Traversal.MaxBranches
	if c.IsSet("max-branches") {
		maxBranches = c.Int("max-branches")
	}

	result, err := lib.QueryWithLimits(ctx, document, query, maxDepth, maxBranches)
	if err != nil && (result == nil || !errors.Is(err, context.Canceled)) {
		return err
	}

	out := c.App.Writer
	switch {
	case c.Bool("json"):
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	case c.Bool("context"):
		text, report := navigator.BuildContext(result, navigator.WithTokenBudget(c.Int("context-tokens")))
		if len(report.Dropped) > 0 || report.Truncated != "" {
			slog.Debug("context trimmed to budget",
				"tokens", report.Tokens,
				"truncated", report.Truncated,
				"dropped", report.Dropped)
		}
		fmt.Fprintln(out, text)
	default:
		printResult(out, result)
	}
	return err
}

func printResult(w io.Writer, result *core.TraversalResult) {
	if len(result.Selected) == 0 {
		fmt.Fprintf(w, "No relevant sections found in %s.\n", result.DocumentName)
	}
	for i, sel := range result.Selected {
		fmt.Fprintf(w, "%d. %s (%s) [%.2f]\n", i+1,
			strings.Join(sel.Path, " > "),
			navigator.Citation(result.DocumentName, sel.Node),
			sel.Confidence)
	}

	s := result.Stats
	fmt.Fprintf(w, "\nvisited %d nodes, selected %d, depth %d/%d, %d oracle calls (%d failed)",
		s.NodesVisited, s.NodesSelected, s.MaxDepthReached, s.MaxDepth, s.OracleCalls, s.OracleFailures)
	if s.Truncated {
		fmt.Fprintf(w, ", stopped at node budget %d", s.NodeBudget)
	}
	if s.Cancelled {
		fmt.Fprint(w, ", cancelled")
	}
	fmt.Fprintln(w)
}

func generateCommand(c *cli.Context) error {
	tree, err := core.Synthetic(c.String("name"), c.Int("branching"), c.Int("depth"))
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return err
	}

	if path := c.String("out"); path != "" {
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "wrote %s (%d nodes)\n", path, tree.Len())
		return nil
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
