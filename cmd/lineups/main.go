// Command lineups builds contest lineups from a provider player-list CSV.
//
//	lineups -file FanDuel-NFL-players-list.csv -provider fanduel -sport nfl -n 3
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/stitts-dev/dfs-lineup/internal/loader"
	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
	"github.com/stitts-dev/dfs-lineup/internal/services"
	"github.com/stitts-dev/dfs-lineup/pkg/config"
	"github.com/stitts-dev/dfs-lineup/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	file        string
	provider    string
	sport       string
	numLineups  int
	depth       int
	maxPasses   int
	dropUnknown bool
	exportPath  string
	asJSON      bool
	summary     bool
	logLevel    string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("lineups", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.file, "file", "", "provider player-list CSV (required)")
	fs.StringVar(&opts.provider, "provider", string(optimizer.ProviderFanDuel), "contest provider")
	fs.StringVar(&opts.sport, "sport", string(optimizer.SportNFL), "contest sport")
	fs.IntVar(&opts.numLineups, "n", 1, "number of lineups to build")
	fs.IntVar(&opts.depth, "depth", cfg.SearchDepth, "local search depth")
	fs.IntVar(&opts.maxPasses, "max-passes", cfg.MaxSearchPasses, "search pass limit per lineup")
	fs.BoolVar(&opts.dropUnknown, "drop-unknown", cfg.DropUnknownPositions, "skip players whose position is not on the roster")
	fs.StringVar(&opts.exportPath, "export", "", "write an upload CSV to this path")
	fs.BoolVar(&opts.asJSON, "json", false, "print lineups as JSON")
	fs.BoolVar(&opts.summary, "summary", false, "print point and salary statistics")
	fs.StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.file == "" && fs.NArg() > 0 {
		opts.file = fs.Arg(0)
	}
	if opts.file == "" {
		fmt.Fprintln(stderr, "lineups: a player-list CSV is required")
		fs.Usage()
		return 2
	}
	if opts.numLineups < 1 {
		fmt.Fprintf(stderr, "lineups: -n must be at least 1, got %d\n", opts.numLineups)
		fs.Usage()
		return 2
	}

	// results go to stdout, logs to stderr
	log := logger.InitLogger(opts.logLevel, cfg.IsDevelopment())
	log.SetOutput(stderr)
	entry := logger.WithService("lineups")

	settings, err := optimizer.SettingsFor(optimizer.Provider(opts.provider), optimizer.Sport(opts.sport))
	if err != nil {
		fmt.Fprintf(stderr, "lineups: %v\n", err)
		return 1
	}

	players, err := loader.New(entry).LoadFile(opts.file)
	if err != nil {
		fmt.Fprintf(stderr, "lineups: %v\n", err)
		return 1
	}

	opt, err := optimizer.New(settings, optimizer.Options{
		Depth:                opts.depth,
		MaxPasses:            opts.maxPasses,
		DropUnknownPositions: opts.dropUnknown,
		Logger:               logger.WithOptimizationContext(uuid.NewString(), string(settings.Sport), string(settings.Provider)).WithField("file", opts.file),
	})
	if err != nil {
		fmt.Fprintf(stderr, "lineups: %v\n", err)
		return 1
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()
	result, err := opt.Generate(runCtx, players, opts.numLineups)
	if err != nil {
		fmt.Fprintf(stderr, "lineups: %v\n", err)
		return 1
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "lineups: %v\n", err)
			return 1
		}
	} else {
		printLineups(stdout, result)
	}

	if opts.summary {
		printSummary(stdout, services.Summarize(result))
	}

	if opts.exportPath != "" {
		if err := exportFile(opts.exportPath, result); err != nil {
			fmt.Fprintf(stderr, "lineups: %v\n", err)
			return 1
		}
		entry.WithField("path", opts.exportPath).Info("Lineups exported")
	}
	return 0
}

// printLineups writes each lineup as a table of its slots followed by the
// salary and projected point totals.
func printLineups(w io.Writer, result *optimizer.Result) {
	for i, lineup := range result.Lineups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Lineup %d\n", lineup.Number)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		header := []string{"Slot"}
		header = append(header, result.Settings.Attributes...)
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		for _, slot := range lineup.Slots {
			row := []string{slot.Label}
			for _, f := range slot.Fields {
				row = append(row, f.Value)
			}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()

		fmt.Fprintf(w, "Total salary: %d / %d\n", lineup.TotalSalary, result.Settings.Budget)
		fmt.Fprintf(w, "Projected points: %.2f\n", lineup.ProjectedPoints)
	}
}

func printSummary(w io.Writer, s services.RunSummary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Lineups: %d\n", s.Lineups)
	fmt.Fprintf(w, "Points: mean %.2f, stddev %.2f, min %.2f, max %.2f\n", s.MeanPoints, s.StdDevPoints, s.MinPoints, s.MaxPoints)
	fmt.Fprintf(w, "Salary: mean %.0f (%.1f%% of budget)\n", s.MeanSalary, s.MeanBudgetUsage*100)
}

func exportFile(path string, result *optimizer.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := services.NewExportService(false).ExportResult(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
