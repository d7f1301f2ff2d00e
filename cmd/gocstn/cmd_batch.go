package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gocstn/internal/parallel"
)

var (
	batchWorkers int
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file or dir> [more...]",
	Short: "Check many networks concurrently",
	Long: `Batch checks every named network, running up to --workers checks at
once. Directory arguments expand to the .yaml and .yml files directly
inside them. Each file declares its own checking variant; a network that
fails to load is reported and counted without stopping the rest.

Examples:
  gocstn batch networks/
  gocstn batch --workers 8 --timeout 1m networks/ extra.yaml

Exit Codes:
  0 = every network is dynamically controllable
  1 = at least one network is not controllable
  2 = at least one check timed out
  3 = error (unreadable input, malformed network)`,
	Args: cobra.MinimumNArgs(1),
	Run:  runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0,
		"Concurrent checks (0 = one per CPU core)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 0,
		"Abort the whole batch after this long (0 = no limit)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) {
	out := newRenderer(os.Stdout)

	files, err := collectNetworkFiles(args)
	if err != nil {
		slog.Error("collecting network files", "error", err)
		os.Exit(ExitError)
	}
	if len(files) == 0 {
		slog.Error("no network files found", "args", args)
		os.Exit(ExitError)
	}

	var jobs []parallel.Job
	var failed []parallel.Result
	for _, path := range files {
		net, err := LoadNetworkFile(path)
		if err != nil {
			failed = append(failed, parallel.Result{Name: path, Err: err})
			continue
		}
		policy, err := net.Policy("", 0)
		if err != nil {
			failed = append(failed, parallel.Result{Name: net.Graph.Name(), Err: err})
			continue
		}
		jobs = append(jobs, parallel.Job{
			Name:   net.Graph.Name(),
			Graph:  net.Graph,
			Policy: policy,
		})
	}

	ctx := context.Background()
	if batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, batchTimeout)
		defer cancel()
	}

	runner := parallel.NewBatchRunner(batchWorkers)
	slog.Info("starting batch", "jobs", len(jobs), "workers", runner.Workers())
	results, err := runner.Run(ctx, jobs)
	if err != nil {
		slog.Warn("batch cut short", "error", err)
	}
	results = append(results, failed...)

	for _, res := range results {
		fmt.Println(out.jobLine(res))
	}
	tally := parallel.Summarize(results)
	fmt.Println(out.summaryLine(tally, len(results)))
	os.Exit(batchExitCode(tally))
}

// collectNetworkFiles expands directory arguments to the network files
// directly inside them, keeping explicit file arguments as given.
func collectNetworkFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch filepath.Ext(entry.Name()) {
			case ".yaml", ".yml":
				files = append(files, filepath.Join(arg, entry.Name()))
			}
		}
	}
	return files, nil
}

// batchExitCode maps the tally onto the documented exit codes, worst
// outcome first.
func batchExitCode(t parallel.Tally) int {
	switch {
	case t.Errored > 0:
		return ExitError
	case t.Inconsistent > 0:
		return ExitInconsistent
	case t.Timeout > 0:
		return ExitTimeout
	default:
		return ExitConsistent
	}
}
