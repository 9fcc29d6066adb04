package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobly/cv-analyzer/internal/config"
	"jobly/cv-analyzer/internal/repositories"
	"jobly/cv-analyzer/internal/services"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every PDF in a directory through the cached analyzer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		if strings.TrimSpace(userID) == "" {
			return errors.New("--user is required")
		}

		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if !cmd.Flags().Changed("workers") {
			workers = cfg.Worker.Concurrency
		}

		log, err := newLogger()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			return err
		}
		rdb, err := config.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
		}

		storage := services.NewStorageService(cfg.Storage.UploadPath)
		if err := storage.EnsureUploadDir(); err != nil {
			return err
		}

		engine, err := newEngine()
		if err != nil {
			return fmt.Errorf("failed to build scoring engine: %w", err)
		}

		analyzer := services.NewAnalyzerService(
			services.NewAnalysisCache(repositories.NewAnalysisRepository(db), rdb, cfg.Redis.TTL, log),
			storage,
			services.NewPDFParserService(),
			engine,
			services.AnalyzerOptions{
				MaxFileSize:    cfg.Storage.MaxFileSize,
				PersistTimeout: cfg.Analyzer.PersistTimeout,
			},
			log,
		)

		return runBatch(ctx, cmd.OutOrStdout(), analyzer, args[0], userID, workers, log)
	},
}

func init() {
	batchCmd.Flags().StringP("user", "u", "", "user id recorded in the analysis history")
	batchCmd.Flags().IntP("workers", "w", 3, "number of concurrent analyses (default WORKER_CONCURRENCY)")
}

type batchSummary struct {
	Analyzed int
	Cached   int
	Failed   int
}

func runBatch(ctx context.Context, out io.Writer, analyzer services.AnalyzerService, dir, userID string, workers int, log *zap.Logger) error {
	paths, err := collectPDFs(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found in %s", dir)
	}

	w := services.NewWorker(analyzer, workers, log)
	w.Start(ctx)

	done := make(chan []services.BatchResult, 1)
	go func() {
		var results []services.BatchResult
		for r := range w.Results() {
			results = append(results, r)
		}
		done <- results
	}()

	for _, path := range paths {
		if !w.EnqueueJob(services.BatchJob{Path: path, SubjectID: userID}) {
			log.Warn("job rejected", zap.String("path", path))
		}
	}
	w.Stop()

	results := <-done
	sort.Slice(results, func(i, j int) bool {
		return results[i].Job.Path < results[j].Job.Path
	})

	summary := summarize(results)
	if err := printResults(out, results, summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, len(results))
	}
	return nil
}

// collectPDFs lists the PDF files directly under dir, sorted by name.
func collectPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func summarize(results []services.BatchResult) batchSummary {
	var s batchSummary
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Result.Cached:
			s.Cached++
		default:
			s.Analyzed++
		}
	}
	return s
}

func printResults(out io.Writer, results []services.BatchResult, summary batchSummary) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSCORE\tCACHED\tERROR")
	for _, r := range results {
		name := filepath.Base(r.Job.Path)
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t%s: %s\n", name, services.KindOf(r.Err), r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%t\t\n", name, r.Result.Report.TotalScore, r.Result.Cached)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nanalyzed: %d, cached: %d, failed: %d\n", summary.Analyzed, summary.Cached, summary.Failed)
	return err
}
