package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resume-review/internal/bootstrap"
	"resume-review/internal/pipeline"
	"resume-review/internal/shared/config"
	"resume-review/internal/shared/telemetry"
)

// buildOrchestrator is replaced in tests.
var buildOrchestrator = func(cfg config.Config) (*pipeline.Orchestrator, func() error, error) {
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.Orchestrator, app.Close, nil
}

type analyzeOptions struct {
	company     string
	title       string
	description string
	user        string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <resume.pdf>",
		Short: "Run the full analysis pipeline in-process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.company, "company", "", "company name")
	cmd.Flags().StringVar(&opts.title, "title", "", "job title")
	cmd.Flags().StringVar(&opts.description, "description", "", "job description")
	cmd.Flags().StringVar(&opts.user, "user", "cli:local", "owner recorded on the review")
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, path string, opts *analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()
	if err := telemetry.Configure("console", "warn"); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	if err := pipeline.CheckDocument(filepath.Base(path), "", info.Size(), cfg.MaxDocumentBytes, nil); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	if err := pipeline.CheckDocument(filepath.Base(path), "", int64(len(data)), cfg.MaxDocumentBytes, data); err != nil {
		return err
	}

	req := pipeline.Request{
		CompanyName:    opts.company,
		JobTitle:       opts.title,
		JobDescription: opts.description,
		Document:       data,
		FileName:       filepath.Base(path),
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%s: %w", pipeline.MissingFieldsMessage, err)
	}

	orch, closeFn, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	final, err := orch.Run(ctx, req, pipeline.RunOptions{
		UserID: opts.user,
		Observe: func(s pipeline.State) {
			fmt.Fprintln(out, s.StatusText())
		},
		Navigator: pipeline.NavigatorFunc(func(_ context.Context, reviewID string) {
			fmt.Fprintf(out, "Review: %s\n", reviewID)
		}),
	})
	if err != nil {
		return err
	}
	if final.Phase == pipeline.PhaseFailed {
		if final.Failure != nil {
			return fmt.Errorf("%s (%s): %w", final.Reason, final.Failure.Kind, final.Failure)
		}
		return errors.New(final.Reason)
	}
	return nil
}
