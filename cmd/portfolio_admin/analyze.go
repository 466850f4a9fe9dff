package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nathanieluriri/omas-portfolio/internal/bulk"
	"github.com/nathanieluriri/omas-portfolio/internal/draft"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume>",
	Short: "Analyze a resume and apply the suggested field updates",
	Long: `Analyze a whole resume, list the field-level suggestions it produces and apply
them to the portfolio in one batch.

Every suggestion is selected by default; --select narrows the batch to the given
suggestion ids (comma separated). --dry-run lists the suggestions without applying
anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeSelect string
	analyzeDryRun bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSelect, "select", "", "Comma-separated suggestion ids to apply (default: all)")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "List the suggestions without applying them")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	file, err := upload.Open(args[0], upload.MaxResumeBytes)
	if err != nil {
		return err
	}

	var store *draft.Store
	s := bulk.NewSession(a.client, bulk.Options{
		Logger: a.logger,
		AfterApply: func(ctx context.Context, _ []types.Suggestion) error {
			store = draft.NewStore(a.client, draft.Options{Logger: a.logger})
			return store.Load(ctx)
		},
	})

	if err := s.SelectFile(file); err != nil {
		return err
	}
	start := time.Now()
	err = s.Analyze(cmd.Context())
	a.logger.Debug("analysis finished", zap.Stringer("step", s.Step()), since(start))
	if err != nil {
		if unauthorized(err) {
			return a.explain(err)
		}
		return errors.New(s.AnalyzeError())
	}

	if ids := splitIDs(analyzeSelect); len(ids) > 0 {
		if err := s.SelectAll(false); err != nil {
			return err
		}
		for _, id := range ids {
			if err := s.ToggleSelection(id); err != nil {
				return err
			}
		}
	}
	a.printer.PrintSuggestions(s.Suggestions(), s.IsSelected)

	if analyzeDryRun || len(s.Suggestions()) == 0 {
		return nil
	}

	selected := s.SelectedSuggestions()
	if err := s.Proceed(); err != nil {
		return err
	}
	if err := s.ApplySelected(cmd.Context()); err != nil {
		if unauthorized(err) {
			return a.explain(err)
		}
		return errors.New(s.ApplyError())
	}

	updates := make([]types.ApplyUpdate, 0, len(selected))
	for _, suggestion := range selected {
		updates = append(updates, types.UpdateFrom(suggestion))
	}
	a.printer.PrintApplied(updates)
	if store != nil && store.LoadError() == nil {
		a.printer.PrintDraftStatus(a.status(store))
	}
	return nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
