package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathanieluriri/omas-portfolio/internal/content"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Edit the portfolio draft",
}

var draftSetCmd = &cobra.Command{
	Use:   "set path=value [path=value...]",
	Short: "Set fields of the portfolio and save",
	Long: `Set one or more fields of the signed-in admin's portfolio and save it.

Paths use dots for keys and brackets for indices, e.g. experience[0].highlights[1].
Values are strings unless --list or --json is given. Nothing is saved when the
values already match or when --dry-run is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDraftSet,
}

var draftStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the portfolio exists and which sections it has",
	RunE:  runDraftStatus,
}

var (
	draftSetList   bool
	draftSetJSON   bool
	draftSetDryRun bool
)

func init() {
	draftSetCmd.Flags().BoolVar(&draftSetList, "list", false, "Treat values as lists, one item per line or comma")
	draftSetCmd.Flags().BoolVar(&draftSetJSON, "json", false, "Treat values as JSON")
	draftSetCmd.Flags().BoolVar(&draftSetDryRun, "dry-run", false, "Show the changes without saving")

	draftCmd.AddCommand(draftSetCmd)
	draftCmd.AddCommand(draftStatusCmd)
	rootCmd.AddCommand(draftCmd)
}

func runDraftSet(cmd *cobra.Command, args []string) error {
	if draftSetList && draftSetJSON {
		return fmt.Errorf("cannot use --list with --json")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.loadDraft(cmd)
	if err != nil {
		return err
	}
	if store.Draft().IsNull() {
		return fmt.Errorf("no portfolio yet (run 'portfolio_admin portfolio init')")
	}

	for _, arg := range args {
		path, raw, err := parseAssignment(arg)
		if err != nil {
			return err
		}
		value, err := parseValue(raw)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", path, err)
		}

		current, _ := store.Field(path)
		before := current()
		if err := store.SetField(path, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
		if a.cfg.Verbose || draftSetDryRun {
			a.printer.PrintFieldChange("FIELD CHANGED", path.String(), before.Text(), value.Text())
		}
	}

	if !store.HasChanges() {
		a.printf("No changes\n")
		return nil
	}
	if draftSetDryRun {
		store.Discard()
		a.printf("Dry run: nothing saved\n")
		return nil
	}

	if _, err := store.Save(cmd.Context()); err != nil {
		return a.explain(err)
	}
	a.printer.PrintDraftStatus(a.status(store))
	return nil
}

func parseValue(raw string) (content.Value, error) {
	switch {
	case draftSetJSON:
		return content.Parse([]byte(raw))
	case draftSetList:
		return content.Strings(content.ParseList(raw)...), nil
	default:
		return content.String(raw), nil
	}
}

func runDraftStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.loadDraft(cmd)
	if err != nil {
		return err
	}
	a.printer.PrintDraftStatus(a.status(store))
	return nil
}
