package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/suggest"
	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <field-path>",
	Short: "Ask the AI for a suggested value for one field",
	Long: `Ask the AI for a suggested value for one field of the portfolio, apply it to
the draft and save.

The suggestion is drafted from --text, from a resume --file, or from the resume
stored with 'upload-resume' (--stored-resume). The stored resume can only be used
when no text or file is given. --dry-run shows the suggestion and undoes it
instead of saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

var (
	suggestText   string
	suggestFile   string
	suggestStored bool
	suggestList   bool
	suggestString bool
	suggestBool   bool
	suggestDryRun bool
)

func init() {
	suggestCmd.Flags().StringVar(&suggestText, "text", "", "Extra context for the suggestion")
	suggestCmd.Flags().StringVarP(&suggestFile, "file", "f", "", "Resume to draft from (PDF or Word)")
	suggestCmd.Flags().BoolVar(&suggestStored, "stored-resume", false, "Draft from the resume stored with upload-resume")
	suggestCmd.Flags().BoolVar(&suggestList, "list", false, "The field is a list of strings")
	suggestCmd.Flags().BoolVar(&suggestString, "string", false, "The field is a single string")
	suggestCmd.Flags().BoolVar(&suggestBool, "bool", false, "The field is true or false")
	suggestCmd.Flags().BoolVar(&suggestDryRun, "dry-run", false, "Show the suggestion without saving")

	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	shapes := 0
	for _, set := range []bool{suggestList, suggestString, suggestBool} {
		if set {
			shapes++
		}
	}
	if shapes > 1 {
		return fmt.Errorf("use only one of --list, --string, --bool")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	path, err := content.ParsePath(args[0])
	if err != nil {
		return err
	}

	store, err := a.loadDraft(cmd)
	if err != nil {
		return err
	}
	if store.Draft().IsNull() {
		return fmt.Errorf("no portfolio yet (run 'portfolio_admin portfolio init')")
	}

	var coerce content.CoerceFunc
	switch {
	case suggestList:
		coerce = content.CoerceStringList
	case suggestString:
		coerce = content.CoerceString
	case suggestBool:
		coerce = content.CoerceBool
	}

	current, apply := store.Field(path)
	controller, err := suggest.NewController(a.client, suggest.Options{
		TargetPath: path.String(),
		Current:    current,
		Apply:      apply,
		Coerce:     coerce,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	defer controller.Close()

	controller.SetText(suggestText)
	if suggestFile != "" {
		file, err := upload.Open(suggestFile, upload.MaxResumeBytes)
		if err != nil {
			return err
		}
		if err := controller.SelectFile(file); err != nil {
			return err
		}
	}
	if suggestStored {
		if !controller.CanUseStoredResume() {
			return errors.New(suggest.NoteStoredResumeLocked)
		}
		controller.SetUseStoredResume(true)
	}
	if !controller.Ready() {
		return fmt.Errorf("nothing to draft from: pass --text, --file or --stored-resume")
	}

	before := current()
	start := time.Now()
	err = controller.Generate(cmd.Context())
	a.logger.Debug("suggestion request finished", zap.Stringer("status", controller.Status()), since(start))
	if err != nil {
		if unauthorized(err) {
			return a.explain(err)
		}
		return errors.New(controller.ErrorMessage())
	}
	a.printer.PrintFieldChange("SUGGESTION APPLIED", path.String(), before.Text(), current().Text())

	if suggestDryRun {
		if err := controller.Undo(); err != nil {
			return err
		}
		a.printf("%s Dry run: nothing saved\n", controller.Note())
		return nil
	}

	if _, err := store.Save(cmd.Context()); err != nil {
		return a.explain(err)
	}
	a.printf("%s\n", controller.Note())
	return nil
}
