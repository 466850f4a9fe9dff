package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/theme"
)

var themeCSSCmd = &cobra.Command{
	Use:   "theme-css",
	Short: "Print the portfolio theme as CSS custom properties",
	Long:  "Print the theme colours of a portfolio as CSS custom properties. The portfolio is read from --in when given, otherwise it is fetched like 'portfolio show'.",
	RunE:  runThemeCSS,
}

var themeInputFile string

func init() {
	themeCSSCmd.Flags().StringVarP(&themeInputFile, "in", "i", "", "Path to a portfolio JSON file")

	rootCmd.AddCommand(themeCSSCmd)
}

func runThemeCSS(cmd *cobra.Command, _ []string) error {
	if themeInputFile != "" {
		data, err := os.ReadFile(themeInputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		doc, err := content.Parse(data)
		if err != nil {
			return fmt.Errorf("failed to parse portfolio JSON: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), theme.FromPortfolio(doc))
		return nil
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	_, doc, err := a.fetchPortfolio(cmd.Context())
	if err != nil {
		return a.explain(err)
	}
	a.printf("%s\n", theme.FromPortfolio(doc))
	return nil
}
