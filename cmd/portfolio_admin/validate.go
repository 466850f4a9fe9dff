package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathanieluriri/omas-portfolio/internal/config"
	"github.com/nathanieluriri/omas-portfolio/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <portfolio.json>",
	Short: "Validate a portfolio JSON file against the portfolio schema",
	Long: `Validate a local portfolio document without contacting the API.

The bundled schema is used unless --schema (or schema_path in the config file) names
another one.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var validateSchema string

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "", "Path to a JSON Schema file (default: bundled portfolio schema)")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	input := args[0]
	if _, err := os.Stat(input); os.IsNotExist(err) {
		return fmt.Errorf("portfolio file not found: %s", input)
	}

	schemaPath := validateSchema
	if schemaPath == "" {
		cfg, err := config.Resolve(configPath)
		if err != nil {
			return err
		}
		schemaPath = cfg.SchemaPath
	}

	if schemaPath != "" {
		if err := schemas.ValidateJSON(resolveSchemaPath(schemaPath), input); err != nil {
			return err
		}
	} else {
		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		v, err := schemas.PortfolioValidator()
		if err != nil {
			return err
		}
		if err := v.ValidateBytes(data); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", input)
	return nil
}
