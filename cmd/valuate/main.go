package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"ertragswert/server/internal/cpi"
	"ertragswert/server/internal/database"
	"ertragswert/server/internal/models"
	"ertragswert/server/internal/valuation"
)

type options struct {
	inputPath string
	cpiValue  float64
	cpiDBPath string
	cpiBase   float64
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "valuate",
		Short: "Value a property with the income capitalization method",
		Long: "Reads a property description from a YAML file, resolves the CPI for October of the\n" +
			"year before the purchase and prints the itemized valuation as JSON.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", "YAML file describing the property")
	cmd.Flags().Float64Var(&opts.cpiValue, "cpi", 0, "CPI index value to use instead of a lookup")
	cmd.Flags().StringVar(&opts.cpiDBPath, "cpi-db", "", "sqlite CPI cache to look the index up in")
	cmd.Flags().Float64Var(&opts.cpiBase, "cpi-base", valuation.DefaultCPIBase, "CPI of October 2001")
	_ = cmd.MarkFlagRequired("input")
	cmd.MarkFlagsMutuallyExclusive("cpi", "cpi-db")
	cmd.MarkFlagsOneRequired("cpi", "cpi-db")

	return cmd
}

func run(opts *options, out io.Writer) error {
	if opts.cpiBase <= 0 {
		return fmt.Errorf("--cpi-base must be positive, got %v", opts.cpiBase)
	}

	input, err := loadInput(opts.inputPath)
	if err != nil {
		return err
	}

	reading, err := resolveCPI(opts, input.PurchaseDate)
	if err != nil {
		return err
	}

	result, err := valuation.NewEngine(opts.cpiBase).Calculate(*input, reading)
	if err != nil {
		return fmt.Errorf("calculation failed: %w", err)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func loadInput(path string) (*models.PropertyInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var input models.PropertyInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if input.PurchaseDate.IsZero() {
		return nil, fmt.Errorf("purchase_date is required")
	}
	return &input, nil
}

func resolveCPI(opts *options, purchaseDate models.Date) (models.CPIPoint, error) {
	period := cpi.PurchasePeriod(purchaseDate)
	if opts.cpiDBPath == "" {
		if opts.cpiValue <= 0 {
			return models.CPIPoint{}, fmt.Errorf("--cpi must be positive, got %v", opts.cpiValue)
		}
		return models.CPIPoint{
			Year:       period.Year,
			Month:      period.Month,
			IndexValue: opts.cpiValue,
			BaseYear:   models.DefaultCPIBaseYear,
		}, nil
	}

	db, err := database.NewDatabase(opts.cpiDBPath)
	if err != nil {
		return models.CPIPoint{}, err
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return models.CPIPoint{}, err
	}

	reading, err := db.GetCPIReading(period.Year, period.Month)
	if err != nil {
		return models.CPIPoint{}, err
	}
	if reading == nil {
		return models.CPIPoint{}, fmt.Errorf("%w for %s", cpi.ErrNotFound, period)
	}
	return *reading, nil
}
