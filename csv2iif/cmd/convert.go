package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alfredxing/calc/compute"
	"github.com/hako/durafmt"
	date "github.com/joyt/godate"
	"github.com/jtsay362/csv2iif"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	accountName    string
	formatName     string
	outputFileName string
	offsetAccount  string
	scaleExpr      string
	trainFileName  string
	startString    string
	endString      string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <csv-file>",
	Args:  cobra.ExactArgs(1),
	Short: "Convert a CSV export to an IIF file",
	Long: `Convert reads a CSV export from one institution and writes an IIF file
suitable for QuickBooks import. Rows that cannot be converted are reported
and skipped; the run still succeeds with every convertible row.`,
	RunE: func(_ *cobra.Command, args []string) error {
		logger := newLogger()
		inputFileName := args[0]

		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		input, err := os.Open(inputFileName)
		if err != nil {
			return err
		}
		defer input.Close()

		outName := outputFileName
		if outName == "" {
			outName = inputFileName + ".iif"
		}
		output, err := os.Create(outName)
		if err != nil {
			return err
		}

		start := time.Now()
		res, convErr := csv2iif.Convert(input, output, cfg)
		if closeErr := output.Close(); convErr == nil {
			convErr = closeErr
		}
		if convErr != nil {
			return convErr
		}

		for _, skip := range res.Skipped {
			logger.Warn().
				Int("line", skip.Line).
				Str("row", strings.Join(skip.Row, ",")).
				Err(skip.Err).
				Msg("skipping row")
		}

		elapsed := durafmt.Parse(time.Since(start)).LimitFirstN(2)
		fmt.Printf("Wrote %s: %d transactions", outName, res.Converted)
		if len(res.Skipped) > 0 {
			fmt.Printf(", %d rows skipped", len(res.Skipped))
		}
		if res.Filtered > 0 {
			fmt.Printf(", %d outside date range", res.Filtered)
		}
		fmt.Printf(" (%s)\n", elapsed)
		return nil
	},
}

func buildConfig() (csv2iif.Config, error) {
	var cfg csv2iif.Config

	format, err := csv2iif.LookupFormat(formatName)
	if err != nil {
		return cfg, err
	}

	if accountName == "" {
		return cfg, errors.New("--account is required")
	}

	scale := decimal.New(1, 0)
	if scaleExpr != "" {
		val, err := compute.Evaluate(scaleExpr)
		if err != nil {
			return cfg, fmt.Errorf("invalid scale %q: %w", scaleExpr, err)
		}
		scale = decimal.NewFromFloat(val)
	}

	var begin, end time.Time
	if startString != "" {
		if begin, err = date.Parse(startString); err != nil {
			return cfg, fmt.Errorf("invalid begin date %q: %w", startString, err)
		}
	}
	if endString != "" {
		if end, err = date.Parse(endString); err != nil {
			return cfg, fmt.Errorf("invalid end date %q: %w", endString, err)
		}
	}

	cfg = csv2iif.Config{
		Format:        format,
		Account:       accountName,
		OffsetAccount: offsetAccount,
		Scale:         scale,
		Begin:         begin,
		End:           end,
	}

	if trainFileName != "" {
		predict, err := trainSplitClassifier(trainFileName)
		if err != nil {
			return cfg, err
		}
		cfg.SplitAccount = predict
	}

	return cfg, nil
}

func init() {
	RootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&accountName, "account", "a", "", "Name of the account to import into.")
	convertCmd.MarkFlagRequired("account")
	convertCmd.Flags().StringVarP(&formatName, "format", "f", csv2iif.DefaultFormat, "Format of the CSV file.")
	convertCmd.Flags().StringVarP(&outputFileName, "output", "o", "", "Output filename. Defaults to the input filename with .iif appended.")
	convertCmd.Flags().StringVar(&offsetAccount, "offset", csv2iif.DefaultOffsetAccount, "Offset account for the split side of each transaction.")
	convertCmd.Flags().StringVar(&scaleExpr, "scale", "", "Expression to multiply against every amount, e.g. 1/100 for exports in cents.")
	convertCmd.Flags().StringVar(&trainFileName, "train", "", "Existing IIF file to learn split accounts from, by payee name.")
	convertCmd.Flags().StringVarP(&startString, "begin-date", "b", "", "Only convert rows on or after this date.")
	convertCmd.Flags().StringVarP(&endString, "end-date", "e", "", "Only convert rows on or before this date.")
}
