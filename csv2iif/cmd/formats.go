package cmd

import (
	"fmt"
	"strings"

	"github.com/jtsay362/csv2iif"
	"github.com/spf13/cobra"
)

// formatsCmd represents the formats command
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List known CSV formats",
	Run: func(_ *cobra.Command, _ []string) {
		for _, f := range csv2iif.Formats() {
			kind := "bank"
			if f.CreditAccount {
				kind = "credit card"
			}
			fmt.Printf("%s (%s, %s)\n", f.Name, f.AccountType, kind)
			fmt.Printf("    columns: %s\n", strings.Join(f.Columns, ", "))
		}
	},
}

func init() {
	RootCmd.AddCommand(formatsCmd)
}
