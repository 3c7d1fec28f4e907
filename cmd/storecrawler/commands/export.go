package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var exportCategory *string

func init() {
	exportCategory = exportCmd.Flags().String("category", "", "Only export products of this category slug.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--category <slug>]",
	Short: "Exports stored products to a CSV file under EXPORT_DIR.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startCrawler(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Stop(context.Background())

		filter := map[string]interface{}{}
		if *exportCategory != "" {
			filter["category"] = *exportCategory
		}
		fileName, n, err := app.ExportProductsToFile(cmd.Context(), filter)
		if err != nil {
			return err
		}
		fmt.Printf("%d products written to %s\n", n, fileName)
		return nil
	},
}
