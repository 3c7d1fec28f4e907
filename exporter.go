package storecrawler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var productCsvHeader = []string{
	"name",
	"price",
	"price_string",
	"url",
	"images",
	"specs",
	"category",
	"total_stock",
	"slug",
	"updated_at",
}

// ExportProductsToCSV writes every stored product matching filter to w and
// returns how many rows were written.
func (app *Crawler) ExportProductsToCSV(ctx context.Context, w io.Writer, filter map[string]interface{}) (int, error) {
	if app.repository == nil {
		return 0, ErrNotStarted
	}
	products, err := app.repository.FindProducts(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to load products: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(productCsvHeader); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	written := 0
	for _, product := range products {
		row, err := productRow(product)
		if err != nil {
			app.Logger.Error("Error converting product %s to CSV: %v", product.Url, err)
			continue
		}
		if err := writer.Write(row); err != nil {
			return written, fmt.Errorf("failed to write record to CSV: %w", err)
		}
		written++
	}

	writer.Flush()
	return written, writer.Error()
}

// ExportProductsToFile writes the export to storage/exports/<site>/<date>_<site>.csv.
func (app *Crawler) ExportProductsToFile(ctx context.Context, filter map[string]interface{}) (string, int, error) {
	fileName := generateCsvFileName(app.Config.EnvString("EXPORT_DIR", filepath.Join("storage", "exports")), app.Name)
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fileName)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	n, err := app.ExportProductsToCSV(ctx, file, filter)
	if err != nil {
		return fileName, n, err
	}
	app.Logger.Info("Exported %d products to %s", n, fileName)
	return fileName, n, nil
}

func productRow(product Product) ([]string, error) {
	images, err := json.Marshal(product.Images)
	if err != nil {
		return nil, fmt.Errorf("error marshalling images: %w", err)
	}
	specs, err := json.Marshal(product.Specs)
	if err != nil {
		return nil, fmt.Errorf("error marshalling specs: %w", err)
	}

	updatedAt := ""
	if !product.UpdatedAt.IsZero() {
		updatedAt = product.UpdatedAt.Format(time.RFC3339)
	}

	return []string{
		product.Name,
		strconv.FormatInt(product.Price, 10),
		product.PriceString,
		product.Url,
		processEncodedString(string(images)),
		processEncodedString(string(specs)),
		product.Category,
		strconv.Itoa(product.TotalStock),
		product.Slug,
		updatedAt,
	}, nil
}

func processEncodedString(text string) string {
	replacer := strings.NewReplacer("\\u003e", ">", "\\u003c", "<", "\\u0026", "&")
	return replacer.Replace(text)
}

func generateCsvFileName(directory, siteName string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(directory, siteName, fmt.Sprintf("%s_%s.csv", currentDate, siteName))
}
