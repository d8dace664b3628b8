package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pricetrawl/internal/scrape"
	"pricetrawl/pkg/errors"
)

// XLSXContentType is the MIME type workbook downloads are served with
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column order the extract sheet prefers when the incoming rows carry these
// keys. Keys outside this list follow in the order of the first row.
var preferredColumns = []string{
	"image_url", "title", "original", "percent_off", "absolute_off", "final", "url", "source",
	"clean_title", "model", "compare_price", "delta", "delta_pct", "cost", "fees_pct",
	"target_margin_pct", "margin_pct", "profit", "recommended_price", "watchlisted",
}

// Columns used when there are no rows to derive headers from
var defaultColumns = []string{
	"image_url", "title", "original", "percent_off", "absolute_off", "final", "url", "source",
}

// Columns of the scheduled report artifacts
var reportColumns = []string{
	"image_url", "title", "original_formatted", "discounted_formatted", "url", "site",
}

// ExtractWorkbook renders arbitrary rows into a workbook with a single
// "Extract" sheet. Headers derive from the first row: preferred columns
// first, then the remaining keys in their original JSON order. Cells for
// missing keys stay blank.
func ExtractWorkbook(rawRows []json.RawMessage) ([]byte, error) {
	headers := defaultColumns
	if len(rawRows) > 0 {
		keys, err := objectKeys(rawRows[0])
		if err != nil {
			return nil, errors.NewExport("rows must be JSON objects", err)
		}
		headers = headerOrder(keys)
	}

	grid := make([][]any, 0, len(rawRows))
	for i, raw := range rawRows {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, errors.NewExport(fmt.Sprintf("row %d is not a JSON object", i), err)
		}
		cells := make([]any, len(headers))
		for j, key := range headers {
			if v, ok := row[key]; ok {
				cells[j] = v
			} else {
				cells[j] = ""
			}
		}
		grid = append(grid, cells)
	}

	return writeWorkbook("Extract", headers, grid)
}

// ItemsCSV renders scraped items as the scheduled report CSV
func ItemsCSV(items []scrape.Item) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportColumns); err != nil {
		return nil, errors.NewExport("failed to write csv header", err)
	}
	for _, it := range items {
		rec := []string{it.ImageURL, it.Title, it.OriginalFormatted, it.DiscountedFormatted, it.URL, it.Site}
		if err := w.Write(rec); err != nil {
			return nil, errors.NewExport("failed to write csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.NewExport("failed to flush csv", err)
	}
	return buf.Bytes(), nil
}

// ItemsWorkbook renders scraped items as the scheduled report workbook
func ItemsWorkbook(items []scrape.Item) ([]byte, error) {
	grid := make([][]any, 0, len(items))
	for _, it := range items {
		grid = append(grid, []any{it.ImageURL, it.Title, it.OriginalFormatted, it.DiscountedFormatted, it.URL, it.Site})
	}
	return writeWorkbook("Report", reportColumns, grid)
}

// headerOrder keeps the preferred columns that appear in keys first, then
// appends the remaining keys in their original order.
func headerOrder(keys []string) []string {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}

	headers := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range preferredColumns {
		if present[k] && !seen[k] {
			headers = append(headers, k)
			seen[k] = true
		}
	}
	for _, k := range keys {
		if !seen[k] {
			headers = append(headers, k)
			seen[k] = true
		}
	}
	return headers
}

// objectKeys returns the keys of a JSON object in document order, which
// decoding into a map would discard.
func objectKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func writeWorkbook(sheet string, headers []string, grid [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.NewExport("failed to name sheet", err)
	}

	headerCells := make([]any, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return nil, errors.NewExport("failed to write header row", err)
	}

	for i := range grid {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.NewExport("failed to address row", err)
		}
		if err := f.SetSheetRow(sheet, cell, &grid[i]); err != nil {
			return nil, errors.NewExport("failed to write row", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.NewExport("failed to serialize workbook", err)
	}
	return buf.Bytes(), nil
}
