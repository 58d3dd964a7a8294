package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/spboyer/thinkroute/internal/models"
)

// Row represents a single CSV row with column name to value mapping.
type Row map[string]string

// LoadCSV reads labeled examples from a CSV file. The header row must
// name a question column and an expected_mode (or mode) column; id and
// answer are optional.
func LoadCSV(path string) ([]models.LabeledExample, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	examples := make([]models.LabeledExample, 0, len(rows))
	for i, row := range rows {
		rawMode := row["expected_mode"]
		if rawMode == "" {
			rawMode = row["mode"]
		}
		rec := record{
			ID:           row["id"],
			Question:     row["question"],
			Answer:       row["answer"],
			ExpectedMode: rawMode,
		}
		ex, err := rec.toExample(models.ModeUnknown)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", i+2, err)
		}
		if ex.ID == "" {
			ex.ID = fmt.Sprintf("row-%03d", i+1)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

// readRows returns rows as maps of lower-cased column name to value. The
// first row is treated as headers.
func readRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if !contains(headers, "question") {
		return nil, fmt.Errorf("csv: %s has no question column", path)
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(headers) {
			return nil, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(record), len(headers))
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
