// Package dataset loads labeled routing examples.
//
// The standard layout is one directory per expected mode (see
// models.Mode.DatasetDir), each holding JSONL files of
// {"question": ..., "answer": ...} records. The directory supplies the
// label for every record in it.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spboyer/thinkroute/internal/models"
)

// DefaultFileName is the JSONL file name inside each mode partition.
const DefaultFileName = "training_examples.jsonl"

// record is one JSONL line. ExpectedMode is only read from flat files;
// inside a partition the directory wins.
type record struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	ExpectedMode string `json:"expected_mode"`
}

// Load reads examples from path: a partitioned directory, a .jsonl file
// with expected_mode on every line, or a .csv file.
func Load(path string) ([]models.LabeledExample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return LoadJSONL(path, models.ModeUnknown)
	case ".csv":
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("dataset: unsupported file type %q (want a directory, .jsonl or .csv)", filepath.Ext(path))
	}
}

// LoadDir reads every mode partition under root in CanonicalModes order.
// Missing partitions are skipped; a root with no examples at all is an
// error.
func LoadDir(root string) ([]models.LabeledExample, error) {
	var examples []models.LabeledExample
	for _, mode := range models.CanonicalModes {
		dir := filepath.Join(root, mode.DatasetDir())
		files, err := partitionFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			loaded, err := LoadJSONL(f, mode)
			if err != nil {
				return nil, err
			}
			examples = append(examples, loaded...)
		}
	}

	if len(examples) == 0 {
		return nil, fmt.Errorf("dataset: no labeled examples found under %s", root)
	}
	return examples, nil
}

// partitionFiles lists the JSONL files in dir, DefaultFileName first.
func partitionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jsonl") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		if (names[i] == DefaultFileName) != (names[j] == DefaultFileName) {
			return names[i] == DefaultFileName
		}
		return names[i] < names[j]
	})

	files := make([]string, len(names))
	for i, n := range names {
		files[i] = filepath.Join(dir, n)
	}
	return files, nil
}

// LoadJSONL reads one JSONL file. When mode is canonical every record is
// labeled with it; otherwise each record must carry a routable
// expected_mode. Blank lines are ignored. IDs default to
// "<partition>-<line>".
func LoadJSONL(path string, mode models.Mode) ([]models.LabeledExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if mode.IsCanonical() {
		prefix = mode.DatasetDir()
	}

	var examples []models.LabeledExample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("dataset: %s line %d: %w", path, lineNum, err)
		}
		ex, err := rec.toExample(mode)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s line %d: %w", path, lineNum, err)
		}
		if ex.ID == "" {
			ex.ID = fmt.Sprintf("%s-%03d", prefix, lineNum)
		}
		examples = append(examples, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", path, err)
	}
	return examples, nil
}

func (r record) toExample(mode models.Mode) (models.LabeledExample, error) {
	if strings.TrimSpace(r.Question) == "" {
		return models.LabeledExample{}, errors.New("missing question")
	}
	if !mode.IsCanonical() {
		mode = models.ParseMode(r.ExpectedMode)
		if !mode.IsCanonical() {
			return models.LabeledExample{}, fmt.Errorf("expected_mode %q is not a routable mode", r.ExpectedMode)
		}
	}
	return models.LabeledExample{
		ID:           r.ID,
		Question:     r.Question,
		ExpectedMode: mode,
		Answer:       r.Answer,
	}, nil
}

// Counts returns how many examples expect each mode.
func Counts(examples []models.LabeledExample) map[models.Mode]int {
	counts := map[models.Mode]int{}
	for _, ex := range examples {
		counts[ex.ExpectedMode]++
	}
	return counts
}

// WritePartitioned writes examples under root in the partitioned layout,
// one DefaultFileName per mode. Existing partition files are replaced.
func WritePartitioned(root string, examples []models.LabeledExample) error {
	byMode := map[models.Mode][]models.LabeledExample{}
	for _, ex := range examples {
		if !ex.ExpectedMode.IsCanonical() {
			return &models.InvalidInputError{Field: "expected_mode", Reason: fmt.Sprintf("example %q has non-routable mode %q", ex.ID, string(ex.ExpectedMode))}
		}
		byMode[ex.ExpectedMode] = append(byMode[ex.ExpectedMode], ex)
	}

	for _, mode := range models.CanonicalModes {
		batch := byMode[mode]
		if len(batch) == 0 {
			continue
		}
		dir := filepath.Join(root, mode.DatasetDir())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: creating %s: %w", dir, err)
		}

		var sb strings.Builder
		for _, ex := range batch {
			data, err := json.Marshal(record{ID: ex.ID, Question: ex.Question, Answer: ex.Answer})
			if err != nil {
				return err
			}
			sb.Write(data)
			sb.WriteByte('\n')
		}
		if err := os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(sb.String()), 0o644); err != nil {
			return fmt.Errorf("dataset: writing %s: %w", dir, err)
		}
	}
	return nil
}
