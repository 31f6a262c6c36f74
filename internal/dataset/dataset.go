package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const (
	ColQuestionID   = "question_id"
	ColLLM          = "llm"
	ColQuestionText = "question_text"
	ColResponse     = "response"
)

// RequiredColumns lists the columns every input file must carry.
var RequiredColumns = []string{ColQuestionID, ColLLM, ColQuestionText, ColResponse}

var (
	ErrMissingFile = errors.New("dataset file not found")
	ErrEmpty       = errors.New("no data available")
)

type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("CSV file must contain a '%s' column", e.Column)
}

// Row is one model response to one question.
type Row struct {
	QuestionID   string `json:"question_id"`
	QuestionText string `json:"question_text"`
	LLM          string `json:"llm"`
	Response     string `json:"response"`
}

// Dataset is the immutable, file-ordered list of rows.
type Dataset struct {
	rows []Row
}

func New(rows []Row) *Dataset {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Dataset{rows: cp}
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

func (d *Dataset) Row(i int) (Row, bool) {
	if d == nil || i < 0 || i >= len(d.rows) {
		return Row{}, false
	}
	return d.rows[i], true
}

// Parse reads a CSV with a header row. Columns may appear in any order and
// unknown columns are ignored.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, &MissingColumnError{Column: col}
		}
	}

	cell := func(rec []string, col string) string {
		i := pos[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		rows = append(rows, Row{
			QuestionID:   strings.TrimSpace(cell(rec, ColQuestionID)),
			QuestionText: cell(rec, ColQuestionText),
			LLM:          strings.TrimSpace(cell(rec, ColLLM)),
			Response:     cell(rec, ColResponse),
		})
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return &Dataset{rows: rows}, nil
}

// Load parses a local CSV file.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Fetcher opens remote dataset objects addressed by s3:// refs.
type Fetcher interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// LoadFrom loads path from object storage when it is an s3:// ref and from the
// local filesystem otherwise.
func LoadFrom(ctx context.Context, path string, f Fetcher) (*Dataset, error) {
	if !strings.HasPrefix(path, "s3://") {
		return Load(path)
	}
	if f == nil {
		return nil, fmt.Errorf("dataset %s: object storage is not configured", path)
	}
	rc, err := f.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingFile, path, err)
	}
	defer rc.Close()
	d, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
