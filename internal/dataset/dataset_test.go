package dataset

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `question_id,question_text,llm,response,extra
1,"What is 2+2?",gpt,"4",x
 2 ,"Capital of France?", claude ,"Paris, of course",y
`

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", d.Len())
	}
	r, ok := d.Row(1)
	if !ok {
		t.Fatal("row 1 missing")
	}
	if r.QuestionID != "2" || r.LLM != "claude" || r.Response != "Paris, of course" {
		t.Fatalf("unexpected row: %+v", r)
	}
	if _, ok := d.Row(2); ok {
		t.Fatal("row 2 should be out of range")
	}
	if _, ok := d.Row(-1); ok {
		t.Fatal("row -1 should be out of range")
	}
}

func TestParseMissingColumns(t *testing.T) {
	cases := map[string]string{
		"question_id":   "llm,question_text,response\ngpt,q,r\n",
		"llm":           "question_id,question_text,response\n1,q,r\n",
		"question_text": "question_id,llm,response\n1,gpt,r\n",
		"response":      "question_id,llm,question_text\n1,gpt,q\n",
	}
	for col, input := range cases {
		_, err := Parse(strings.NewReader(input))
		var mc *MissingColumnError
		if !errors.As(err, &mc) {
			t.Fatalf("%s: expected MissingColumnError, got %v", col, err)
		}
		if mc.Column != col {
			t.Fatalf("expected missing %q, got %q", col, mc.Column)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "question_id,llm,question_text,response\n"} {
		if _, err := Parse(strings.NewReader(input)); !errors.Is(err, ErrEmpty) {
			t.Fatalf("Parse(%q): expected ErrEmpty, got %v", input, err)
		}
	}
}

func TestParseShortRecord(t *testing.T) {
	d, err := Parse(strings.NewReader("question_id,llm,question_text,response\nQ1,gpt\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r, _ := d.Row(0)
	if r.QuestionID != "Q1" || r.Response != "" {
		t.Fatalf("unexpected row: %+v", r)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", d.Len())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}
}

type fakeFetcher struct {
	body string
	err  error
	ref  string
}

func (f *fakeFetcher) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f.ref = ref
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func TestLoadFromObjectStorage(t *testing.T) {
	f := &fakeFetcher{body: sample}
	d, err := LoadFrom(context.Background(), "s3://datasets/responses.csv", f)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if f.ref != "s3://datasets/responses.csv" || d.Len() != 2 {
		t.Fatalf("unexpected fetch: ref=%q rows=%d", f.ref, d.Len())
	}

	f = &fakeFetcher{err: errors.New("NoSuchKey")}
	if _, err := LoadFrom(context.Background(), "s3://datasets/missing.csv", f); !errors.Is(err, ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}
	if _, err := LoadFrom(context.Background(), "s3://datasets/x.csv", nil); err == nil {
		t.Fatal("expected error without fetcher")
	}
}
