package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// CSVHeader is the column order of exported score files.
var CSVHeader = []string{"row_index", "question_id", "llm", "score", "page"}

// WriteCSV writes one row per entry under CSVHeader.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		rec := []string{
			strconv.Itoa(e.RowIndex),
			e.QuestionID,
			e.LLM,
			strconv.Itoa(e.Score),
			strconv.Itoa(e.Page),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.RowIndex, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type ModelSummary struct {
	LLM   string  `json:"llm"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

type Summary struct {
	Count   int            `json:"count"`
	Mean    float64        `json:"mean"`
	ByModel []ModelSummary `json:"by_model"`
}

// Summarize aggregates scores per model, sorted by model name.
func Summarize(entries []Entry) Summary {
	var s Summary
	totals := map[string]int{}
	counts := map[string]int{}
	sum := 0
	for _, e := range entries {
		totals[e.LLM] += e.Score
		counts[e.LLM]++
		sum += e.Score
	}
	s.Count = len(entries)
	if s.Count > 0 {
		s.Mean = float64(sum) / float64(s.Count)
	}
	s.ByModel = make([]ModelSummary, 0, len(counts))
	for m, n := range counts {
		s.ByModel = append(s.ByModel, ModelSummary{LLM: m, Count: n, Mean: float64(totals[m]) / float64(n)})
	}
	sort.Slice(s.ByModel, func(i, j int) bool { return s.ByModel[i].LLM < s.ByModel[j].LLM })
	return s
}
