package session

import (
	"time"

	"llm-scoring/internal/dataset"
	"llm-scoring/internal/ledger"
	"llm-scoring/internal/pager"
)

// State is everything one labeling session owns. It is passed into and
// returned from transitions; nothing about a session lives outside it.
type State struct {
	ID        string         `json:"id"`
	TokenHash string         `json:"token_hash"`
	Page      int            `json:"page"`
	Ledger    *ledger.Ledger `json:"ledger"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s State) Clone() State {
	c := s
	if s.Ledger != nil {
		c.Ledger = s.Ledger.Clone()
	} else {
		c.Ledger = ledger.New()
	}
	return c
}

// App holds the read-only collaborators shared by every session.
type App struct {
	Dataset *dataset.Dataset
	Pager   pager.Pager
	Now     func() time.Time
}

func NewApp(d *dataset.Dataset, p pager.Pager) *App {
	return &App{Dataset: d, Pager: p, Now: time.Now}
}

func (a *App) TotalPages() int {
	return a.Pager.TotalPages(a.Dataset.Len())
}

// NewState opens a session on the first page, with its rows carrying default
// scores the same way a page change does.
func (a *App) NewState(id, tokenHash string) State {
	now := a.now()
	st := State{
		ID:        id,
		TokenHash: tokenHash,
		Ledger:    ledger.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.recordDefaults(&st)
	return st
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

// pageKeys returns the visible rows of page and their ledger keys.
func (a *App) pageKeys(page int) ([]int, []ledger.Key) {
	rows := a.Pager.Rows(page, a.Dataset.Len())
	keys := make([]ledger.Key, 0, len(rows))
	for _, i := range rows {
		r, _ := a.Dataset.Row(i)
		keys = append(keys, ledger.Key{QuestionID: r.QuestionID, LLM: r.LLM})
	}
	return rows, keys
}

// recordDefaults gives every visible row without a recorded score the
// default score.
func (a *App) recordDefaults(st *State) {
	rows, keys := a.pageKeys(st.Page)
	for i, k := range keys {
		if _, ok := st.Ledger.Recorded(k); ok {
			continue
		}
		st.Ledger.Record(ledger.Entry{
			RowIndex:   rows[i],
			QuestionID: k.QuestionID,
			LLM:        k.LLM,
			Score:      ledger.DefaultScore,
			Page:       st.Page,
		})
	}
}
