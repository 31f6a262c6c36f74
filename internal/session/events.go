package session

import (
	"errors"
	"fmt"

	"llm-scoring/internal/ledger"
)

var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrRowOutOfRange  = errors.New("row out of range")
	ErrInvalidScore   = fmt.Errorf("score must be between %d and %d", ledger.MinScore, ledger.MaxScore)
	ErrUnknownEvent   = errors.New("unknown event")
)

type Event interface {
	event()
}

type PageChange struct {
	Page int
}

type ScoreChange struct {
	RowIndex int
	Score    int
}

type Save struct{}

type SaveAll struct{}

func (PageChange) event()  {}
func (ScoreChange) event() {}
func (Save) event()        {}
func (SaveAll) event()     {}

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Outcome is what a transition reports back besides the new state.
type Outcome struct {
	Notice *Notice        `json:"notice,omitempty"`
	Result *ledger.Result `json:"result,omitempty"`
	// Update is true when a page save overwrote an already saved page.
	Update bool `json:"update,omitempty"`
}

// Apply runs one event against a copy of st. st itself is never modified;
// on error the returned state is the zero value.
func (a *App) Apply(st State, ev Event) (State, Outcome, error) {
	switch e := ev.(type) {
	case PageChange:
		return a.OnPageChange(st, e.Page)
	case ScoreChange:
		return a.OnScoreChange(st, e.RowIndex, e.Score)
	case Save:
		return a.OnSave(st)
	case SaveAll:
		return a.OnSaveAll(st)
	default:
		return State{}, Outcome{}, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

func (a *App) OnPageChange(st State, page int) (State, Outcome, error) {
	if page < 0 || page >= a.TotalPages() {
		return State{}, Outcome{}, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, page, a.TotalPages())
	}
	next := st.Clone()
	next.Page = page
	a.recordDefaults(&next)
	next.UpdatedAt = a.now()

	var out Outcome
	if rows, _ := a.pageKeys(page); len(rows) == 0 {
		out.Notice = &Notice{Level: LevelWarning, Message: "No responses to display on this page."}
	}
	return next, out, nil
}

func (a *App) OnScoreChange(st State, row, score int) (State, Outcome, error) {
	r, ok := a.Dataset.Row(row)
	if !ok {
		return State{}, Outcome{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if !ledger.ValidScore(score) {
		return State{}, Outcome{}, fmt.Errorf("%w: got %d", ErrInvalidScore, score)
	}
	next := st.Clone()
	next.Ledger.Record(ledger.Entry{
		RowIndex:   row,
		QuestionID: r.QuestionID,
		LLM:        r.LLM,
		Score:      score,
		Page:       a.Pager.PageOf(row),
	})
	next.UpdatedAt = a.now()
	return next, Outcome{}, nil
}

// OnSave flushes the current page's scores into the exportable ledger.
func (a *App) OnSave(st State) (State, Outcome, error) {
	next := st.Clone()
	_, keys := a.pageKeys(next.Page)
	update := next.Ledger.AllSaved(keys)
	res := next.Ledger.Save(keys...)
	next.UpdatedAt = a.now()

	out := Outcome{Result: &res, Update: update}
	switch {
	case res.Touched == 0:
		out.Notice = &Notice{Level: LevelInfo, Message: "No scores to save."}
	case update:
		out.Notice = &Notice{Level: LevelSuccess, Message: fmt.Sprintf("Updated %d scores!", res.Touched)}
	default:
		out.Notice = &Notice{Level: LevelSuccess, Message: fmt.Sprintf("Saved %d scores!", res.Touched)}
	}
	return next, out, nil
}

// OnSaveAll flushes every recorded score that has not been saved yet.
func (a *App) OnSaveAll(st State) (State, Outcome, error) {
	next := st.Clone()
	res := next.Ledger.SaveAllUnsaved()
	next.UpdatedAt = a.now()

	out := Outcome{Result: &res}
	if res.Touched > 0 {
		out.Notice = &Notice{Level: LevelSuccess, Message: fmt.Sprintf("Saved %d scores!", res.Touched)}
	} else {
		out.Notice = &Notice{Level: LevelInfo, Message: "No unsaved scores to save."}
	}
	return next, out, nil
}
