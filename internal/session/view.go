package session

import (
	"llm-scoring/internal/dataset"
)

type RowView struct {
	RowIndex int `json:"row_index"`
	dataset.Row
	Score int  `json:"score"`
	Saved bool `json:"saved"`
}

// PageView is what the labeling form renders for the current page.
type PageView struct {
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Progress   float64   `json:"progress"`
	Rows       []RowView `json:"rows"`
	PageSaved  bool      `json:"page_saved"`
	HasPrev    bool      `json:"has_prev"`
	HasNext    bool      `json:"has_next"`
	SavedCount int       `json:"saved_count"`
	Notice     *Notice   `json:"notice,omitempty"`
}

func (a *App) View(st State) PageView {
	total := a.TotalPages()
	v := PageView{
		Page:       st.Page,
		TotalPages: total,
		HasPrev:    st.Page > 0,
		HasNext:    st.Page < total-1,
		Rows:       []RowView{},
	}
	if total > 1 {
		v.Progress = float64(st.Page) / float64(total-1)
	}
	if st.Ledger == nil {
		return v
	}
	v.SavedCount = len(st.Ledger.Entries())

	rows, keys := a.pageKeys(st.Page)
	for i, idx := range rows {
		r, _ := a.Dataset.Row(idx)
		rv := RowView{RowIndex: idx, Row: r}
		if e, ok := st.Ledger.Recorded(keys[i]); ok {
			rv.Score = e.Score
		}
		rv.Saved = st.Ledger.IsSaved(keys[i])
		v.Rows = append(v.Rows, rv)
	}
	v.PageSaved = st.Ledger.AllSaved(keys)
	if len(rows) == 0 {
		v.Notice = &Notice{Level: LevelWarning, Message: "No responses to display on this page."}
	}
	return v
}
