package schemas

import (
	"time"

	"llm-scoring/internal/ledger"
	"llm-scoring/internal/session"
)

type CreateSessionResponse struct {
	SessionID    string           `json:"session_id"`
	SessionToken string           `json:"session_token"`
	View         session.PageView `json:"view"`
}

type PageRequest struct {
	Page *int `json:"page"`
}

type ScoreRequest struct {
	RowIndex *int `json:"row_index"`
	Score    *int `json:"score"`
}

// EventResponse is returned by every state transition endpoint.
type EventResponse struct {
	Notice *session.Notice  `json:"notice,omitempty"`
	Result *ledger.Result   `json:"result,omitempty"`
	Update bool             `json:"update,omitempty"`
	View   session.PageView `json:"view"`
}

type CreateExportResponse struct {
	ExportID   string `json:"export_id"`
	EntryCount int    `json:"entry_count"`
}

type ExportOut struct {
	ExportID   string    `json:"export_id"`
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	EntryCount int       `json:"entry_count"`
	ObjectRef  string    `json:"object_ref,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
