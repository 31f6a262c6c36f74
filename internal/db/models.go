package db

import (
	"database/sql"
	"time"
)

const (
	ExportPending  = "pending"
	ExportUploaded = "uploaded"
	ExportFailed   = "failed"
)

type Export struct {
	ID         string         `db:"id"`
	SessionID  string         `db:"session_id"`
	Status     string         `db:"status"`
	EntryCount int            `db:"entry_count"`
	ObjectRef  sql.NullString `db:"object_ref"`
	Error      sql.NullString `db:"error"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type ExportEntry struct {
	ExportID   string `db:"export_id"`
	Seq        int    `db:"seq"`
	RowIndex   int    `db:"row_index"`
	QuestionID string `db:"question_id"`
	LLM        string `db:"llm"`
	Score      int    `db:"score"`
	Page       int    `db:"page"`
}
