package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"llm-scoring/internal/ledger"
)

// InsertExport snapshots entries for a session in one transaction and
// returns the new export id.
func InsertExport(ctx context.Context, dbx *sqlx.DB, sessionID string, entries []ledger.Entry) (string, error) {
	id := uuid.NewString()
	err := WithTx(ctx, dbx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`insert into exports(id, session_id, status, entry_count) values($1,$2,$3,$4)`,
			id, sessionID, ExportPending, len(entries),
		); err != nil {
			return fmt.Errorf("insert export: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		rows := ToRows(id, entries)
		if _, err := tx.NamedExecContext(ctx,
			`insert into export_entries(export_id, seq, row_index, question_id, llm, score, page)
			 values(:export_id, :seq, :row_index, :question_id, :llm, :score, :page)`,
			rows,
		); err != nil {
			return fmt.Errorf("insert export entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func GetExport(ctx context.Context, dbx *sqlx.DB, id string) (Export, error) {
	var e Export
	err := dbx.GetContext(ctx, &e, `select * from exports where id=$1`, id)
	return e, err
}

// ExportEntries returns the snapshot rows of an export in save order.
func ExportEntries(ctx context.Context, dbx *sqlx.DB, id string) ([]ledger.Entry, error) {
	var rows []ExportEntry
	if err := dbx.SelectContext(ctx, &rows,
		`select * from export_entries where export_id=$1 order by seq`, id,
	); err != nil {
		return nil, err
	}
	return FromRows(rows), nil
}

func MarkUploaded(ctx context.Context, dbx *sqlx.DB, id, ref string) error {
	_, err := dbx.ExecContext(ctx,
		`update exports set status=$2, object_ref=$3, error=null, updated_at=now() where id=$1`,
		id, ExportUploaded, ref,
	)
	return err
}

func MarkFailed(ctx context.Context, dbx *sqlx.DB, id string, cause error) error {
	_, err := dbx.ExecContext(ctx,
		`update exports set status=$2, error=$3, updated_at=now() where id=$1`,
		id, ExportFailed, cause.Error(),
	)
	return err
}

func ToRows(exportID string, entries []ledger.Entry) []ExportEntry {
	rows := make([]ExportEntry, len(entries))
	for i, e := range entries {
		rows[i] = ExportEntry{
			ExportID:   exportID,
			Seq:        i,
			RowIndex:   e.RowIndex,
			QuestionID: e.QuestionID,
			LLM:        e.LLM,
			Score:      e.Score,
			Page:       e.Page,
		}
	}
	return rows
}

func FromRows(rows []ExportEntry) []ledger.Entry {
	out := make([]ledger.Entry, len(rows))
	for i, r := range rows {
		out[i] = ledger.Entry{
			RowIndex:   r.RowIndex,
			QuestionID: r.QuestionID,
			LLM:        r.LLM,
			Score:      r.Score,
			Page:       r.Page,
		}
	}
	return out
}

// Exports binds the export status queries to one database handle.
type Exports struct {
	DB *sqlx.DB
}

func (e Exports) Entries(ctx context.Context, id string) ([]ledger.Entry, error) {
	return ExportEntries(ctx, e.DB, id)
}

func (e Exports) MarkUploaded(ctx context.Context, id, ref string) error {
	return MarkUploaded(ctx, e.DB, id, ref)
}

func (e Exports) MarkFailed(ctx context.Context, id string, cause error) error {
	return MarkFailed(ctx, e.DB, id, cause)
}
