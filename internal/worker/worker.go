package worker

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"llm-scoring/internal/db"
	"llm-scoring/internal/ledger"
	"llm-scoring/internal/logger"
	"llm-scoring/internal/metrics"
	"llm-scoring/internal/storage"
)

const TaskExportScores = "export_scores"

// NewExportTask queues the CSV upload of one export snapshot.
func NewExportTask(exportID string) *asynq.Task {
	return asynq.NewTask(TaskExportScores, []byte(exportID))
}

type Uploader interface {
	PutCSV(ctx context.Context, key string, body []byte) (string, error)
}

// ExportStore loads export snapshots and records their upload status.
type ExportStore interface {
	Entries(ctx context.Context, id string) ([]ledger.Entry, error)
	MarkUploaded(ctx context.Context, id, ref string) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

type Server struct {
	Exports ExportStore
	S3      Uploader
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskExportScores, s.handleExport)
	return mux
}

func ObjectKey(exportID string) string {
	return fmt.Sprintf("exports/%s.csv", exportID)
}

// RenderCSV renders a snapshot in the download format.
func RenderCSV(entries []ledger.Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := ledger.WriteCSV(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleExport(ctx context.Context, t *asynq.Task) error {
	id := string(t.Payload())
	logger.Info("starting export", zap.String("export_id", id))

	entries, err := s.Exports.Entries(ctx, id)
	if err != nil {
		return s.fail(ctx, id, fmt.Errorf("load entries: %w", err))
	}
	logger.Info("loaded export entries", zap.String("export_id", id), zap.Int("entries", len(entries)))

	ref, err := s.upload(ctx, id, entries)
	if err != nil {
		return s.fail(ctx, id, err)
	}
	if err := s.Exports.MarkUploaded(ctx, id, ref); err != nil {
		return s.fail(ctx, id, fmt.Errorf("mark uploaded: %w", err))
	}
	metrics.Exports.WithLabelValues(db.ExportUploaded).Inc()
	logger.Info("export uploaded", zap.String("export_id", id), zap.String("ref", ref))
	return nil
}

// fail persists cause on the export and acknowledges the task. It returns an
// error only when the failure itself cannot be recorded.
func (s *Server) fail(ctx context.Context, id string, cause error) error {
	logger.Error("export failed", zap.String("export_id", id), zap.Error(cause))
	metrics.Exports.WithLabelValues(db.ExportFailed).Inc()
	if err := s.Exports.MarkFailed(ctx, id, cause); err != nil {
		logger.Error("mark export failed", zap.String("export_id", id), zap.Error(err))
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

func (s *Server) upload(ctx context.Context, id string, entries []ledger.Entry) (string, error) {
	body, err := RenderCSV(entries)
	if err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}
	ref, err := s.S3.PutCSV(ctx, ObjectKey(id), body)
	if err != nil {
		return "", fmt.Errorf("upload csv: %w", err)
	}
	return ref, nil
}

func Run(addr string, dbx *sqlx.DB, s3c *storage.Client) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: addr}, asynq.Config{Concurrency: 5})
	w := &Server{Exports: db.Exports{DB: dbx}, S3: s3c}
	return srv.Run(w.mux())
}
