package http

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"llm-scoring/internal/auth"
	"llm-scoring/internal/db"
	"llm-scoring/internal/ledger"
	"llm-scoring/internal/logger"
	"llm-scoring/internal/metrics"
	"llm-scoring/internal/schemas"
	"llm-scoring/internal/session"
	"llm-scoring/internal/worker"
)

const exportFileName = "llm_scoring_results.csv"

type Server struct {
	App      *session.App
	Sessions session.Store
	APIToken string
	DB       *sqlx.DB      // optional, needed for exports
	Asynq    *asynq.Client // optional, needed for exports

	// one transition at a time: get, apply and put never interleave
	mu sync.Mutex
}

func NewServer(addr string, s *Server) *http.Server {
	return &http.Server{Addr: addr, Handler: s.Routes()}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	// Admin/API-token protected
	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(s.APIToken))
		r.Post("/sessions", s.createSession)
		r.Get("/exports/{id}", s.getExport)
	})

	// Session token (uses Authorization: Bearer <session_token>)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Post("/page", s.changePage)
		r.Post("/scores", s.changeScore)
		r.Post("/save", s.save)
		r.Post("/save-all", s.saveAll)
		r.Get("/summary", s.summary)
		r.Get("/export.csv", s.downloadCSV)
		r.Post("/exports", s.createExport)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if s.DB != nil {
			if err := s.DB.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	return r
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	token := uuid.NewString()
	st := s.App.NewState(id, auth.HashToken(token))

	s.mu.Lock()
	err := s.Sessions.Put(r.Context(), st)
	s.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	metrics.SessionsCreated.Inc()
	logger.Info("session created", zap.String("session_id", id))
	writeJSON(w, http.StatusOK, schemas.CreateSessionResponse{SessionID: id, SessionToken: token, View: s.App.View(st)})
}

// load fetches the session named in the URL and checks its bearer token.
// Callers must hold s.mu.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (session.State, bool) {
	tok, ok := auth.Bearer(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errResp{"missing bearer"})
		return session.State{}, false
	}
	st, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, session.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errResp{"session not found"})
		return session.State{}, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return session.State{}, false
	}
	if !auth.Matches(tok, st.TokenHash) {
		writeJSON(w, http.StatusUnauthorized, errResp{"unauthorized"})
		return session.State{}, false
	}
	return st, true
}

// transition runs one event against the stored session and persists the
// resulting state.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, ev session.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.load(w, r)
	if !ok {
		return
	}
	next, out, err := s.App.Apply(st, ev)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, session.ErrPageOutOfRange) || errors.Is(err, session.ErrRowOutOfRange) || errors.Is(err, session.ErrInvalidScore) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, errResp{err.Error()})
		return
	}
	if err := s.Sessions.Put(r.Context(), next); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	observe(ev, out)

	view := s.App.View(next)
	resp := schemas.EventResponse{Notice: out.Notice, Result: out.Result, Update: out.Update, View: view}
	if resp.Notice == nil {
		resp.Notice = view.Notice
	}
	writeJSON(w, http.StatusOK, resp)
}

func observe(ev session.Event, out session.Outcome) {
	var mode string
	switch ev.(type) {
	case session.ScoreChange:
		metrics.ScoresRecorded.Inc()
		return
	case session.Save:
		mode = "page"
	case session.SaveAll:
		mode = "all"
	default:
		return
	}
	if out.Result == nil || out.Result.Touched == 0 {
		metrics.EmptySaves.WithLabelValues(mode).Inc()
		return
	}
	metrics.ScoresSaved.WithLabelValues(mode, "appended").Add(float64(out.Result.Appended))
	metrics.ScoresSaved.WithLabelValues(mode, "replaced").Add(float64(out.Result.Replaced))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.App.View(st))
}

func (s *Server) changePage(w http.ResponseWriter, r *http.Request) {
	var req schemas.PageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	if req.Page == nil {
		writeJSON(w, http.StatusBadRequest, errResp{"page is required"})
		return
	}
	s.transition(w, r, session.PageChange{Page: *req.Page})
}

func (s *Server) changeScore(w http.ResponseWriter, r *http.Request) {
	var req schemas.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	if req.RowIndex == nil || req.Score == nil {
		writeJSON(w, http.StatusBadRequest, errResp{"row_index and score are required"})
		return
	}
	s.transition(w, r, session.ScoreChange{RowIndex: *req.RowIndex, Score: *req.Score})
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, session.Save{})
}

func (s *Server) saveAll(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, session.SaveAll{})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st, ok := s.load(w, r)
	s.mu.Unlock()
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ledger.Summarize(st.Ledger.Entries()))
}

func (s *Server) downloadCSV(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st, ok := s.load(w, r)
	s.mu.Unlock()
	if !ok {
		return
	}
	entries := st.Ledger.Entries()
	if len(entries) == 0 {
		writeJSON(w, http.StatusNotFound, errResp{"Score some responses to enable downloads"})
		return
	}
	var buf bytes.Buffer
	if err := ledger.WriteCSV(&buf, entries); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// createExport snapshots the exportable ledger into Postgres and queues the
// CSV upload.
func (s *Server) createExport(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil || s.Asynq == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{"exports are not configured"})
		return
	}
	s.mu.Lock()
	st, ok := s.load(w, r)
	s.mu.Unlock()
	if !ok {
		return
	}
	entries := st.Ledger.Entries()
	if len(entries) == 0 {
		writeJSON(w, http.StatusBadRequest, errResp{"no saved scores to export"})
		return
	}

	id, err := db.InsertExport(r.Context(), s.DB, st.ID, entries)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	if _, err := s.Asynq.EnqueueContext(r.Context(), worker.NewExportTask(id), asynq.MaxRetry(0)); err != nil {
		_ = db.MarkFailed(r.Context(), s.DB, id, err)
		metrics.Exports.WithLabelValues(db.ExportFailed).Inc()
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	metrics.Exports.WithLabelValues(db.ExportPending).Inc()
	logger.Info("export enqueued", zap.String("export_id", id), zap.String("session_id", st.ID), zap.Int("entries", len(entries)))
	writeJSON(w, http.StatusOK, schemas.CreateExportResponse{ExportID: id, EntryCount: len(entries)})
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{"exports are not configured"})
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusNotFound, errResp{"not found"})
		return
	}
	e, err := db.GetExport(r.Context(), s.DB, id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, errResp{"not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, schemas.ExportOut{
		ExportID:   e.ID,
		SessionID:  e.SessionID,
		Status:     e.Status,
		EntryCount: e.EntryCount,
		ObjectRef:  e.ObjectRef.String,
		Error:      e.Error.String,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	})
}
