// Package handler exposes the HTTP API: generation, notice management,
// mentoring, study sessions, and score history.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/editalmaster/editalmaster/internal/action"
	"github.com/editalmaster/editalmaster/internal/generate"
	"github.com/editalmaster/editalmaster/internal/i18n"
	"github.com/editalmaster/editalmaster/internal/llm"
	"github.com/editalmaster/editalmaster/internal/model"
	"github.com/editalmaster/editalmaster/internal/session"
	"github.com/editalmaster/editalmaster/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	gen      *generate.Service
	sessions *session.Manager
}

// New creates a new Handler.
func New(s *store.Store, g *generate.Service, m *session.Manager) *Handler {
	return &Handler{store: s, gen: g, sessions: m}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", h.handleGenerate)
		r.Post("/generate/stream", h.handleGenerateStream)
		r.Get("/models", h.handleListModels)

		r.Post("/notices", h.handleAnalyzeNotice)
		r.Get("/notices", h.handleListNotices)
		r.Get("/notices/{noticeID}", h.handleGetNotice)
		r.Delete("/notices/{noticeID}", h.handleDeleteNotice)
		r.Post("/notices/{noticeID}/guide", h.handleStudyGuide)
		r.Post("/notices/{noticeID}/mentor", h.handleMentor)
		r.Get("/notices/{noticeID}/mentor", h.handleMentorHistory)

		r.Post("/sessions", h.handleCreateSession)
		r.Get("/sessions/{sessionID}", h.handleGetSession)
		r.Post("/sessions/{sessionID}/answer", h.handleAnswer)
		r.Post("/sessions/{sessionID}/next", h.handleNext)
		r.Post("/sessions/{sessionID}/prev", h.handlePrev)
		r.Post("/sessions/{sessionID}/finish", h.handleFinish)
		r.Delete("/sessions/{sessionID}", h.handleRemoveSession)

		r.Get("/history", h.handleHistory)
	})
}

type generateRequest struct {
	Action      string   `json:"action"`
	Document    string   `json:"document,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Discipline  string   `json:"discipline,omitempty"`
	Disciplines []string `json:"disciplines,omitempty"`
	Query       string   `json:"query,omitempty"`
	Count       int      `json:"count,omitempty"`
}

func (g generateRequest) fields() action.Fields {
	return action.Fields{
		Document:    g.Document,
		Topic:       g.Topic,
		Discipline:  g.Discipline,
		Disciplines: g.Disciplines,
		Query:       g.Query,
		Count:       g.Count,
	}
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, action.ErrInvalidRequest)
		return
	}

	act, err := action.Parse(req.Action)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	raw, err := h.gen.Run(r.Context(), act, req.fields())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, raw)
}

func (h *Handler) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, action.ErrInvalidRequest)
		return
	}

	act, err := action.Parse(req.Action)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if act.Mode() != action.FreeText {
		h.writeError(w, r, generate.ErrNoStream)
		return
	}

	streamHeaders(w)
	if err := h.gen.RunStream(r.Context(), act, req.fields(), w); err != nil {
		if errors.Is(err, action.ErrInvalidRequest) {
			h.writeError(w, r, err)
			return
		}
		// The stream already carries the error envelope.
		slog.Error("stream failed", "action", act, "error", err)
	}
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	raw, err := h.gen.Run(r.Context(), action.ListModels, action.Fields{})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, raw)
}

func (h *Handler) handleAnalyzeNotice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Document string `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, action.ErrInvalidRequest)
		return
	}

	raw, err := h.gen.Run(r.Context(), action.FullProfile, action.Fields{Document: req.Document})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var notice model.ExamNotice
	if err := json.Unmarshal(raw, &notice); err != nil {
		h.writeError(w, r, &llm.ErrMalformedOutput{Raw: string(raw), Err: err})
		return
	}

	saved, err := h.store.SaveNotice(notice)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.store.ListNotices()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if notices == nil {
		notices = []model.ExamNotice{}
	}
	writeJSON(w, http.StatusOK, notices)
}

func (h *Handler) handleGetNotice(w http.ResponseWriter, r *http.Request) {
	notice, err := h.getNotice(w, r)
	if notice == nil || err != nil {
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

func (h *Handler) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	notice, err := h.getNotice(w, r)
	if notice == nil || err != nil {
		return
	}
	if err := h.store.DeleteNotice(notice.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStudyGuide(w http.ResponseWriter, r *http.Request) {
	notice, err := h.getNotice(w, r)
	if notice == nil || err != nil {
		return
	}

	var req struct {
		Discipline string `json:"discipline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, action.ErrInvalidRequest)
		return
	}

	raw, err := h.gen.Run(r.Context(), action.StudyGuide, action.Fields{Discipline: req.Discipline})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, raw)
}

func (h *Handler) handleMentor(w http.ResponseWriter, r *http.Request) {
	notice, err := h.getNotice(w, r)
	if notice == nil || err != nil {
		return
	}

	var req struct {
		Discipline string `json:"discipline"`
		Query      string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, action.ErrInvalidRequest)
		return
	}

	fields := action.Fields{Discipline: req.Discipline, Query: req.Query}

	// Tee the stream so a successful answer lands in the mentor history.
	var buf strings.Builder
	streamHeaders(w)
	err = h.gen.RunStream(r.Context(), action.Deepen, fields, teeWriter{w: w, buf: &buf})
	if err != nil {
		if errors.Is(err, action.ErrInvalidRequest) {
			h.writeError(w, r, err)
			return
		}
		slog.Error("mentor stream failed", "notice_id", notice.ID, "error", err)
		return
	}

	response := strings.TrimSpace(buf.String())
	if response == "" {
		return
	}
	if _, err := h.store.AppendMentorEntry(model.MentorEntry{
		NoticeID:   notice.ID,
		Discipline: req.Discipline,
		Query:      req.Query,
		Response:   response,
	}); err != nil {
		slog.Error("persist mentor entry", "notice_id", notice.ID, "error", err)
	}
}

func (h *Handler) handleMentorHistory(w http.ResponseWriter, r *http.Request) {
	notice, err := h.getNotice(w, r)
	if notice == nil || err != nil {
		return
	}

	entries, err := h.store.ListMentorEntries(notice.ID, r.URL.Query().Get("discipline"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.MentorEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NoticeID string `json:"noticeId"`
		Mode     string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, action.ErrInvalidRequest)
		return
	}

	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		h.writeError(w, r, action.ErrInvalidRequest)
		return
	}

	notice, err := h.store.GetNotice(req.NoticeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if notice == nil {
		h.writeNotFound(w, r, "ErrNoticeNotFound")
		return
	}
	if len(notice.Disciplines) == 0 {
		h.writeError(w, r, generate.ErrNoDisciplines)
		return
	}

	count := session.PracticeQuestions
	if mode == model.ModeExam {
		count = session.ExamQuestions
	}

	questions, err := h.gen.MockExam(r.Context(), notice.Disciplines, count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.sessions.Create(mode, notice.ID, notice.Name, questions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		Question int `json:"question"`
		Option   int `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, action.ErrInvalidRequest)
		return
	}

	feedback, err := sess.Answer(req.Question, req.Option)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Feedback *session.Feedback `json:"feedback,omitempty"`
		State    session.State     `json:"state"`
	}{Feedback: feedback, State: sess.Snapshot()})
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.Advance()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.Retreat()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Finish(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Get(chi.URLParam(r, "sessionID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.sessions.Remove(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListScores(r.URL.Query().Get("notice"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []model.ScoreRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// getNotice resolves the noticeID route parameter, writing the error
// response itself. A nil notice with nil error means 404 was already sent.
func (h *Handler) getNotice(w http.ResponseWriter, r *http.Request) (*model.ExamNotice, error) {
	notice, err := h.store.GetNotice(chi.URLParam(r, "noticeID"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, err
	}
	if notice == nil {
		h.writeNotFound(w, r, "ErrNoticeNotFound")
		return nil, nil
	}
	return notice, nil
}

func (h *Handler) writeNotFound(w http.ResponseWriter, r *http.Request, msgID string) {
	writeJSON(w, http.StatusNotFound, errorBody(r, msgID))
}

// writeError maps an error to a status code and a localized message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *llm.ErrMalformedOutput
	var exhausted *llm.ErrExhausted

	status := http.StatusInternalServerError
	msgID := "ErrInternal"

	switch {
	case errors.Is(err, action.ErrUnknownAction):
		status, msgID = http.StatusBadRequest, "ErrInvalidAction"
	case errors.Is(err, action.ErrInvalidRequest),
		errors.Is(err, session.ErrOutOfRange),
		errors.Is(err, generate.ErrNoStream),
		errors.Is(err, generate.ErrStreamOnly),
		errors.Is(err, session.ErrBadQuestionSet):
		status, msgID = http.StatusBadRequest, "ErrInvalidRequest"
	case errors.Is(err, session.ErrNotFound):
		status, msgID = http.StatusNotFound, "ErrSessionNotFound"
	case errors.Is(err, session.ErrFinished):
		status, msgID = http.StatusConflict, "ErrSessionFinished"
	case errors.Is(err, session.ErrLocked):
		status, msgID = http.StatusConflict, "ErrAnswerLocked"
	case errors.Is(err, generate.ErrNoDisciplines):
		status, msgID = http.StatusUnprocessableEntity, "ErrNoDisciplines"
	case errors.As(err, &malformed):
		status, msgID = http.StatusBadGateway, "ErrMalformedOutput"
	case errors.As(err, &exhausted):
		status, msgID = http.StatusServiceUnavailable, "ErrModelUnavailable"
	}

	if status >= 500 {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody(r, msgID))
}

func errorBody(r *http.Request, msgID string) map[string]string {
	return map[string]string{"error": i18n.T(r.Context(), msgID)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		slog.Error("write response", "error", err)
	}
}

func streamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}

// teeWriter forwards to the response while keeping a copy, preserving the
// http.Flusher behavior io.MultiWriter would hide.
type teeWriter struct {
	w   http.ResponseWriter
	buf *strings.Builder
}

func (t teeWriter) Write(p []byte) (int, error) {
	t.buf.Write(p)
	return t.w.Write(p)
}

func (t teeWriter) Flush() {
	if f, ok := t.w.(http.Flusher); ok {
		f.Flush()
	}
}
