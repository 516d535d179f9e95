package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
	"github.com/ternarybob/syllabus/internal/services/chat"
)

// Answerer is the query pipeline as seen by the HTTP layer
type Answerer interface {
	Answer(ctx context.Context, question string, sessionID string, onEvent func(*chat.StreamEvent)) (*chat.Generation, error)
	CourseAnalytics(ctx context.Context) (*models.CourseAnalytics, error)
}

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the answer to a QueryRequest
type QueryResponse struct {
	Answer     string          `json:"answer"`
	AnswerHTML string          `json:"answer_html,omitempty"`
	Sources    []models.Source `json:"sources"`
	SessionID  string          `json:"session_id"`
}

// QueryHandler serves the question answering and catalog endpoints
type QueryHandler struct {
	answerer Answerer
	sessions interfaces.SessionService
	renderer *MarkdownRenderer
	logger   arbor.ILogger
}

// NewQueryHandler creates a query handler
func NewQueryHandler(answerer Answerer, sessions interfaces.SessionService, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		answerer: answerer,
		sessions: sessions,
		renderer: NewMarkdownRenderer(),
		logger:   logger,
	}
}

// QueryHandler handles POST /api/query
func (h *QueryHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req QueryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode query request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.answer(r.Context(), &req, nil)
	if err != nil {
		if errors.Is(err, errEmptyQuery) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Query failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

// CoursesHandler handles GET /api/courses
func (h *QueryHandler) CoursesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	analytics, err := h.answerer.CourseAnalytics(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load course analytics")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, analytics)
}

var errEmptyQuery = errors.New("query is required")

// answer runs one query, creating a session when the request has none
func (h *QueryHandler) answer(ctx context.Context, req *QueryRequest, onEvent func(*chat.StreamEvent)) (*QueryResponse, error) {
	question := strings.TrimSpace(req.Query)
	if question == "" {
		return nil, errEmptyQuery
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.sessions.CreateSession()
	}

	gen, err := h.answerer.Answer(ctx, question, sessionID, onEvent)
	if err != nil {
		return nil, err
	}

	html, err := h.renderer.Render(gen.Answer)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to render answer markdown")
	}

	sources := gen.Sources
	if sources == nil {
		sources = []models.Source{}
	}

	return &QueryResponse{
		Answer:     gen.Answer,
		AnswerHTML: html,
		Sources:    sources,
		SessionID:  sessionID,
	}, nil
}
