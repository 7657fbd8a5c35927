package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appConversation "github.com/opinionmap/opinionmap/internal/application/conversation"
	"github.com/opinionmap/opinionmap/internal/domain"
	"github.com/opinionmap/opinionmap/internal/domain/conversation"
	"github.com/opinionmap/opinionmap/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	conversationSvc *appConversation.Service
	sseHub          *sse.Hub
	defaults        conversation.Settings
	requestTimeout  time.Duration
	logger          zerolog.Logger
}

func NewServer(
	conversationSvc *appConversation.Service,
	sseHub *sse.Hub,
	defaults conversation.Settings,
	requestTimeout time.Duration,
	logger zerolog.Logger,
) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &Server{
		conversationSvc: conversationSvc,
		sseHub:          sseHub,
		defaults:        defaults,
		requestTimeout:  requestTimeout,
		logger:          logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)

	r.Route("/v1", func(r chi.Router) {
		// Streams outlive the request timeout.
		r.Get("/conversations/{conversationId}/stream", s.streamConversation)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", s.createConversation)
				r.Get("/", s.listConversations)
				r.Get("/{conversationId}", s.getConversation)
				r.Put("/{conversationId}/settings", s.updateSettings)

				r.Post("/{conversationId}/votes", s.recordVotes)
				r.Get("/{conversationId}/votes/counts", s.getVoteCounts)
				r.Get("/{conversationId}/votes/mismatches", s.getVoteCountMismatches)

				r.Put("/{conversationId}/statements", s.upsertStatements)
				r.Get("/{conversationId}/statements", s.listStatements)
				r.Get("/{conversationId}/statements/bookkeeping", s.getBookkeeping)

				r.Get("/{conversationId}/matrix", s.getMatrix)
				r.Get("/{conversationId}/embedding", s.getEmbedding)
				r.Get("/{conversationId}/embedding/snapshot", s.getLatestSnapshot)
			})

			r.Post("/centroids/correct", s.correctCentroids)
		})
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondDomainError maps the error taxonomy onto HTTP statuses.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrInvalidVote):
		respondError(w, http.StatusBadRequest, "INVALID_VOTE", err.Error())
	case errors.Is(err, domain.ErrUnknownSource):
		respondError(w, http.StatusBadRequest, "UNKNOWN_SOURCE", err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		respondError(w, http.StatusUnprocessableEntity, "CONFIGURATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrDegenerateInput):
		respondError(w, http.StatusConflict, "DEGENERATE_INPUT", err.Error())
	case errors.Is(err, domain.ErrDivideByZero):
		respondError(w, http.StatusConflict, "DIVIDE_BY_ZERO", err.Error())
	default:
		s.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func decodeLenient(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseBoolQuery reads an optional boolean query parameter.
func parseBoolQuery(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}
