package httpapi

import (
	"net/http"

	"github.com/opinionmap/opinionmap/internal/domain/conversation"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

type conversationCreateRequest struct {
	Name     string                `json:"name"`
	Settings conversation.Settings `json:"settings"`
}

type voteBatchRequest struct {
	Votes []vote.Vote `json:"votes"`
}

type statementBatchRequest struct {
	Statements []statement.Statement `json:"statements"`
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	// Omitted settings fields keep the configured defaults.
	req := conversationCreateRequest{Settings: s.defaults}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	conv, err := s.conversationSvc.CreateConversation(r.Context(), req.Name, req.Settings)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, conv)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	convs, err := s.conversationSvc.ListConversations(r.Context(), limit, offset)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	if convs == nil {
		convs = []*conversation.Conversation{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"conversations": convs})
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	conv, err := s.conversationSvc.GetConversation(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	current, err := s.conversationSvc.GetConversation(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	// Fields absent from the body keep their current values.
	settings := current.Settings
	if err := decodeBody(r, &settings); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	conv, err := s.conversationSvc.UpdateSettings(r.Context(), id, settings)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

func (s *Server) recordVotes(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	var req voteBatchRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.conversationSvc.RecordVotes(r.Context(), id, req.Votes); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]int{"recorded": len(req.Votes)})
}

func (s *Server) getVoteCounts(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	summary, err := s.conversationSvc.VoteCounts(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) getVoteCountMismatches(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	mismatches, err := s.conversationSvc.VoteCountMismatches(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"mismatches": mismatches})
}

func (s *Server) upsertStatements(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	var req statementBatchRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.conversationSvc.UpsertStatements(r.Context(), id, req.Statements); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"upserted": len(req.Statements)})
}

func (s *Server) listStatements(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	statements, err := s.conversationSvc.Statements(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"statements": statements})
}

func (s *Server) getBookkeeping(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	b, err := s.conversationSvc.Bookkeeping(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) getMatrix(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	filtered, err := parseBoolQuery(r, "filtered", false)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid filtered")
		return
	}
	m, err := s.conversationSvc.Matrix(r.Context(), id, filtered)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) getEmbedding(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	res, err := s.conversationSvc.Embedding(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) getLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	snap, err := s.conversationSvc.LatestSnapshot(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
