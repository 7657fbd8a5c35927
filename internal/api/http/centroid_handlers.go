package httpapi

import (
	"net/http"

	"github.com/opinionmap/opinionmap/internal/domain/embedding"
)

type centroidResponse struct {
	Source    embedding.Source `json:"source"`
	Centroids [][2]float64     `json:"centroids"`
}

func (s *Server) correctCentroids(w http.ResponseWriter, r *http.Request) {
	source, err := embedding.ParseSource(r.URL.Query().Get("source"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	flipX, err := parseBoolQuery(r, "flip_x", true)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid flip_x")
		return
	}
	flipY, err := parseBoolQuery(r, "flip_y", true)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid flip_y")
		return
	}

	// Math exports carry many more keys than the ones read here.
	var data embedding.MathData
	if err := decodeLenient(r, &data); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	centroids, err := s.conversationSvc.CorrectCentroids(data, source, embedding.WithFlipX(flipX), embedding.WithFlipY(flipY))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, centroidResponse{Source: source, Centroids: centroids})
}
