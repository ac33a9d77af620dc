// Package handlers exposes the recommendation endpoint (§6): request
// parsing from query parameters or a JSON body, userId resolution from the
// auth context, and response shaping through the orchestrator.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"reelsense/internal/auth"
	"reelsense/models"
	"reelsense/services/recommend"
)

const (
	defaultLimit = 9
	maxLimit     = 9
	minLimit     = 1
)

var (
	errInvalidLimit     = errors.New("limit must be a whole number")
	errInvalidExclude   = errors.New("exclude must be a comma-separated list of numeric ids")
	errInvalidMediaType = errors.New("mediaType must be movie, tv, or both")
	errInvalidBody      = errors.New("request body is not valid JSON")
)

// recommender is the subset of recommend.Orchestrator this handler needs.
type recommender interface {
	Recommend(ctx context.Context, req recommend.Request) models.RecommendationResponse
}

var _ recommender = (*recommend.Orchestrator)(nil)

// inlineRequestBody is the optional JSON body shape (§6): any field may be
// omitted, falling back to query parameters or store-backed defaults.
type inlineRequestBody struct {
	MediaType   string                  `json:"mediaType"`
	Exclude     []string                `json:"exclude"`
	Limit       int                     `json:"limit"`
	Preferences *models.UserPreferences `json:"preferences"`
}

// RecommendationHandler serves the core-facing recommendation contract.
type RecommendationHandler struct {
	Orchestrator recommender
}

// NewRecommendationHandler builds a RecommendationHandler.
func NewRecommendationHandler(o recommender) *RecommendationHandler {
	return &RecommendationHandler{Orchestrator: o}
}

// Recommend handles GET or POST /recommendations.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetAccountID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing authenticated account")
		return
	}

	req, err := parseRequest(r, userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID := uuid.New().String()
	log.Printf("[handlers] requestId=%s user=%s mediaType=%s limit=%d", requestID, req.UserID, req.MediaType, req.Limit)

	resp := h.Orchestrator.Recommend(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func parseRequest(r *http.Request, userID string) (recommend.Request, error) {
	req := recommend.Request{UserID: userID, MediaType: string(models.MediaBoth), Limit: defaultLimit}

	if mt := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mediaType"))); mt != "" {
		req.MediaType = mt
	}
	if exclude := r.URL.Query().Get("exclude"); exclude != "" {
		req.ExcludeIDs = strings.Split(exclude, ",")
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return req, errInvalidLimit
		}
		req.Limit = limit
	}

	if r.Body != nil {
		var body inlineRequestBody
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&body); err != nil && err != io.EOF {
			return req, errInvalidBody
		}
		if body.MediaType != "" {
			req.MediaType = strings.ToLower(body.MediaType)
		}
		if len(body.Exclude) > 0 {
			req.ExcludeIDs = body.Exclude
		}
		if body.Limit != 0 {
			req.Limit = body.Limit
		}
		req.InlinePreferences = body.Preferences
	}

	if req.MediaType != string(models.MediaMovie) && req.MediaType != string(models.MediaTV) && req.MediaType != string(models.MediaBoth) {
		return req, errInvalidMediaType
	}
	for _, id := range req.ExcludeIDs {
		if id == "" {
			continue
		}
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return req, errInvalidExclude
		}
	}
	if req.Limit < minLimit {
		req.Limit = minLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}

	return req, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
