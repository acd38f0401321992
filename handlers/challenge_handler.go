package handlers

import (
	"context"
	"net/http"
	"time"

	"questlog/internal/types/challenge"
	"questlog/services"
)

type ChallengeHandler struct {
	app *services.AppService
}

func NewChallengeHandler(app *services.AppService) *ChallengeHandler {
	return &ChallengeHandler{app: app}
}

// challengeResponse adds the derived countdown fields the client renders.
type challengeResponse struct {
	challenge.Challenge
	ProgressPercentage float64 `json:"progress_percentage"`
	DaysRemaining      int     `json:"days_remaining"`
}

func (h *ChallengeHandler) toResponse(c challenge.Challenge) challengeResponse {
	return challengeResponse{
		Challenge:          c,
		ProgressPercentage: c.ProgressPercentage(),
		DaysRemaining:      c.DaysRemaining(h.app.Now()),
	}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	list := h.app.Challenges()
	out := make([]challengeResponse, 0, len(list))
	for _, c := range list {
		out = append(out, h.toResponse(c))
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.app.JoinChallenge(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(c))
}
