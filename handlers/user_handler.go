package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"questlog/internal/types/user"
	"questlog/services"
)

type UserHandler struct {
	app    *services.AppService
	logger *zap.Logger
}

func NewUserHandler(app *services.AppService, logger *zap.Logger) *UserHandler {
	return &UserHandler{app: app, logger: logger}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.User()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.app.CreateUser(ctx, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.logger.Info("user created", zap.String("user_id", u.ID.String()))
	respondWithJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.app.UpdatePreferences(ctx, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

// ResetData wipes every stored key and reseeds the catalog.
func (h *UserHandler) ResetData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.app.Reset(ctx); err != nil {
		h.logger.Error("reset failed", zap.Error(err))
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "All data reset"})
}
