package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"questlog/services"
)

type QuestHandler struct {
	app    *services.AppService
	logger *zap.Logger
}

func NewQuestHandler(app *services.AppService, logger *zap.Logger) *QuestHandler {
	return &QuestHandler{app: app, logger: logger}
}

// ListQuests returns one partition, available by default.
func (h *QuestHandler) ListQuests(w http.ResponseWriter, r *http.Request) {
	partition := services.PartitionAvailable
	if raw := r.URL.Query().Get("partition"); raw != "" {
		p, err := services.ParsePartition(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'partition' must be available, active or completed")
			return
		}
		partition = p
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"partition": partition,
		"quests":    h.app.Quests(partition),
		"counts":    h.app.QuestCounts(),
	})
}

func (h *QuestHandler) StartQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid quest id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q, err := h.app.StartQuest(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, q)
}

type progressRequest struct {
	Progress *float64 `json:"progress"`
}

func (h *QuestHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid quest id")
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Progress == nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q, err := h.app.UpdateQuestProgress(ctx, id, *req.Progress)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, q)
}

func (h *QuestHandler) CompleteQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid quest id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q, err := h.app.CompleteQuest(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.logger.Info("quest completed", zap.String("title", q.Title), zap.Int("points", q.Points()))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"quest": q,
		"stats": h.app.Stats(),
	})
}

func (h *QuestHandler) SkipQuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid quest id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.app.SkipQuest(ctx, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Quest skipped"})
}

// RefreshDaily recycles yesterday's quests and sweeps challenge windows.
func (h *QuestHandler) RefreshDaily(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	respondWithJSON(w, http.StatusOK, h.app.RefreshDaily(ctx))
}
