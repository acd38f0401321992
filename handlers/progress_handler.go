package handlers

import (
	"net/http"
	"strconv"
	"time"

	"questlog/services"
)

type ProgressHandler struct {
	app *services.AppService
}

func NewProgressHandler(app *services.AppService) *ProgressHandler {
	return &ProgressHandler{app: app}
}

func (h *ProgressHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.app.Stats())
}

func (h *ProgressHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.app.Streak())
}

// GetWeekly takes an optional start=YYYY-MM-DD; any day of the wanted week works.
func (h *ProgressHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	var day time.Time
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.app.Location())
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'start' must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	respondWithJSON(w, http.StatusOK, h.app.Weekly(day))
}

// yearMonth reads ?year=&month=, defaulting to the current local month.
func (h *ProgressHandler) yearMonth(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	now := h.app.Now().In(h.app.Location())
	year, month := now.Year(), int(now.Month())

	query := r.URL.Query()
	if raw := query.Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid year")
			return 0, 0, false
		}
		year = v
	}
	if raw := query.Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid month")
			return 0, 0, false
		}
		month = v
	}
	return year, time.Month(month), true
}

func (h *ProgressHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.yearMonth(w, r)
	if !ok {
		return
	}

	m, err := h.app.Monthly(year, month)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

// GetCalendar returns the month view with completed days flagged.
func (h *ProgressHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.yearMonth(w, r)
	if !ok {
		return
	}

	cal, err := h.app.Calendar(year, month)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, cal)
}
