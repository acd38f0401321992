package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"questlog/middleware"
	"questlog/services"
)

type RouterOptions struct {
	MetricsUser string
	MetricsPass string
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	// Limiter is optional.
	Limiter *middleware.RateLimiter
}

func NewRouter(app *services.AppService, dispatcher *services.NotificationDispatcher, opts RouterOptions, logger *zap.Logger) *mux.Router {
	questHandler := NewQuestHandler(app, logger)
	challengeHandler := NewChallengeHandler(app)
	progressHandler := NewProgressHandler(app)
	userHandler := NewUserHandler(app, logger)
	notificationHandler := NewNotificationHandler(dispatcher)

	r := mux.NewRouter()
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}
	r.Use(middleware.MonitorMiddleware)

	if opts.Gatherer != nil {
		metrics := promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
		r.Handle("/metrics", middleware.BasicAuthMiddleware(opts.MetricsUser, opts.MetricsPass)(metrics)).Methods("GET")
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := app.PersistErr(); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "questlog"})
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Quests
	api.HandleFunc("/quests", questHandler.ListQuests).Methods("GET")
	api.HandleFunc("/quests/refresh", questHandler.RefreshDaily).Methods("POST")
	api.HandleFunc("/quests/{id}/start", questHandler.StartQuest).Methods("POST")
	api.HandleFunc("/quests/{id}/progress", questHandler.UpdateProgress).Methods("POST")
	api.HandleFunc("/quests/{id}/complete", questHandler.CompleteQuest).Methods("POST")
	api.HandleFunc("/quests/{id}/skip", questHandler.SkipQuest).Methods("POST")

	// Challenges
	api.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	api.HandleFunc("/challenges/{id}/join", challengeHandler.JoinChallenge).Methods("POST")

	// Progress
	api.HandleFunc("/progress/stats", progressHandler.GetStats).Methods("GET")
	api.HandleFunc("/progress/streak", progressHandler.GetStreak).Methods("GET")
	api.HandleFunc("/progress/weekly", progressHandler.GetWeekly).Methods("GET")
	api.HandleFunc("/progress/monthly", progressHandler.GetMonthly).Methods("GET")
	api.HandleFunc("/progress/calendar", progressHandler.GetCalendar).Methods("GET")

	// User
	api.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	api.HandleFunc("/user", userHandler.CreateUser).Methods("POST")
	api.HandleFunc("/user/preferences", userHandler.UpdatePreferences).Methods("PUT")
	api.HandleFunc("/reset", userHandler.ResetData).Methods("POST")

	api.HandleFunc("/reminders", notificationHandler.GetReminders).Methods("GET")

	return r
}
