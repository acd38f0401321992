package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	questsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questlog_quests_completed_total",
			Help: "Quests completed, by category",
		},
		[]string{"category"},
	)
	challengeOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questlog_challenge_outcomes_total",
			Help: "Challenges that reached a terminal status",
		},
		[]string{"status"},
	)
	remindersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questlog_reminders_total",
			Help: "Reminder deliveries, by kind and result",
		},
		[]string{"kind", "result"},
	)
	currentStreakGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "questlog_current_streak_days",
			Help: "Current streak as of the last action",
		},
	)
)

// RegisterMetrics registers the domain metrics. Call it once from main.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(questsCompletedTotal, challengeOutcomesTotal, remindersTotal, currentStreakGauge)
}
