package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "writingway_ai_requests_total",
			Help: "Total number of requests to AI providers.",
		},
		[]string{"provider", "task", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "writingway_ai_request_duration_seconds",
			Help:    "Histogram of AI provider request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "task"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "writingway_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20), // 250 ... 5000
		},
		[]string{"provider"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "writingway_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(50, 50, 20), // 50 ... 1000
		},
		[]string{"provider"},
	)
	aiTotalTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "writingway_ai_total_tokens",
			Help:    "Histogram of total token counts (prompt + completion).",
			Buckets: prometheus.LinearBuckets(300, 300, 20),
		},
		[]string{"provider"},
	)
	aiFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "writingway_ai_fallback_total",
			Help: "Number of requests answered by the local mock generator.",
		},
		[]string{"task"},
	)
	geminiKeySkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "writingway_gemini_key_skips_total",
			Help: "Number of times a Gemini key was skipped because of quota cooldown.",
		},
	)
)

func observeRequest(provider string, task Task, status string, d time.Duration) {
	aiRequestsTotal.With(prometheus.Labels{"provider": provider, "task": string(task), "status": status}).Inc()
	if status == "success" || status == "success_stream" {
		aiRequestDuration.With(prometheus.Labels{"provider": provider, "task": string(task)}).Observe(d.Seconds())
	}
}

func observeUsage(provider string, u Usage) {
	if u.TotalTokens <= 0 {
		return
	}
	aiPromptTokens.With(prometheus.Labels{"provider": provider}).Observe(float64(u.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"provider": provider}).Observe(float64(u.CompletionTokens))
	aiTotalTokens.With(prometheus.Labels{"provider": provider}).Observe(float64(u.TotalTokens))
}
