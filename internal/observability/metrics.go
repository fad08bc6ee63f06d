package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// WordPressRequests counts outbound WordPress REST calls by operation and
	// HTTP status ("error" when no response was received).
	WordPressRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordpress_requests_total",
			Help: "Total number of WordPress REST API calls.",
		},
		[]string{"op", "status"},
	)

	// LLMRequests counts Gemini calls by operation and result (ok, empty, error).
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM generation calls.",
		},
		[]string{"op", "result"},
	)

	// AssistantActions counts dispatched assistant replies by action tag and
	// outcome. Plain replies use the action label "none".
	AssistantActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_actions_total",
			Help: "Total number of assistant replies by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(WordPressRequests, LLMRequests, AssistantActions)
}
