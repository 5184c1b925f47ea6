package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wally_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wally_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wally_users_registered_total",
			Help: "Total users registered",
		},
	)

	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wally_messages_posted_total",
			Help: "Total messages posted",
		},
		[]string{"kind"}, // "text" or "image"
	)

	ImagesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wally_images_uploaded_total",
			Help: "Total image attachments uploaded",
		},
	)

	GuessesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wally_game_guesses_total",
			Help: "Total minigame guesses",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	FeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wally_feed_subscribers",
			Help: "Currently connected feed subscribers",
		},
	)

	FeedChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wally_feed_changes_total",
			Help: "Total change notifications delivered to subscribers",
		},
		[]string{"kind"}, // "added", "modified", "removed"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wally_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wally_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)
)
