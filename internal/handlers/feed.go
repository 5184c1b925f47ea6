package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zachlamont/wheres-wally/internal/feed"
	"github.com/zachlamont/wheres-wally/internal/metrics"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Feed upgrades the connection to a websocket and streams change batches
// for the most-recent message window. Each subscriber holds its previous
// window; on every store notification the window is re-read and diffed.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("feed upgrade failed")
		return
	}
	defer conn.Close()

	metrics.FeedSubscribers.Inc()
	defer metrics.FeedSubscribers.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader goroutine: the client sends nothing meaningful, but reading
	// is required to notice closes and answer pings.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	sub := h.redis.SubscribeChanges(ctx)
	defer sub.Close()

	window, err := h.redis.LatestMessages(ctx, feed.WindowSize)
	if err != nil {
		h.logger.Error().Err(err).Msg("feed initial read failed")
		return
	}

	if err := h.writeBatch(conn, feed.Initial(window)); err != nil {
		return
	}

	notifications := sub.Channel()
	ping := time.NewTicker(feedPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ping.C:
			deadline := time.Now().Add(feedWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

		case _, ok := <-notifications:
			if !ok {
				return
			}

			next, err := h.redis.LatestMessages(ctx, feed.WindowSize)
			if err != nil {
				h.logger.Error().Err(err).Msg("feed window read failed")
				return
			}

			batch := feed.Diff(window, next)
			window = next

			if len(batch) == 0 {
				continue
			}
			if err := h.writeBatch(conn, batch); err != nil {
				return
			}
		}
	}
}

// writeBatch sends one change batch to the subscriber.
func (h *Handler) writeBatch(conn *websocket.Conn, batch []feed.Change) error {
	if len(batch) == 0 {
		return nil
	}
	for _, c := range batch {
		metrics.FeedChanges.WithLabelValues(string(c.Kind)).Inc()
	}
	conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteJSON(batch)
}
