package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"imagecompare/internal/envelope"
	"imagecompare/internal/events"
	"imagecompare/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchJob streams a job's progress events over a websocket until the job
// completes or fails, or the client goes away.
func (h HandlerSet) WatchJob(c *gin.Context) {
	if h.progress == nil {
		envelope.Error(c, http.StatusServiceUnavailable, "job progress is not configured")
		return
	}

	ctx := c.Request.Context()
	jobID := c.Param("id")
	log := h.log.With().Str("job_id", jobID).Logger()

	// Subscribe before reading the last event so nothing published in between is lost.
	sub := h.progress.Subscribe(ctx, jobID)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		log.Error().Err(err).Msg("subscribe to job progress failed")
		envelope.Error(c, http.StatusServiceUnavailable, "job progress is unavailable")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	send := func(event models.JobEvent) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			return false
		}
		if events.Terminal(event.Stage) {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(event.Stage)))
			return false
		}
		return true
	}

	if last, err := h.progress.Last(ctx, jobID); err == nil {
		if !send(last) {
			return
		}
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	messages := sub.Channel()
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}
			event, err := events.Decode([]byte(msg.Payload))
			if err != nil {
				log.Warn().Err(err).Msg("skipping undecodable progress event")
				continue
			}
			if !send(event) {
				return
			}
		}
	}
}
