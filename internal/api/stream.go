package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/pipeline"
	"brand-profiler/backend/internal/urlnorm"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamReadTimeout  = 30 * time.Second
)

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(payload StreamEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now().UTC()
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return c.conn.WriteJSON(payload)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
	c.conn = nil
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				return true
			}
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}
}

// handleScrapeStream runs one scrape per connection. The client sends a
// ScrapeRequest, receives a stage event per pipeline stage and then a single
// result or error event before the server closes the socket.
func (s *Server) handleScrapeStream(c *gin.Context) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}
	client := &wsClient{conn: conn}
	defer client.close()

	jobID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{
		"job_id":     jobID,
		"request_id": c.GetString(requestIDKey),
		"remote":     conn.RemoteAddr().String(),
	})

	_ = conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		log.WithError(err).Info("scrape stream closed before request")
		return
	}
	var req ScrapeRequest
	if err := json.Unmarshal(message, &req); err != nil || req.URL == "" {
		_ = client.writeJSON(StreamEvent{Type: eventError, JobID: jobID, Error: errURLRequired.Error()})
		return
	}

	ctx, cancel := s.scrapeContext(c.Request.Context())
	defer cancel()

	log = log.WithField("input", req.URL)
	log.Info("scrape stream started")
	profile, err := s.scraper.Run(ctx, req.URL, func(e pipeline.Event) {
		if werr := client.writeJSON(stageEvent(jobID, e)); werr != nil {
			log.WithError(werr).Debug("write stage event")
		}
	})
	if err != nil {
		_, public := scrapeFailure(err)
		log.WithError(err).Warn("brand scrape failed")
		_ = client.writeJSON(StreamEvent{Type: eventError, JobID: jobID, Error: public.Error()})
		return
	}

	event := StreamEvent{Type: eventResult, JobID: jobID, Profile: profile}
	if id, ok := s.record(profile, urlnorm.Normalize(req.URL)); ok {
		event.ProfileID = id
	}
	if err := client.writeJSON(event); err != nil {
		log.WithError(err).Warn("write scrape result")
	}
}
