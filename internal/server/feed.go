package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const feedWriteTimeout = 5 * time.Second

var feedUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

func (s *Server) handleAlertsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.serveFeed(conn)
}

// serveFeed pushes the current report on connect and then on every tick until
// the client goes away.
func (s *Server) serveFeed(conn *websocket.Conn) {
	defer conn.Close()

	if err := writeFeedPayload(conn, s.snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			if err := writeFeedPayload(conn, s.snapshot()); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeFeedPayload(conn *websocket.Conn, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
