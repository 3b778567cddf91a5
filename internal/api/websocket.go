package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"simtrader/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// websocket streams live engine events (ticks, signals, closed trades) to
// the client until it disconnects.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("api: ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	if s.bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"bus not ready"}`))
		return
	}

	ticks, unsubTicks := s.bus.Subscribe(events.EventPriceTick, 100)
	defer unsubTicks()
	signals, unsubSignals := s.bus.Subscribe(events.EventSignal, 100)
	defer unsubSignals()
	trades, unsubTrades := s.bus.Subscribe(events.EventTradeClosed, 100)
	defer unsubTrades()

	write := func(event events.Event, payload any) bool {
		msg := map[string]any{"event": event, "data": payload}
		if err := conn.WriteJSON(msg); err != nil {
			slog.Debug("api: ws write failed", "err", err)
			return false
		}
		return true
	}

	for {
		select {
		case msg, ok := <-ticks:
			if !ok || !write(events.EventPriceTick, msg) {
				return
			}
		case msg, ok := <-signals:
			if !ok || !write(events.EventSignal, msg) {
				return
			}
		case msg, ok := <-trades:
			if !ok || !write(events.EventTradeClosed, msg) {
				return
			}
		}
	}
}
