package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/events"
)

var errUnknownEvent = errors.New("unknown event type")

type Handler struct {
	Upgrader websocket.Upgrader
	Log      hclog.Logger
	EventBus *events.EventBus[any]
}

type Message struct {
	EventType string      `json:"event-type"`
	Data      interface{} `json:"data"`
}

// NewHandler creates a Handler. Browser connections are accepted from
// allowedOrigins only; requests without an Origin header are always
// accepted.
func NewHandler(log hclog.Logger, eventBus *events.EventBus[any], allowedOrigins []string) *Handler {
	return &Handler{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		Log:      log,
		EventBus: eventBus,
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Error("Unable to upgrade to WebSocket", "error", err)
		return
	}
	defer conn.Close()

	subscriber := h.EventBus.Subscribe()
	defer h.EventBus.Unsubscribe(subscriber)

	// closed by readPump once the client goes away
	done := make(chan struct{})
	go h.readPump(conn, done)

	for {
		select {
		case event, ok := <-subscriber:
			if !ok {
				// bus closed during shutdown
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}

			payload, err := encode(event)
			if err != nil {
				h.Log.Warn("Skipping event", "error", err)
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.Log.Error("Error writing message to WebSocket", "error", err)
				return
			}
		case <-done:
			h.Log.Debug("WebSocket connection closed by the client")
			return
		}
	}
}

func encode(event any) ([]byte, error) {
	name := events.Name(event)
	if name == "" {
		return nil, errUnknownEvent
	}
	return json.Marshal(Message{EventType: name, Data: event})
}

func (h *Handler) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.Error("Error reading message", "error", err)
			}
			return
		}
	}
}
