package websocket

import (
	"encoding/json"

	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Actions understood or emitted over the socket.
const (
	ActionPing  = "ping"
	ActionPong  = "pong"
	ActionError = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

func encode(msg Message) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("action", msg.Action).Msg("Failed to marshal websocket message")
		return nil
	}
	return b
}

// NewEventMessage wraps a book activity event. The action is the event type, e.g. "book.create".
func NewEventMessage(event models.Event) []byte {
	return encode(Message{Action: event.Type, Payload: event})
}

// NewErrorMessage creates an error message for the client.
func NewErrorMessage(message string) []byte {
	return encode(Message{Action: ActionError, Payload: map[string]string{"error": message}})
}

// NewPongMessage answers a client ping.
func NewPongMessage() []byte {
	return encode(Message{Action: ActionPong})
}
