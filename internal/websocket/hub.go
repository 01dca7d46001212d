package websocket

import (
	"context"

	"github.com/rs/zerolog/log"
)

type publication struct {
	libraryID string
	client    *Client // set for direct replies
	message   []byte
}

// Hub maintains the set of active clients and fans library activity out to them.
// All client and subscription state is owned by the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	publish chan publication

	// Closed when Run returns.
	done chan struct{}

	// A map of library IDs to the set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan publication, 256),
		done:          make(chan struct{}),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop. It returns when ctx is cancelled,
// after closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			for _, libraryID := range client.Libraries {
				h.addSubscription(client, libraryID)
			}
			log.Info().Int("total_clients", len(h.clients)).Str("user_id", client.UserID).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Str("user_id", client.UserID).Msg("Client disconnected")
			}
		case p := <-h.publish:
			if p.client != nil {
				if h.clients[p.client] {
					h.deliver(p.client, p.message)
				}
				continue
			}
			for client := range h.subscriptions[p.libraryID] {
				h.deliver(client, p.message)
			}
		}
	}
}

// Register adds client to the hub. It reports false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client from the hub and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues message for every client subscribed to libraryID. It never blocks:
// when the queue is full the message is dropped.
func (h *Hub) Publish(libraryID string, message []byte) {
	select {
	case h.publish <- publication{libraryID: libraryID, message: message}:
	default:
		log.Warn().Str("library_id", libraryID).Msg("Hub publish queue full, dropping message")
	}
}

// Reply queues message for a single client, if it is still connected.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.publish <- publication{client: client, message: message}:
	default:
		log.Warn().Str("user_id", client.UserID).Msg("Hub publish queue full, dropping reply")
	}
}

func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		log.Warn().Str("user_id", client.UserID).Msg("Client send buffer full, disconnecting")
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client, libraryID string) {
	if h.subscriptions[libraryID] == nil {
		h.subscriptions[libraryID] = make(map[*Client]bool)
	}
	h.subscriptions[libraryID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for _, libraryID := range client.Libraries {
		if subs, ok := h.subscriptions[libraryID]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, libraryID)
			}
		}
	}
}
