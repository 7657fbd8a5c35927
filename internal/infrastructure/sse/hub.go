package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opinionmap/opinionmap/internal/domain/notification"
)

var _ notification.SSEHub = (*Hub)(nil)

// Hub fans conversation events out to SSE subscribers. Clients are indexed by
// conversation so a broadcast only touches that conversation's subscribers.
type Hub struct {
	mu             sync.RWMutex
	clients        map[string]*notification.SSEClient
	byConversation map[uuid.UUID]map[string]*notification.SSEClient
	stopped        bool
	logger         zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:        make(map[string]*notification.SSEClient),
		byConversation: make(map[uuid.UUID]map[string]*notification.SSEClient),
		logger:         logger.With().Str("component", "sse").Logger(),
	}
}

// Register subscribes a client. A client registered under an id already in
// use replaces the previous one, whose channel is closed.
func (h *Hub) Register(client *notification.SSEClient) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		client.Close()
		return notification.ErrHubStopped
	}
	if h.clients[client.ClientID] == client {
		return nil
	}
	h.removeLocked(client.ClientID)

	h.clients[client.ClientID] = client
	subs := h.byConversation[client.ConversationID]
	if subs == nil {
		subs = make(map[string]*notification.SSEClient)
		h.byConversation[client.ConversationID] = subs
	}
	subs[client.ClientID] = client
	return nil
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(clientID)
}

func (h *Hub) removeLocked(clientID string) {
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	c.Close()
	delete(h.clients, clientID)
	if subs := h.byConversation[c.ConversationID]; subs != nil {
		delete(subs, clientID)
		if len(subs) == 0 {
			delete(h.byConversation, c.ConversationID)
		}
	}
}

func (h *Hub) GetClient(clientID string) *notification.SSEClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[clientID]
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of clients following a conversation.
func (h *Hub) SubscriberCount(conversationID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byConversation[conversationID])
}

func (h *Hub) BroadcastToConversation(conversationID uuid.UUID, message *notification.SSEMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.byConversation[conversationID] {
		if !trySend(c, message) {
			h.logger.Warn().
				Str("client_id", c.ClientID).
				Str("conversation_id", conversationID.String()).
				Str("event", message.Event).
				Msg("dropping event for slow client")
		}
	}
}

func (h *Hub) SendToClient(clientID string, message *notification.SSEMessage) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c := h.clients[clientID]
	if c == nil {
		return notification.ErrClientNotFound
	}
	if !trySend(c, message) {
		return notification.ErrChannelFull
	}
	return nil
}

// Publish encodes payload and broadcasts it as event to the conversation's
// subscribers. Nothing is encoded when nobody listens.
func (h *Hub) Publish(conversationID uuid.UUID, event string, payload any) {
	if h.SubscriberCount(conversationID) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to encode event payload")
		return
	}
	h.BroadcastToConversation(conversationID, notification.NewSSEMessage(conversationID, event, data))
}

// Stop closes every client channel and refuses further registrations.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for id := range h.clients {
		h.removeLocked(id)
	}
}

// trySend must run under the hub lock so it never races a Close.
func trySend(c *notification.SSEClient, msg *notification.SSEMessage) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
