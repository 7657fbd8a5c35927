// Package notification defines the change events pushed to clients watching a
// conversation over server-sent events.
package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event names.
const (
	EventVotesRecorded     = "votes.recorded"
	EventStatementsUpdated = "statements.updated"
	EventSettingsUpdated   = "settings.updated"
	EventEmbeddingComputed = "embedding.computed"
)

var (
	ErrClientNotFound = errors.New("SSE client not found")
	ErrChannelFull    = errors.New("SSE message channel full")
	ErrHubStopped     = errors.New("SSE hub stopped")
)

// clientBuffer is the number of messages a slow client may lag behind before
// messages to it are dropped.
const clientBuffer = 100

// SSEClient represents an active SSE connection subscribed to one conversation.
type SSEClient struct {
	ClientID       string
	ConversationID uuid.UUID
	ConnectedAt    time.Time
	MessageChan    chan *SSEMessage
}

// NewSSEClient creates a new SSE client.
func NewSSEClient(clientID string, conversationID uuid.UUID) *SSEClient {
	return &SSEClient{
		ClientID:       clientID,
		ConversationID: conversationID,
		ConnectedAt:    time.Now().UTC(),
		MessageChan:    make(chan *SSEMessage, clientBuffer),
	}
}

// Close closes the client's message channel.
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE.
type SSEMessage struct {
	ID             string          `json:"id"`
	Event          string          `json:"event"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	Data           json.RawMessage `json:"data"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message.
func NewSSEMessage(conversationID uuid.UUID, event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:             uuid.New().String(),
		Event:          event,
		ConversationID: conversationID,
		Data:           data,
		Timestamp:      time.Now().UTC(),
	}
}
