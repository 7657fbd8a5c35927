package notification

import (
	"github.com/google/uuid"
)

// SSEHub defines the interface for managing SSE connections.
type SSEHub interface {
	// Register fails with ErrHubStopped once Stop has been called.
	Register(client *SSEClient) error
	Unregister(clientID string)
	GetClient(clientID string) *SSEClient
	GetClientCount() int
	SubscriberCount(conversationID uuid.UUID) int

	// BroadcastToConversation delivers to every client subscribed to the
	// conversation. Full client buffers drop the message.
	BroadcastToConversation(conversationID uuid.UUID, message *SSEMessage)
	SendToClient(clientID string, message *SSEMessage) error

	Stop()
}
