package sse

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionmap/opinionmap/internal/domain/notification"
)

func TestHub_PublishRoutesByConversation(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	convA, convB := uuid.New(), uuid.New()
	a := notification.NewSSEClient("a", convA)
	b := notification.NewSSEClient("b", convB)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	require.Equal(t, 2, hub.GetClientCount())
	assert.Equal(t, 1, hub.SubscriberCount(convA))

	hub.Publish(convA, notification.EventVotesRecorded, map[string]int{"count": 2})

	require.Len(t, a.MessageChan, 1)
	assert.Empty(t, b.MessageChan)
	msg := <-a.MessageChan
	assert.Equal(t, notification.EventVotesRecorded, msg.Event)
	assert.Equal(t, convA, msg.ConversationID)
	assert.JSONEq(t, `{"count":2}`, string(msg.Data))

	hub.Publish(uuid.New(), notification.EventVotesRecorded, map[string]int{"count": 1})
	assert.Empty(t, a.MessageChan)
	assert.Empty(t, b.MessageChan)
}

func TestHub_SendToClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conv := uuid.New()
	c := notification.NewSSEClient("c", conv)
	require.NoError(t, hub.Register(c))

	msg := notification.NewSSEMessage(conv, notification.EventSettingsUpdated, []byte(`{}`))
	require.NoError(t, hub.SendToClient("c", msg))
	assert.ErrorIs(t, hub.SendToClient("missing", msg), notification.ErrClientNotFound)

	for len(c.MessageChan) < cap(c.MessageChan) {
		c.MessageChan <- msg
	}
	assert.ErrorIs(t, hub.SendToClient("c", msg), notification.ErrChannelFull)
	// Full buffers drop instead of blocking.
	hub.BroadcastToConversation(conv, msg)
}

func TestHub_RegisterReplacesClientWithSameID(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	convA, convB := uuid.New(), uuid.New()
	old := notification.NewSSEClient("dup", convA)
	require.NoError(t, hub.Register(old))
	require.NoError(t, hub.Register(old))

	replacement := notification.NewSSEClient("dup", convB)
	require.NoError(t, hub.Register(replacement))

	_, ok := <-old.MessageChan
	assert.False(t, ok)
	assert.Same(t, replacement, hub.GetClient("dup"))
	assert.Equal(t, 0, hub.SubscriberCount(convA))
	assert.Equal(t, 1, hub.SubscriberCount(convB))
	assert.Equal(t, 1, hub.GetClientCount())
}

func TestHub_UnregisterAndStop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conv := uuid.New()
	c1 := notification.NewSSEClient("c1", conv)
	c2 := notification.NewSSEClient("c2", conv)
	require.NoError(t, hub.Register(c1))
	require.NoError(t, hub.Register(c2))

	hub.Unregister("c1")
	assert.Nil(t, hub.GetClient("c1"))
	assert.Equal(t, 1, hub.SubscriberCount(conv))
	_, ok := <-c1.MessageChan
	assert.False(t, ok)
	hub.Unregister("c1")

	hub.Stop()
	assert.Equal(t, 0, hub.GetClientCount())
	assert.Equal(t, 0, hub.SubscriberCount(conv))
	_, ok = <-c2.MessageChan
	assert.False(t, ok)

	late := notification.NewSSEClient("late", conv)
	assert.ErrorIs(t, hub.Register(late), notification.ErrHubStopped)
	_, ok = <-late.MessageChan
	assert.False(t, ok)
}
