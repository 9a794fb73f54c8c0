package messaging_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/linkgate/linkgate/internal/analytics"
	"github.com/linkgate/linkgate/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	topics   []string
	messages []*message.Message
	err      error
	closed   bool
}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error {
	if m.err != nil {
		return m.err
	}

	m.topics = append(m.topics, topic)
	m.messages = append(m.messages, messages...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closed = true

	return nil
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes the event as JSON on the topic", func(t *testing.T) {
		publisher := &mockPublisher{}
		publish := messaging.NewPublishFunc[analytics.LinkCreatedEvent](publisher, analytics.TopicLinkCreated)

		err := publish(&analytics.LinkCreatedEvent{
			ID:          "event-1",
			Code:        "abc123de",
			OriginalURL: "https://example.com",
			Tier:        "basic",
		})
		require.NoError(t, err)

		require.Len(t, publisher.messages, 1)
		assert.Equal(t, []string{analytics.TopicLinkCreated}, publisher.topics)

		msg := publisher.messages[0]
		assert.NotEmpty(t, msg.UUID)
		assert.Equal(t, analytics.TopicLinkCreated, msg.Metadata.Get("topic"))

		var event analytics.LinkCreatedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "event-1", event.ID)
		assert.Equal(t, "abc123de", event.Code)
	})

	t.Run("propagates publisher errors", func(t *testing.T) {
		publisher := &mockPublisher{err: errors.New("broker down")}
		publish := messaging.NewPublishFunc[analytics.LinkCreatedEvent](publisher, analytics.TopicLinkCreated)

		err := publish(&analytics.LinkCreatedEvent{ID: "event-1"})
		assert.Error(t, err)
	})
}

func TestPublisherGroupShutdown(t *testing.T) {
	publisher := &mockPublisher{}
	group := messaging.NewPublisherGroup(publisher)

	require.NoError(t, group.Shutdown())
	assert.True(t, publisher.closed)
}
