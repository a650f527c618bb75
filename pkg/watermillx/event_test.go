package watermillx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/event"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
)

type unnamed struct{ event.Header }

func (unnamed) GetStreamName() string { return "" }

func TestMessageTopic(t *testing.T) {
	t.Parallel()

	topic, err := MessageTopic(&user.UserRegistered{})
	require.NoError(t, err)
	assert.Equal(t, user.EventStreamName, topic)

	topic, err = MessageTopic(&emailverification.VerificationRequested{})
	require.NoError(t, err)
	assert.Equal(t, emailverification.EventStreamName, topic)

	_, err = MessageTopic(&unnamed{})
	assert.Error(t, err)
}

func TestStreamsCoverEveryEvent(t *testing.T) {
	t.Parallel()

	for _, evt := range []event.Event{
		&user.UserRegistered{},
		&user.UserRoleChanged{},
		&emailverification.VerificationRequested{},
	} {
		topic, err := MessageTopic(evt)
		require.NoError(t, err)
		assert.Contains(t, Streams, topic)
	}
}

func TestPublish_NoEvents(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Publish(t.Context(), nil, nil))
}
