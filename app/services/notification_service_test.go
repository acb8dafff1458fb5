package services

import (
	"testing"

	"github.com/amirphl/Jorougumo/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyPendingApproval(t *testing.T) {
	post := &models.PendingPost{
		UUID:     uuid.New(),
		Platform: models.PlatformTwitter,
		Content:  "Draft about cap rate compression",
		Focus:    "cap rates",
		Tone:     "professional",
		Status:   models.PostStatusPendingApproval,
	}

	t.Run("emails the operator", func(t *testing.T) {
		provider := NewMockEmailProvider()
		svc := NewNotificationService(provider, "ops@example.com")

		require.NoError(t, svc.NotifyPendingApproval(post))

		require.Len(t, provider.Sent, 1)
		sent := provider.Sent[0]
		assert.Equal(t, "ops@example.com", sent.To)
		assert.Contains(t, sent.Subject, "twitter")
		assert.Contains(t, sent.Message, post.UUID.String())
		assert.Contains(t, sent.Message, "cap rate compression")
	})

	t.Run("rejects a missing operator address", func(t *testing.T) {
		svc := NewNotificationService(NewMockEmailProvider(), "")
		assert.Error(t, svc.NotifyPendingApproval(post))
	})

	t.Run("rejects a malformed operator address", func(t *testing.T) {
		svc := NewNotificationService(NewMockEmailProvider(), "not-an-email")
		assert.Error(t, svc.NotifyPendingApproval(post))
	})

	t.Run("rejects a missing provider", func(t *testing.T) {
		svc := NewNotificationService(nil, "ops@example.com")
		assert.Error(t, svc.NotifyPendingApproval(post))
	})
}
