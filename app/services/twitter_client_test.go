package services

import (
	"context"
	"testing"

	"github.com/amirphl/Jorougumo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, 10, clampPageSize(0))
	assert.Equal(t, 10, clampPageSize(-5))
	assert.Equal(t, 10, clampPageSize(9))
	assert.Equal(t, 10, clampPageSize(10))
	assert.Equal(t, 42, clampPageSize(42))
	assert.Equal(t, 100, clampPageSize(100))
	assert.Equal(t, 100, clampPageSize(500))
}

func TestDisabledSocialClient(t *testing.T) {
	ctx := context.Background()
	client := NewDisabledSocialClient(models.PlatformLinkedIn)

	t.Run("reports its platform and unavailability", func(t *testing.T) {
		assert.Equal(t, models.PlatformLinkedIn, client.Platform())
		assert.False(t, client.Available())
	})

	t.Run("reads return empty sets without error", func(t *testing.T) {
		posts, err := client.SearchPosts(ctx, "cre", 10)
		require.NoError(t, err)
		assert.Empty(t, posts)

		posts, err = client.Timeline(ctx, "someone", 10)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("publish reports non-success without erroring", func(t *testing.T) {
		result, err := client.Publish(ctx, "content")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "disabled")
	})
}
