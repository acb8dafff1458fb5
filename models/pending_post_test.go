package models

import (
	"strings"
	"testing"
	"time"

	"github.com/amirphl/Jorougumo/utils"
	"github.com/stretchr/testify/assert"
)

func TestPostStatusTransitions(t *testing.T) {
	cases := []struct {
		from    PostStatus
		to      PostStatus
		allowed bool
	}{
		{PostStatusPendingApproval, PostStatusPosted, true},
		{PostStatusPendingApproval, PostStatusScheduled, true},
		{PostStatusPendingApproval, PostStatusRejected, true},
		{PostStatusPendingApproval, PostStatusFailed, true},
		{PostStatusScheduled, PostStatusPosted, true},
		{PostStatusScheduled, PostStatusFailed, true},
		{PostStatusScheduled, PostStatusRejected, false},
		{PostStatusScheduled, PostStatusPendingApproval, false},
		{PostStatusFailed, PostStatusPosted, true},
		{PostStatusFailed, PostStatusScheduled, false},
		{PostStatusFailed, PostStatusRejected, false},
		{PostStatusPosted, PostStatusFailed, false},
		{PostStatusPosted, PostStatusPendingApproval, false},
		{PostStatusRejected, PostStatusPosted, false},
		{PostStatusRejected, PostStatusPendingApproval, false},
	}

	for _, tc := range cases {
		t.Run(tc.from.String()+" to "+tc.to.String(), func(t *testing.T) {
			post := &PendingPost{Status: tc.from}
			assert.Equal(t, tc.allowed, post.CanTransitionTo(tc.to))
		})
	}
}

func TestPostStatusIsTerminal(t *testing.T) {
	assert.True(t, PostStatusPosted.IsTerminal())
	assert.True(t, PostStatusRejected.IsTerminal())
	assert.False(t, PostStatusPendingApproval.IsTerminal())
	assert.False(t, PostStatusScheduled.IsTerminal())
	assert.False(t, PostStatusFailed.IsTerminal())
}

func TestWithinCharacterLimit(t *testing.T) {
	t.Run("twitter boundary", func(t *testing.T) {
		post := &PendingPost{Platform: PlatformTwitter, Content: strings.Repeat("a", utils.TwitterCharacterLimit)}
		assert.True(t, post.WithinCharacterLimit())

		post.Content += "a"
		assert.False(t, post.WithinCharacterLimit())
	})

	t.Run("linkedin boundary", func(t *testing.T) {
		post := &PendingPost{Platform: PlatformLinkedIn, Content: strings.Repeat("a", utils.LinkedInCharacterLimit)}
		assert.True(t, post.WithinCharacterLimit())

		post.Content += "a"
		assert.False(t, post.WithinCharacterLimit())
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		// 280 multi-byte characters fit even though the byte count is far higher
		post := &PendingPost{Platform: PlatformTwitter, Content: strings.Repeat("é", utils.TwitterCharacterLimit)}
		assert.True(t, post.WithinCharacterLimit())
	})
}

func TestIsDue(t *testing.T) {
	now := utils.UTCNow()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	t.Run("scheduled in the past is due", func(t *testing.T) {
		post := &PendingPost{Status: PostStatusScheduled, ScheduledFor: &past}
		assert.True(t, post.IsDue(now))
	})

	t.Run("scheduled exactly now is due", func(t *testing.T) {
		post := &PendingPost{Status: PostStatusScheduled, ScheduledFor: &now}
		assert.True(t, post.IsDue(now))
	})

	t.Run("scheduled in the future is not due", func(t *testing.T) {
		post := &PendingPost{Status: PostStatusScheduled, ScheduledFor: &future}
		assert.False(t, post.IsDue(now))
	})

	t.Run("unscheduled statuses are never due", func(t *testing.T) {
		post := &PendingPost{Status: PostStatusPendingApproval, ScheduledFor: &past}
		assert.False(t, post.IsDue(now))

		post = &PendingPost{Status: PostStatusScheduled}
		assert.False(t, post.IsDue(now))
	})
}

func TestStringListRoundTrip(t *testing.T) {
	t.Run("nil list stores as empty array", func(t *testing.T) {
		var l StringList
		v, err := l.Value()
		assert.NoError(t, err)
		assert.Equal(t, []byte("[]"), v)
	})

	t.Run("scan restores the list", func(t *testing.T) {
		var l StringList
		assert.NoError(t, l.Scan([]byte(`["CRE","PropTech"]`)))
		assert.Equal(t, StringList{"CRE", "PropTech"}, l)
	})

	t.Run("scan of nil yields an empty list", func(t *testing.T) {
		var l StringList
		assert.NoError(t, l.Scan(nil))
		assert.Equal(t, StringList{}, l)
	})
}
