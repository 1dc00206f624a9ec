package bot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splashbot/core/sessions"
	"splashbot/core/unsplash"
)

func strptr(s string) *string { return &s }

func samplePhoto() unsplash.Photo {
	return unsplash.Photo{
		ID:             "abc123",
		Description:    strptr("Foggy ridge at dawn"),
		AltDescription: strptr("mountains in fog"),
		Width:          4000,
		Height:         3000,
		Likes:          42,
		User: unsplash.User{
			Name:  "Jane Doe",
			Links: unsplash.UserLinks{HTML: "https://unsplash.com/@janedoe"},
		},
		Links: unsplash.PhotoLinks{HTML: "https://unsplash.com/photos/abc123"},
	}
}

func TestPhotoCaptionPrivate(t *testing.T) {
	q := quotaStats{Remaining: 37, Max: 50}
	caption := photoCaption(samplePhoto(), true, q)

	assert.Contains(t, caption, "Foggy ridge at dawn")
	assert.Contains(t, caption, "Jane Doe")
	assert.Contains(t, caption, "https://unsplash.com/@janedoe")
	assert.Contains(t, caption, "💚 42")
	assert.Contains(t, caption, "4000x3000")
	assert.Contains(t, caption, "37/50")
}

func TestPhotoCaptionGroupIsCompact(t *testing.T) {
	q := quotaStats{Remaining: 37, Max: 50}
	caption := photoCaption(samplePhoto(), false, q)

	// Group captions use the alt text and skip dimensions and profile link.
	assert.Contains(t, caption, "mountains in fog")
	assert.NotContains(t, caption, "4000x3000")
	assert.NotContains(t, caption, "https://unsplash.com/@janedoe")
}

func TestPhotoCaptionMissingDescriptions(t *testing.T) {
	p := samplePhoto()
	p.Description = nil
	p.AltDescription = nil

	caption := photoCaption(p, true, quotaStats{Remaining: 1, Max: 50})
	assert.Contains(t, caption, "Photo")
}

func TestQuotaLineShowsResetOnlyWhenLow(t *testing.T) {
	plenty := quotaStats{Remaining: 30, Max: 50, ResetIn: 10 * time.Minute, HasReset: true}
	assert.NotContains(t, plenty.line(), "reset")

	low := quotaStats{Remaining: 3, Max: 50, ResetIn: 90 * time.Second, HasReset: true}
	assert.Contains(t, low.line(), "reset 1:30")
}

func TestFormatETA(t *testing.T) {
	assert.Equal(t, "1:30", formatETA(90*time.Second))
	assert.Equal(t, "0:05", formatETA(5*time.Second))
	assert.Equal(t, "59:59", formatETA(3599*time.Second))
	assert.Equal(t, "0:00", formatETA(-time.Second))
}

func TestStatsText(t *testing.T) {
	exhausted := statsText(quotaStats{Remaining: 0, Max: 50, ResetIn: 5 * time.Minute, HasReset: true}, false)
	assert.Contains(t, exhausted, "0/50")
	assert.Contains(t, exhausted, "Resets in")

	low := statsText(quotaStats{Remaining: 4, Max: 50, ResetIn: 5 * time.Minute, HasReset: true}, false)
	assert.Contains(t, low, "Next reset")

	fresh := statsText(quotaStats{Remaining: 50, Max: 50}, true)
	assert.NotContains(t, fresh, "reset")
	assert.Contains(t, fresh, "Mention me")
}

func TestErrorText(t *testing.T) {
	assert.Contains(t, errorText(&unsplash.QuotaError{ResetIn: 2 * time.Minute}), "2:00")
	assert.Contains(t, errorText(unsplash.ErrThrottled), "throttling")
	assert.Contains(t, errorText(unsplash.ErrTimeout), "timed out")
	assert.Contains(t, errorText(&unsplash.APIError{Status: 503}), "503")
	assert.Contains(t, errorText(errors.New("boom")), "went wrong")
}

func TestFilterParams(t *testing.T) {
	assert.Equal(t, "landscape", filterParams("landscape").Orientation)
	assert.Equal(t, "portrait", filterParams("portrait").Orientation)
	assert.Equal(t, "black_and_white", filterParams("black_and_white").Color)
	assert.Equal(t, "blue", filterParams("blue").Color)
	assert.Empty(t, filterParams("blue").Orientation)
}

func TestControlsKeyboard(t *testing.T) {
	key := sessions.Key{ChatID: -100123, UserID: 42}

	nav := controlsKeyboard(key, true, true, "https://unsplash.com/photos/abc123")
	require.Len(t, nav.InlineKeyboard, 3)
	assert.Len(t, nav.InlineKeyboard[0], 3, "nav row has prev/refresh/next")
	assert.Len(t, nav.InlineKeyboard[1], 1, "filters row")
	assert.Equal(t, "https://unsplash.com/photos/abc123", nav.InlineKeyboard[2][0].URL)

	// Group chat without a session: single refresh button plus the link.
	plain := controlsKeyboard(key, false, false, "https://unsplash.com/photos/abc123")
	require.Len(t, plain.InlineKeyboard, 2)
	assert.Len(t, plain.InlineKeyboard[0], 1)

	// Back target omits the link row when no photo URL is supplied.
	bare := controlsKeyboard(key, true, false, "")
	require.Len(t, bare.InlineKeyboard, 2)
}

func TestSessionPayloadRoundTrip(t *testing.T) {
	key := sessions.Key{ChatID: -1001234567890, UserID: 987654321}
	assert.Equal(t, "-1001234567890|987654321", sessionPayload(key))
}
