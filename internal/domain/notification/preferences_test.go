package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences("cust-1")
	assert.Equal(t, "cust-1", prefs.RecipientID)
	require.Len(t, prefs.Channels, len(validChannels))
	for ch, pref := range prefs.Channels {
		assert.True(t, pref.Enabled, "channel %s", ch)
		assert.False(t, pref.Marketing, "channel %s", ch)
		assert.True(t, pref.OrderUpdates, "channel %s", ch)
		assert.True(t, pref.Reminders, "channel %s", ch)
	}
	assert.False(t, prefs.QuietHours.Enabled)
}

func TestQuietHours_ContainsSameDayWindow(t *testing.T) {
	q := QuietHours{Enabled: true, Start: "13:00", End: "15:00"}
	day := func(h, m int) time.Time {
		return time.Date(2026, 3, 14, h, m, 0, 0, time.UTC)
	}
	assert.False(t, q.Contains(day(12, 59)))
	assert.True(t, q.Contains(day(13, 0))) // start inclusive
	assert.True(t, q.Contains(day(14, 30)))
	assert.False(t, q.Contains(day(15, 0))) // end exclusive
}

func TestQuietHours_ContainsOvernightWindow(t *testing.T) {
	q := QuietHours{Enabled: true, Start: "22:00", End: "08:00"}
	day := func(h, m int) time.Time {
		return time.Date(2026, 3, 14, h, m, 0, 0, time.UTC)
	}
	assert.True(t, q.Contains(day(23, 30)))
	assert.True(t, q.Contains(day(2, 0)))
	assert.True(t, q.Contains(day(7, 59)))
	assert.False(t, q.Contains(day(8, 0)))
	assert.False(t, q.Contains(day(12, 0)))
	assert.False(t, q.Contains(day(21, 59)))
}

func TestQuietHours_DisabledOrMalformedNeverContains(t *testing.T) {
	assert.False(t, QuietHours{Start: "22:00", End: "08:00"}.Contains(time.Now()))
	assert.False(t, QuietHours{Enabled: true, Start: "25:00", End: "08:00"}.Contains(time.Now()))
	assert.False(t, QuietHours{Enabled: true, Start: "bogus", End: "08:00"}.Contains(time.Now()))
	assert.False(t, QuietHours{Enabled: true, Start: "08:00", End: "08:00"}.Contains(time.Now()))
}

func TestQuietHours_NextEnd(t *testing.T) {
	q := QuietHours{Enabled: true, Start: "22:00", End: "08:00"}

	// Before midnight the window ends tomorrow morning.
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), q.NextEnd(now))

	// After midnight it ends the same morning.
	now = time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), q.NextEnd(now))
}

func TestPreferenceResolver_FallsBackToDefaults(t *testing.T) {
	resolver := NewPreferenceResolver(&fakePreferenceSource{err: errors.New("connection refused")})
	prefs := resolver.Resolve(context.Background(), "cust-1")
	assert.True(t, prefs.Channels[ChannelSMS].Enabled)

	resolver = NewPreferenceResolver(&fakePreferenceSource{}) // nil, nil: no stored row
	prefs = resolver.Resolve(context.Background(), "cust-1")
	assert.True(t, prefs.Channels[ChannelEmail].Enabled)
}

func TestPreferenceResolver_ReturnsStoredPreferences(t *testing.T) {
	stored := DefaultPreferences("cust-1")
	pref := stored.Channels[ChannelSMS]
	pref.Enabled = false
	stored.Channels[ChannelSMS] = pref

	resolver := NewPreferenceResolver(&fakePreferenceSource{prefs: &stored})
	prefs := resolver.Resolve(context.Background(), "cust-1")
	assert.False(t, prefs.Channels[ChannelSMS].Enabled)
}
