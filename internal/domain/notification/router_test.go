package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func routingPrefs() NotificationPreferences {
	return DefaultPreferences("cust-1")
}

func TestRouteChannels_DisabledChannelExcludedForEveryCategory(t *testing.T) {
	prefs := routingPrefs()
	pref := prefs.Channels[ChannelSMS]
	pref.Enabled = false
	prefs.Channels[ChannelSMS] = pref

	for cat := range validCategories {
		route := RouteChannels([]Channel{ChannelSMS, ChannelEmail}, cat, prefs, PriorityNormal, time.Now())
		assert.NotContains(t, route.Allowed, ChannelSMS, "category %s", cat)
	}
}

func TestRouteChannels_MarketingFlagGatesMarketingAndPromotion(t *testing.T) {
	prefs := routingPrefs() // defaults keep marketing off

	for _, cat := range []Category{CategoryMarketing, CategoryPromotion} {
		route := RouteChannels([]Channel{ChannelEmail}, cat, prefs, PriorityNormal, time.Now())
		assert.Empty(t, route.Allowed, "category %s", cat)
	}

	pref := prefs.Channels[ChannelEmail]
	pref.Marketing = true
	prefs.Channels[ChannelEmail] = pref
	route := RouteChannels([]Channel{ChannelEmail}, CategoryMarketing, prefs, PriorityNormal, time.Now())
	assert.Equal(t, []Channel{ChannelEmail}, route.Allowed)
}

func TestRouteChannels_RemindersFlagGatesReservationReminder(t *testing.T) {
	prefs := routingPrefs()
	pref := prefs.Channels[ChannelSMS]
	pref.Reminders = false
	prefs.Channels[ChannelSMS] = pref

	route := RouteChannels([]Channel{ChannelSMS}, CategoryReservationReminder, prefs, PriorityNormal, time.Now())
	assert.Empty(t, route.Allowed)

	// The same flag does not affect order categories.
	route = RouteChannels([]Channel{ChannelSMS}, CategoryOrderStatus, prefs, PriorityNormal, time.Now())
	assert.Equal(t, []Channel{ChannelSMS}, route.Allowed)
}

func TestRouteChannels_OrderUpdatesIsTheDefaultBucket(t *testing.T) {
	prefs := routingPrefs()
	pref := prefs.Channels[ChannelPush]
	pref.OrderUpdates = false
	prefs.Channels[ChannelPush] = pref

	for _, cat := range []Category{CategoryOrderConfirmation, CategorySystemAlert, CategoryBirthday, CategoryLoyaltyPoints} {
		route := RouteChannels([]Channel{ChannelPush}, cat, prefs, PriorityNormal, time.Now())
		assert.Empty(t, route.Allowed, "category %s", cat)
	}
}

func TestRouteChannels_UnknownChannelHasNoEntryAndIsDropped(t *testing.T) {
	prefs := NotificationPreferences{Channels: map[Channel]ChannelPreference{}}
	route := RouteChannels([]Channel{ChannelSMS}, CategoryOrderStatus, prefs, PriorityNormal, time.Now())
	assert.Empty(t, route.Allowed)
}

func TestRouteChannels_OvernightQuietHoursDefer(t *testing.T) {
	prefs := routingPrefs()
	prefs.QuietHours = QuietHours{Enabled: true, Start: "22:00", End: "08:00"}
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	route := RouteChannels([]Channel{ChannelSMS}, CategoryOrderStatus, prefs, PriorityNormal, now)
	assert.True(t, route.Deferred)
	assert.Equal(t, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), route.ResumeAt)

	// Early morning, still inside the wrapped window.
	now = time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC)
	route = RouteChannels([]Channel{ChannelSMS}, CategoryOrderStatus, prefs, PriorityNormal, now)
	assert.True(t, route.Deferred)
	assert.Equal(t, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), route.ResumeAt)
}

func TestRouteChannels_CriticalIgnoresQuietHours(t *testing.T) {
	prefs := routingPrefs()
	prefs.QuietHours = QuietHours{Enabled: true, Start: "22:00", End: "08:00"}
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	route := RouteChannels([]Channel{ChannelSMS}, CategoryOrderStatus, prefs, PriorityCritical, now)
	assert.False(t, route.Deferred)
	assert.Equal(t, []Channel{ChannelSMS}, route.Allowed)
}

func TestRouteChannels_OutsideQuietHoursNoDeferral(t *testing.T) {
	prefs := routingPrefs()
	prefs.QuietHours = QuietHours{Enabled: true, Start: "22:00", End: "08:00"}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	route := RouteChannels([]Channel{ChannelSMS}, CategoryOrderStatus, prefs, PriorityLow, now)
	assert.False(t, route.Deferred)
	assert.Equal(t, []Channel{ChannelSMS}, route.Allowed)
}
