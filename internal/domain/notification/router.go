package notification

import "time"

// Route is the outcome of channel routing for one request: either the subset
// of requested channels that preferences allow right now, or a deferral of
// the entire request until the quiet-hours window closes.
type Route struct {
	Allowed  []Channel
	Deferred bool
	ResumeAt time.Time
}

// RouteChannels computes which of the requested channels may be attempted.
//
// Each requested channel survives only if the recipient enabled the channel
// and its category sub-flag. Preference drops are silent: a dropped channel
// produces no status entry, it was never attempted. When quiet hours cover
// now and the priority is not critical, the whole request is deferred rather
// than dispatched, regardless of which channels survived filtering.
//
// An empty allowed set is not an error; the orchestrator returns an empty
// status list for it.
func RouteChannels(requested []Channel, cat Category, prefs NotificationPreferences, prio Priority, now time.Time) Route {
	allowed := make([]Channel, 0, len(requested))
	for _, ch := range requested {
		pref := prefs.ChannelPref(ch)
		if !pref.Enabled {
			continue
		}
		if !pref.AllowsCategory(cat) {
			continue
		}
		allowed = append(allowed, ch)
	}

	if prio != PriorityCritical && prefs.QuietHours.Contains(now) {
		return Route{Deferred: true, ResumeAt: prefs.QuietHours.NextEnd(now)}
	}

	return Route{Allowed: allowed}
}
