package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dinenotify/internal/common"
)

// Dispatcher is the single entry point of the dispatch core. It resolves
// preferences, routes channels, renders the template once and fans the
// request out to one provider per allowed channel, collecting one status per
// attempted channel. Partial failure is the normal, expected outcome: no
// channel's failure short-circuits another, and no error escapes for
// per-channel problems.
type Dispatcher struct {
	templates       TemplateSource
	prefs           *PreferenceResolver
	registry        *Registry
	scheduler       Scheduler
	statuses        StatusStore
	renderer        *Renderer
	providerTimeout time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewDispatcher creates a dispatch orchestrator. The status store may be nil
// when delivery history is not wanted (history is log-and-continue anyway).
func NewDispatcher(
	templates TemplateSource,
	prefs *PreferenceResolver,
	registry *Registry,
	scheduler Scheduler,
	statuses StatusStore,
	renderer *Renderer,
	providerTimeout time.Duration,
) *Dispatcher {
	if providerTimeout <= 0 {
		providerTimeout = 10 * time.Second
	}
	return &Dispatcher{
		templates:       templates,
		prefs:           prefs,
		registry:        registry,
		scheduler:       scheduler,
		statuses:        statuses,
		renderer:        renderer,
		providerTimeout: providerTimeout,
		now:             time.Now,
	}
}

// Dispatch fans one request out across its allowed channels and returns the
// aggregated per-channel statuses. The returned error is reserved for
// infrastructure failures around deferral; every delivery problem is
// reported through the status list instead.
func (d *Dispatcher) Dispatch(ctx context.Context, req *NotificationRequest) ([]*NotificationStatus, error) {
	now := d.now()

	// A future scheduled-at takes the same path as quiet-hours deferral.
	if req.ScheduledAt != nil && req.ScheduledAt.After(now) {
		return d.deferUntil(ctx, req, *req.ScheduledAt)
	}

	prefs := d.prefs.Resolve(ctx, req.Recipient.ID)

	route := RouteChannels(req.Channels, req.Category, prefs, req.Priority, now)
	if route.Deferred {
		return d.deferUntil(ctx, req, route.ResumeAt)
	}
	if len(route.Allowed) == 0 {
		slog.Info("no channels allowed by preferences",
			"request_id", req.ID,
			"recipient_id", req.Recipient.ID,
			"category", req.Category,
		)
		return []*NotificationStatus{}, nil
	}

	tmpl, err := d.templates.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		slog.Error("template lookup failed", "template_id", req.TemplateID, "error", err)
		return d.failAll(ctx, req, fmt.Errorf("template lookup: %w", err)), nil
	}
	if tmpl == nil {
		return d.failAll(ctx, req, common.NewMissingDataError("template", req.TemplateID)), nil
	}
	if !tmpl.Active {
		return d.failAll(ctx, req, common.NewMissingDataError("active template", req.TemplateID)), nil
	}

	locale := req.Recipient.Language
	if locale == "" {
		locale = prefs.Language
	}
	renderer := d.renderer.WithLocale(locale)
	body := renderer.Render(tmpl.Body, req.Variables)
	subject := renderer.Render(tmpl.Subject, req.Variables)

	return d.fanOut(ctx, req, route.Allowed, subject, body), nil
}

// fanOut attempts each allowed channel independently and concurrently,
// waiting for all attempts to finish. On cancellation no further channel is
// started; in-flight provider calls keep running on their own and the
// statuses collected so far are returned immediately.
func (d *Dispatcher) fanOut(ctx context.Context, req *NotificationRequest, allowed []Channel, subject, body string) []*NotificationStatus {
	results := make([]*NotificationStatus, 0, len(allowed))
	resCh := make(chan *NotificationStatus, len(allowed))

	inFlight := 0
	for _, ch := range allowed {
		if ctx.Err() != nil {
			break
		}

		addr := req.Recipient.AddressFor(ch)
		if addr == "" {
			st := NewStatus(req, ch)
			st.MarkFailed(common.NewMissingDataError("address for channel", string(ch)))
			d.createStatus(ctx, st)
			results = append(results, st)
			continue
		}

		chSubject := ""
		if ch == ChannelEmail {
			chSubject = subject
		}

		inFlight++
		go func(ch Channel, addr, subject string) {
			resCh <- d.attempt(ctx, req, ch, addr, subject, body)
		}(ch, addr, chSubject)
	}

	for i := 0; i < inFlight; i++ {
		select {
		case st := <-resCh:
			results = append(results, st)
		case <-ctx.Done():
			return results
		}
	}
	return results
}

// attempt performs one channel delivery: create the pending status, invoke
// the provider under the per-provider timeout, record the terminal state.
func (d *Dispatcher) attempt(ctx context.Context, req *NotificationRequest, ch Channel, addr, subject, body string) *NotificationStatus {
	st := NewStatus(req, ch)
	d.createStatus(ctx, st)

	provider, ok := d.registry.For(ch)
	if !ok {
		st.MarkFailed(common.NewConfigError(string(ch), "no active provider"))
		d.updateStatus(ctx, st)
		return st
	}

	callCtx, cancel := context.WithTimeout(ctx, d.providerTimeout)
	defer cancel()

	msg := &Message{To: addr, Subject: subject, Body: body, Metadata: req.Metadata}
	providerMessageID, err := provider.Send(callCtx, msg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = common.NewProviderError(provider.Name(), fmt.Sprintf("timeout after %s", d.providerTimeout))
		} else {
			err = common.NewProviderError(provider.Name(), err.Error())
		}
		st.MarkFailed(err)
		d.updateStatus(ctx, st)
		slog.Error("channel delivery failed",
			"request_id", req.ID,
			"channel", ch,
			"provider", provider.Name(),
			"error", err,
		)
		return st
	}

	st.MarkSent(providerMessageID)
	d.updateStatus(ctx, st)
	slog.Info("channel delivery succeeded",
		"request_id", req.ID,
		"channel", ch,
		"provider", provider.Name(),
		"provider_message_id", providerMessageID,
	)
	return st
}

// deferUntil produces the pending placeholder result and hands the request
// to the external scheduler for re-presentation once the window ends.
func (d *Dispatcher) deferUntil(ctx context.Context, req *NotificationRequest, resumeAt time.Time) ([]*NotificationStatus, error) {
	if d.scheduler == nil {
		return nil, common.NewConfigError("scheduler", "deferral required but no scheduler configured")
	}

	statuses := deferredStatuses(req, resumeAt)
	for _, st := range statuses {
		d.createStatus(ctx, st)
	}

	if err := d.scheduler.RunLater(ctx, req, resumeAt); err != nil {
		return nil, fmt.Errorf("scheduling deferred dispatch: %w", err)
	}

	slog.Info("request deferred",
		"request_id", req.ID,
		"recipient_id", req.Recipient.ID,
		"resume_at", resumeAt,
		"channels", len(req.Channels),
	)
	return statuses, nil
}

// failAll is the request-fatal path: one synthetic failed status per
// requested channel, sharing the same error.
func (d *Dispatcher) failAll(ctx context.Context, req *NotificationRequest, err error) []*NotificationStatus {
	statuses := make([]*NotificationStatus, 0, len(req.Channels))
	for _, ch := range req.Channels {
		st := NewStatus(req, ch)
		st.MarkFailed(err)
		d.createStatus(ctx, st)
		statuses = append(statuses, st)
	}
	return statuses
}

// createStatus records a new status. History writes survive dispatch
// cancellation and never fail delivery.
func (d *Dispatcher) createStatus(ctx context.Context, st *NotificationStatus) {
	if d.statuses == nil {
		return
	}
	if err := d.statuses.Create(context.WithoutCancel(ctx), st); err != nil {
		slog.Error("failed to record status", "status_id", st.ID, "request_id", st.RequestID, "error", err)
	}
}

// updateStatus persists a status transition, same policy as createStatus.
func (d *Dispatcher) updateStatus(ctx context.Context, st *NotificationStatus) {
	if d.statuses == nil {
		return
	}
	if err := d.statuses.Update(context.WithoutCancel(ctx), st); err != nil {
		slog.Error("failed to update status", "status_id", st.ID, "request_id", st.RequestID, "error", err)
	}
}
