package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinenotify/internal/common"
)

type fakeRateLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeRateLimiter) Allow(ctx context.Context, recipientID string) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

type serviceFixture struct {
	service  *Service
	limiter  *fakeRateLimiter
	statuses *memoryStatusStore
	provider *fakeProvider
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	provider := &fakeProvider{channel: ChannelSMS, name: "kavenegar", messageID: "sms-1"}
	fx := newDispatcherFixture(t, provider)
	limiter := &fakeRateLimiter{allowed: true}
	return &serviceFixture{
		service:  NewService(fx.dispatcher, fx.statuses, limiter),
		limiter:  limiter,
		statuses: fx.statuses,
		provider: provider,
	}
}

func validDispatchRequest() *DispatchRequest {
	return &DispatchRequest{
		Category:   CategoryOrderConfirmation,
		Channels:   []Channel{ChannelSMS},
		Recipient:  Recipient{ID: "cust-1", Phone: "+989121234567"},
		TemplateID: "tpl-order",
		Variables: []TemplateVariable{
			{Key: "order_id", Value: "A-100"},
			{Key: "total", Value: float64(125000), Format: FormatCurrency},
		},
	}
}

func TestService_DispatchHappyPath(t *testing.T) {
	fx := newServiceFixture(t)

	resp, err := fx.service.Dispatch(context.Background(), validDispatchRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Statuses, 1)
	assert.Equal(t, StateSent, resp.Statuses[0].State)
	assert.Equal(t, 1, fx.limiter.calls)
}

func TestService_DispatchRejectsUnknownEnums(t *testing.T) {
	fx := newServiceFixture(t)
	var verr *common.ValidationError

	req := validDispatchRequest()
	req.Category = "spam"
	_, err := fx.service.Dispatch(context.Background(), req)
	require.ErrorAs(t, err, &verr)

	req = validDispatchRequest()
	req.Channels = []Channel{"fax"}
	_, err = fx.service.Dispatch(context.Background(), req)
	require.ErrorAs(t, err, &verr)

	req = validDispatchRequest()
	req.Priority = "urgent"
	_, err = fx.service.Dispatch(context.Background(), req)
	require.ErrorAs(t, err, &verr)

	req = validDispatchRequest()
	req.Variables = []TemplateVariable{{Key: "x", Value: "1", Format: "percent"}}
	_, err = fx.service.Dispatch(context.Background(), req)
	require.ErrorAs(t, err, &verr)

	req = validDispatchRequest()
	req.Recipient.ID = ""
	_, err = fx.service.Dispatch(context.Background(), req)
	require.ErrorAs(t, err, &verr)
}

func TestService_DispatchDefaultsPriorityToNormal(t *testing.T) {
	fx := newServiceFixture(t)
	req := validDispatchRequest()
	req.Priority = ""

	resp, err := fx.service.Dispatch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Statuses, 1)
}

func TestService_RateLimitExceeded(t *testing.T) {
	fx := newServiceFixture(t)
	fx.limiter.allowed = false

	_, err := fx.service.Dispatch(context.Background(), validDispatchRequest())
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, fx.provider.callCount())
}

func TestService_RateLimitSkippedForCritical(t *testing.T) {
	fx := newServiceFixture(t)
	fx.limiter.allowed = false

	req := validDispatchRequest()
	req.Priority = PriorityCritical

	resp, err := fx.service.Dispatch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Statuses, 1)
	assert.Zero(t, fx.limiter.calls)
}

func TestService_RateLimitFailsOpen(t *testing.T) {
	fx := newServiceFixture(t)
	fx.limiter.allowed = false
	fx.limiter.err = errors.New("redis down")

	resp, err := fx.service.Dispatch(context.Background(), validDispatchRequest())
	require.NoError(t, err)
	require.Len(t, resp.Statuses, 1)
}

func TestService_GetStatus(t *testing.T) {
	fx := newServiceFixture(t)
	st := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	require.NoError(t, fx.statuses.Create(context.Background(), st))

	got, err := fx.service.GetStatus(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)

	_, err = fx.service.GetStatus(context.Background(), "missing")
	var nferr *common.NotFoundError
	require.ErrorAs(t, err, &nferr)
}

func TestService_ListStatusesDefaultsPagination(t *testing.T) {
	fx := newServiceFixture(t)

	resp, err := fx.service.ListStatuses(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
}

func TestService_HandleReceipt(t *testing.T) {
	fx := newServiceFixture(t)

	st := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	st.MarkSent("prov-77")
	require.NoError(t, fx.statuses.Create(context.Background(), st))

	require.NoError(t, fx.service.HandleReceipt(context.Background(), "prov-77", StateDelivered))
	got, err := fx.statuses.GetByID(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, got.State)

	var verr *common.ValidationError
	require.ErrorAs(t, fx.service.HandleReceipt(context.Background(), "", StateDelivered), &verr)
	require.ErrorAs(t, fx.service.HandleReceipt(context.Background(), "prov-77", StateSent), &verr)
}

func TestService_HandleReceiptNeverReentersTerminalState(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	st := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	st.MarkSent("sms-9")
	require.NoError(t, fx.statuses.Create(ctx, st))

	// An expired receipt does not apply to a sent status.
	require.NoError(t, fx.service.HandleReceipt(ctx, "sms-9", StateExpired))
	got, err := fx.statuses.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSent, got.State)

	require.NoError(t, fx.service.HandleReceipt(ctx, "sms-9", StateDelivered))
	got, err = fx.statuses.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, got.State)

	// A conflicting receipt after the terminal state is dropped.
	require.NoError(t, fx.service.HandleReceipt(ctx, "sms-9", StateExpired))
	got, err = fx.statuses.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, got.State)
}

func TestService_ListStatusesNormalizesBeforeQuery(t *testing.T) {
	fx := newServiceFixture(t)

	resp, err := fx.service.ListStatuses(context.Background(), ListFilter{Page: -3, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)

	// The store saw the same normalized values the response echoes.
	assert.Equal(t, 1, fx.statuses.lastFilter.Page)
	assert.Equal(t, 20, fx.statuses.lastFilter.PageSize)
}

func TestService_HandleReceiptExpiry(t *testing.T) {
	fx := newServiceFixture(t)

	st := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	st.ProviderMessageID = "prov-88"
	require.NoError(t, fx.statuses.Create(context.Background(), st))

	require.NoError(t, fx.service.HandleReceipt(context.Background(), "prov-88", StateExpired))
	got, err := fx.statuses.GetByID(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateExpired, got.State)
}

func TestSweeper_ExpiresPendingStatuses(t *testing.T) {
	statuses := newMemoryStatusStore()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	stale := NewStatus(testRequest(ChannelSMS), ChannelSMS)
	stale.ExpiresAt = &past
	fresh := NewStatus(testRequest(ChannelEmail), ChannelEmail)
	fresh.ExpiresAt = &future
	done := NewStatus(testRequest(ChannelPush), ChannelPush)
	done.ExpiresAt = &past
	done.MarkSent("prov-1")

	ctx := context.Background()
	require.NoError(t, statuses.Create(ctx, stale))
	require.NoError(t, statuses.Create(ctx, fresh))
	require.NoError(t, statuses.Create(ctx, done))

	sweeper := NewSweeper(statuses, SweeperConfig{Interval: time.Minute, BatchSize: 10})
	sweeper.sweep(ctx)

	got, _ := statuses.GetByID(ctx, stale.ID)
	assert.Equal(t, StateExpired, got.State)
	got, _ = statuses.GetByID(ctx, fresh.ID)
	assert.Equal(t, StatePending, got.State)
	got, _ = statuses.GetByID(ctx, done.ID)
	assert.Equal(t, StateSent, got.State)
}
