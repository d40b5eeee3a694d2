package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Placeholders(t *testing.T) {
	tmpl := &NotificationTemplate{
		Subject: "Order {order_id}",
		Body:    "Hi {name}, order {order_id} totals {total}.",
	}
	assert.Equal(t, []string{"name", "order_id", "total"}, tmpl.Placeholders())
}

func TestTemplate_ValidateOK(t *testing.T) {
	tmpl := &NotificationTemplate{
		Category:  CategoryOrderConfirmation,
		Channel:   ChannelSMS,
		Body:      "Order {order_id} confirmed.",
		Variables: []string{"order_id"},
	}
	require.NoError(t, tmpl.Validate())
}

func TestTemplate_ValidateUndeclaredPlaceholder(t *testing.T) {
	tmpl := &NotificationTemplate{
		Category:  CategoryOrderConfirmation,
		Channel:   ChannelSMS,
		Body:      "Order {order_id} for {name}.",
		Variables: []string{"order_id"},
	}
	err := tmpl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{name}")
}

func TestTemplate_ValidateRejectsBadEnumsAndEmptyBody(t *testing.T) {
	assert.Error(t, (&NotificationTemplate{Category: CategoryOrderStatus, Channel: ChannelSMS}).Validate())
	assert.Error(t, (&NotificationTemplate{Category: "spam", Channel: ChannelSMS, Body: "x"}).Validate())
	assert.Error(t, (&NotificationTemplate{Category: CategoryOrderStatus, Channel: "fax", Body: "x"}).Validate())
}
