package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techvault/retail-core/internal/domain/order"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"Pending", "Shipped", "Delivered", "Cancelled", "Completed"} {
		got, err := order.ParseStatus(s)
		require.NoError(t, err, s)
		assert.Equal(t, order.Status(s), got)
	}

	for _, s := range []string{"", "pending", "SHIPPED", "Returned", "Unknown"} {
		_, err := order.ParseStatus(s)
		var unknown *order.UnknownStatusError
		require.ErrorAs(t, err, &unknown, s)
		assert.Equal(t, s, unknown.Value)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, order.StatusPending.Terminal())
	assert.False(t, order.StatusShipped.Terminal())
	assert.True(t, order.StatusDelivered.Terminal())
	assert.True(t, order.StatusCancelled.Terminal())
	assert.True(t, order.StatusCompleted.Terminal())
}

func TestParseChannel(t *testing.T) {
	for _, s := range []string{"Online", "POS"} {
		got, err := order.ParseChannel(s)
		require.NoError(t, err)
		assert.Equal(t, order.Channel(s), got)
	}

	for _, s := range []string{"", "online", "pos", "Phone"} {
		_, err := order.ParseChannel(s)
		var verr *order.ValidationError
		require.ErrorAs(t, err, &verr, s)
		assert.Equal(t, "channel", verr.Field)
	}
}

func TestOrderShortID(t *testing.T) {
	o := &order.Order{ID: "a3f8c2d1-4b6e-4f9a-8c1d-2e5f7a9b0c3d"}
	assert.Equal(t, "9B0C3D", o.ShortID())

	short := &order.Order{ID: "ab12"}
	assert.Equal(t, "AB12", short.ShortID())
}
