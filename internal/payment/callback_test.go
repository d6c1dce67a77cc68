package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
)

func TestValidateCallback(t *testing.T) {
	c := NewWithEndpoints(config.PhonePe{WebhookUsername: "hook", WebhookPassword: "pass"}, "", "", nil)
	good := WebhookAuthorization("hook", "pass")
	body := []byte(`{"event":"checkout.order.completed","payload":{"merchantOrderId":"ORD_1","state":"COMPLETED"}}`)

	tests := []struct {
		name   string
		header string
		body   []byte
		err    error
	}{
		{name: "missing header", header: "", body: body, err: ErrMissingAuthorization},
		{name: "wrong header", header: WebhookAuthorization("hook", "nope"), body: body, err: ErrInvalidAuthorization},
		{name: "bad json", header: good, body: []byte(`{`), err: ErrInvalidCallback},
		{name: "empty object", header: good, body: []byte(`{}`), err: ErrInvalidCallback},
		{name: "ok", header: good, body: body},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := c.ValidateCallback(tt.header, tt.body)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ORD_1", cb.MerchantOrderID())
			assert.Equal(t, StateCompleted, cb.CheckoutState())
			assert.JSONEq(t, string(body), string(cb.Raw))
		})
	}
}

func TestCallbackState(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"type":"CHECKOUT_ORDER_COMPLETED","payload":{"originalMerchantOrderId":"A"}}`, StateCompleted},
		{`{"type":"CHECKOUT_ORDER_FAILED","payload":{"originalMerchantOrderId":"A"}}`, StateFailed},
		{`{"event":"checkout.order.failed","payload":{"merchantOrderId":"A"}}`, StateFailed},
		{`{"event":"checkout.order.completed","payload":{"merchantOrderId":"A","state":"FAILED"}}`, StateFailed},
		{`{"event":"something.else","payload":{"merchantOrderId":"A"}}`, StatePending},
	}

	for _, tt := range tests {
		cb, err := ParseCallback([]byte(tt.body))
		require.NoError(t, err)
		assert.Equal(t, tt.want, cb.CheckoutState(), tt.body)
		assert.Equal(t, "A", cb.MerchantOrderID())
	}
}

func TestMerchantOrderIDFallback(t *testing.T) {
	cb, err := ParseCallback([]byte(`{"event":"x","payload":{"merchantOrderId":"M","originalMerchantOrderId":"O"}}`))
	require.NoError(t, err)
	assert.Equal(t, "M", cb.MerchantOrderID())

	cb, err = ParseCallback([]byte(`{"event":"x","payload":{"originalMerchantOrderId":"O"}}`))
	require.NoError(t, err)
	assert.Equal(t, "O", cb.MerchantOrderID())
}

func TestWebhookAuthorization(t *testing.T) {
	// sha256("user:pass")
	assert.Equal(t, "ef4c914c591698b268db3c64163eafda7209a630f236ebf0eebf045460df723a", WebhookAuthorization("user", "pass"))
}
