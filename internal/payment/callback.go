package payment

import (
	"crypto/subtle"
	"encoding/json"
	"strings"
)

// Checkout callback events.
const (
	EventCheckoutCompleted       = "checkout.order.completed"
	EventCheckoutFailed          = "checkout.order.failed"
	LegacyEventCheckoutCompleted = "CHECKOUT_ORDER_COMPLETED"
	LegacyEventCheckoutFailed    = "CHECKOUT_ORDER_FAILED"
)

// CallbackPayload is the order part of a server to server notification.
type CallbackPayload struct {
	OrderID                 string          `json:"orderId"`
	MerchantOrderIDValue    string          `json:"merchantOrderId"`
	OriginalMerchantOrderID string          `json:"originalMerchantOrderId"`
	MerchantSubscriptionID  string          `json:"merchantSubscriptionId"`
	State                   string          `json:"state"`
	Amount                  int64           `json:"amount"`
	PaymentDetails          []PaymentDetail `json:"paymentDetails"`
	PaymentFlow             struct {
		SubscriptionID         string `json:"subscriptionId"`
		MerchantSubscriptionID string `json:"merchantSubscriptionId"`
	} `json:"paymentFlow"`
}

// Callback is a decoded webhook body.
type Callback struct {
	Event   string          `json:"event"`
	Type    string          `json:"type"`
	Payload CallbackPayload `json:"payload"`
	Raw     json.RawMessage `json:"-"`
}

// Name returns the event name, older notifications only carry type.
func (c *Callback) Name() string {
	if c.Event != "" {
		return c.Event
	}

	return c.Type
}

// MerchantOrderID returns our order id for the notification.
func (c *Callback) MerchantOrderID() string {
	if c.Payload.MerchantOrderIDValue != "" {
		return c.Payload.MerchantOrderIDValue
	}

	return c.Payload.OriginalMerchantOrderID
}

// MerchantSubscriptionID returns our subscription id, state change events carry it at the top of the payload.
func (c *Callback) MerchantSubscriptionID() string {
	if c.Payload.MerchantSubscriptionID != "" {
		return c.Payload.MerchantSubscriptionID
	}

	return c.Payload.PaymentFlow.MerchantSubscriptionID
}

// CheckoutState maps the notification onto COMPLETED, FAILED or PENDING.
// The payload state wins, the event name is used when it is missing.
func (c *Callback) CheckoutState() string {
	switch strings.ToUpper(c.Payload.State) {
	case StateCompleted:
		return StateCompleted
	case StateFailed:
		return StateFailed
	}

	switch c.Name() {
	case EventCheckoutCompleted, LegacyEventCheckoutCompleted:
		return StateCompleted
	case EventCheckoutFailed, LegacyEventCheckoutFailed:
		return StateFailed
	default:
		return StatePending
	}
}

// TransactionID returns the first payment attempt id.
func (c *Callback) TransactionID() string {
	if len(c.Payload.PaymentDetails) == 0 {
		return ""
	}

	return c.Payload.PaymentDetails[0].TransactionID
}

// ErrorCode returns the first payment attempt error code.
func (c *Callback) ErrorCode() string {
	if len(c.Payload.PaymentDetails) == 0 {
		return ""
	}

	return c.Payload.PaymentDetails[0].ErrorCode
}

// WebhookConfigured tells whether webhook credentials are set.
func (c *Client) WebhookConfigured() bool {
	return c.webhookAuth != ""
}

// Authorize checks the Authorization header of a notification.
func (c *Client) Authorize(authHeader string) error {
	if authHeader == "" {
		return ErrMissingAuthorization
	}

	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(c.webhookAuth)) != 1 {
		return ErrInvalidAuthorization
	}

	return nil
}

// ValidateCallback authorizes and decodes a notification.
func (c *Client) ValidateCallback(authHeader string, body []byte) (*Callback, error) {
	if err := c.Authorize(authHeader); err != nil {
		return nil, err
	}

	return ParseCallback(body)
}

// ParseCallback decodes a notification without checking its origin.
func ParseCallback(body []byte) (*Callback, error) {
	var cb Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, ErrInvalidCallback
	}

	if cb.Name() == "" && cb.MerchantOrderID() == "" && cb.MerchantSubscriptionID() == "" {
		return nil, ErrInvalidCallback
	}

	cb.Raw = append(json.RawMessage(nil), body...)

	return &cb, nil
}
