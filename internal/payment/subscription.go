package payment

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Subscription defaults.
const (
	FrequencyYearly       = "YEARLY"
	AmountTypeFixed       = "FIXED"
	AuthWorkflowTransact  = "TRANSACTION"
	RetryStrategyStandard = "STANDARD"

	setupOrderTTL      = 5 * time.Minute
	subscriptionTTL    = 30 * 365 * 24 * time.Hour
	redemptionNotifyIn = 48 * time.Hour
)

// SetupRequest starts a UPI AutoPay mandate collected from a VPA.
type SetupRequest struct {
	MerchantOrderID        string
	MerchantSubscriptionID string
	AmountPaise            int64
	VPA                    string
	Frequency              string
	AmountType             string
	AuthWorkflowType       string
}

// SetupResponse is the created setup order.
type SetupResponse struct {
	OrderID   string `json:"orderId"`
	State     string `json:"state"`
	ExpireAt  int64  `json:"expireAt"`
	IntentURL string `json:"intentUrl,omitempty"`
}

// SubscriptionStatus is the state of a mandate.
type SubscriptionStatus struct {
	SubscriptionID         string `json:"subscriptionId"`
	MerchantSubscriptionID string `json:"merchantSubscriptionId"`
	State                  string `json:"state"`
	AuthWorkflowType       string `json:"authWorkflowType"`
	AmountType             string `json:"amountType"`
	MaxAmount              int64  `json:"maxAmount"`
	Frequency              string `json:"frequency"`
	ExpireAt               int64  `json:"expireAt"`
	PauseStartDate         int64  `json:"pauseStartDate,omitempty"`
	PauseEndDate           int64  `json:"pauseEndDate,omitempty"`
}

// NotifyRequest announces an upcoming debit to the payer.
type NotifyRequest struct {
	MerchantOrderID         string
	MerchantSubscriptionID  string
	AmountPaise             int64
	RedemptionRetryStrategy string
	AutoDebit               bool
}

// NotifyResponse is the created redemption order.
type NotifyResponse struct {
	OrderID  string `json:"orderId"`
	State    string `json:"state"`
	ExpireAt int64  `json:"expireAt"`
}

// RedeemResponse is the result of executing a notified redemption.
type RedeemResponse struct {
	State         string `json:"state"`
	TransactionID string `json:"transactionId"`
}

// VPAResult tells whether a UPI address exists.
type VPAResult struct {
	Valid bool   `json:"valid"`
	Name  string `json:"name,omitempty"`
}

type paymentMode struct {
	Type    string `json:"type"`
	Details struct {
		Type string `json:"type"`
		VPA  string `json:"vpa"`
	} `json:"details"`
}

type setupFlow struct {
	Type                   string      `json:"type"`
	MerchantSubscriptionID string      `json:"merchantSubscriptionId"`
	AuthWorkflowType       string      `json:"authWorkflowType"`
	AmountType             string      `json:"amountType"`
	MaxAmount              int64       `json:"maxAmount"`
	Frequency              string      `json:"frequency"`
	ExpireAt               int64       `json:"expireAt"`
	PaymentMode            paymentMode `json:"paymentMode"`
}

type setupBody struct {
	MerchantOrderID string    `json:"merchantOrderId"`
	Amount          int64     `json:"amount"`
	ExpireAt        int64     `json:"expireAt"`
	PaymentFlow     setupFlow `json:"paymentFlow"`
}

type redemptionFlow struct {
	Type                    string `json:"type"`
	MerchantSubscriptionID  string `json:"merchantSubscriptionId"`
	RedemptionRetryStrategy string `json:"redemptionRetryStrategy"`
	AutoDebit               bool   `json:"autoDebit"`
}

type notifyBody struct {
	MerchantOrderID string         `json:"merchantOrderId"`
	Amount          int64          `json:"amount"`
	ExpireAt        int64          `json:"expireAt"`
	PaymentFlow     redemptionFlow `json:"paymentFlow"`
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

// SetupSubscription creates the mandate setup order.
func (c *Client) SetupSubscription(ctx context.Context, req SetupRequest) (*SetupResponse, error) {
	now := time.Now()

	mode := paymentMode{Type: "UPI_COLLECT"}
	mode.Details.Type = "VPA"
	mode.Details.VPA = req.VPA

	body := setupBody{
		MerchantOrderID: req.MerchantOrderID,
		Amount:          req.AmountPaise,
		ExpireAt:        now.Add(setupOrderTTL).UnixMilli(),
		PaymentFlow: setupFlow{
			Type:                   "SUBSCRIPTION_SETUP",
			MerchantSubscriptionID: req.MerchantSubscriptionID,
			AuthWorkflowType:       orDefault(req.AuthWorkflowType, AuthWorkflowTransact),
			AmountType:             orDefault(req.AmountType, AmountTypeFixed),
			MaxAmount:              req.AmountPaise,
			Frequency:              orDefault(req.Frequency, FrequencyYearly),
			ExpireAt:               now.Add(subscriptionTTL).UnixMilli(),
			PaymentMode:            mode,
		},
	}

	var out SetupResponse
	if err := c.do(ctx, "subscription_setup", http.MethodPost, "/subscriptions/v2/setup", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SubscriptionOrderStatus fetches the state of a setup or redemption order.
func (c *Client) SubscriptionOrderStatus(ctx context.Context, merchantOrderID string) (*OrderStatus, error) {
	var out OrderStatus

	path := "/subscriptions/v2/order/" + url.PathEscape(merchantOrderID) + "/status?details=true"
	if err := c.do(ctx, "subscription_order_status", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SubscriptionStatus fetches the state of a mandate.
func (c *Client) SubscriptionStatus(ctx context.Context, merchantSubscriptionID string) (*SubscriptionStatus, error) {
	var out SubscriptionStatus

	path := "/subscriptions/v2/" + url.PathEscape(merchantSubscriptionID) + "/status?details=true"
	if err := c.do(ctx, "subscription_status", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// NotifyRedemption announces the next debit, it can be executed 24h later.
func (c *Client) NotifyRedemption(ctx context.Context, req NotifyRequest) (*NotifyResponse, error) {
	body := notifyBody{
		MerchantOrderID: req.MerchantOrderID,
		Amount:          req.AmountPaise,
		ExpireAt:        time.Now().Add(redemptionNotifyIn).UnixMilli(),
		PaymentFlow: redemptionFlow{
			Type:                    "SUBSCRIPTION_REDEMPTION",
			MerchantSubscriptionID:  req.MerchantSubscriptionID,
			RedemptionRetryStrategy: orDefault(req.RedemptionRetryStrategy, RetryStrategyStandard),
			AutoDebit:               req.AutoDebit,
		},
	}

	var out NotifyResponse
	if err := c.do(ctx, "subscription_notify", http.MethodPost, "/subscriptions/v2/notify", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ExecuteRedemption debits a previously notified redemption order.
func (c *Client) ExecuteRedemption(ctx context.Context, merchantOrderID string) (*RedeemResponse, error) {
	body := map[string]string{"merchantOrderId": merchantOrderID}

	var out RedeemResponse
	if err := c.do(ctx, "subscription_redeem", http.MethodPost, "/subscriptions/v2/redeem", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CancelSubscription revokes a mandate.
func (c *Client) CancelSubscription(ctx context.Context, merchantSubscriptionID string) error {
	path := "/subscriptions/v2/" + url.PathEscape(merchantSubscriptionID) + "/cancel"

	return c.do(ctx, "subscription_cancel", http.MethodPost, path, struct{}{}, nil)
}

// ValidateVPA checks a UPI address before a mandate is set up.
func (c *Client) ValidateVPA(ctx context.Context, vpa string) (*VPAResult, error) {
	body := map[string]string{"type": "VPA", "vpa": vpa}

	var out VPAResult
	if err := c.do(ctx, "validate_vpa", http.MethodPost, "/v2/validate/upi", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
