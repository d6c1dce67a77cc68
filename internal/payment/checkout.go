package payment

import (
	"context"
	"net/http"
	"net/url"
)

// Order states reported by the gateway.
const (
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
	StatePending   = "PENDING"
	StateActive    = "ACTIVE"
	StateCancelled = "CANCELLED"
	StateRevoked   = "REVOKED"
	StateExpired   = "EXPIRED"
	StatePaused    = "PAUSED"
)

// MetaInfo is free text attached to an order, echoed back in callbacks.
type MetaInfo struct {
	UDF1 string `json:"udf1,omitempty"`
	UDF2 string `json:"udf2,omitempty"`
	UDF3 string `json:"udf3,omitempty"`
	UDF4 string `json:"udf4,omitempty"`
	UDF5 string `json:"udf5,omitempty"`
}

// PayRequest creates a standard checkout order.
type PayRequest struct {
	MerchantOrderID string
	AmountPaise     int64
	RedirectURL     string
	Meta            MetaInfo
}

// PayResponse is the created order.
type PayResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	ExpireAt    int64  `json:"expireAt"`
	RedirectURL string `json:"redirectUrl"`
}

// PaymentDetail is a single payment attempt of an order.
type PaymentDetail struct {
	TransactionID string `json:"transactionId"`
	PaymentMode   string `json:"paymentMode"`
	State         string `json:"state"`
	Amount        int64  `json:"amount"`
	ErrorCode     string `json:"errorCode,omitempty"`
}

// OrderStatus is the answer of the order status endpoints.
type OrderStatus struct {
	OrderID        string          `json:"orderId"`
	State          string          `json:"state"`
	Amount         int64           `json:"amount"`
	ErrorCode      string          `json:"errorCode,omitempty"`
	PaymentDetails []PaymentDetail `json:"paymentDetails"`
	PaymentFlow    struct {
		SubscriptionID         string `json:"subscriptionId"`
		MerchantSubscriptionID string `json:"merchantSubscriptionId"`
	} `json:"paymentFlow"`
}

// TransactionID returns the id of the latest payment attempt.
func (s *OrderStatus) TransactionID() string {
	if len(s.PaymentDetails) == 0 {
		return ""
	}

	return s.PaymentDetails[len(s.PaymentDetails)-1].TransactionID
}

// PaymentMode returns the mode of the latest payment attempt.
func (s *OrderStatus) PaymentMode() string {
	if len(s.PaymentDetails) == 0 {
		return ""
	}

	return s.PaymentDetails[len(s.PaymentDetails)-1].PaymentMode
}

type merchantURLs struct {
	RedirectURL string `json:"redirectUrl"`
}

type checkoutFlow struct {
	Type         string       `json:"type"`
	Message      string       `json:"message,omitempty"`
	MerchantURLs merchantURLs `json:"merchantUrls"`
}

type payBody struct {
	MerchantOrderID string       `json:"merchantOrderId"`
	Amount          int64        `json:"amount"`
	MetaInfo        MetaInfo     `json:"metaInfo"`
	PaymentFlow     checkoutFlow `json:"paymentFlow"`
}

// Pay creates a checkout order and returns the page the payer is sent to.
func (c *Client) Pay(ctx context.Context, req PayRequest) (*PayResponse, error) {
	body := payBody{
		MerchantOrderID: req.MerchantOrderID,
		Amount:          req.AmountPaise,
		MetaInfo:        req.Meta,
		PaymentFlow: checkoutFlow{
			Type:         "PG_CHECKOUT",
			MerchantURLs: merchantURLs{RedirectURL: req.RedirectURL},
		},
	}

	var out PayResponse
	if err := c.do(ctx, "pay", http.MethodPost, "/checkout/v2/pay", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// OrderStatus fetches the state of a checkout order.
func (c *Client) OrderStatus(ctx context.Context, merchantOrderID string) (*OrderStatus, error) {
	var out OrderStatus

	path := "/checkout/v2/order/" + url.PathEscape(merchantOrderID) + "/status"
	if err := c.do(ctx, "order_status", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
