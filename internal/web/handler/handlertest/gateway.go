package handlertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

// Gateway is a fake PhonePe api. Orders report StatePending until SetState is called.
type Gateway struct {
	server *httptest.Server
	mu     sync.Mutex
	states map[string]string
	paid   []map[string]interface{}
}

// NewGateway starts the fake api.
func NewGateway(t *testing.T) *Gateway {
	t.Helper()

	g := &Gateway{states: map[string]string{}}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		g.write(w, map[string]interface{}{
			"access_token": "tok",
			"token_type":   "O-Bearer",
			"expires_at":   time.Now().Add(time.Hour).Unix(),
		})
	})

	mux.HandleFunc("POST /checkout/v2/pay", func(w http.ResponseWriter, r *http.Request) {
		body := g.read(r)
		g.mu.Lock()
		g.paid = append(g.paid, body)
		g.mu.Unlock()

		id, _ := body["merchantOrderId"].(string)
		g.write(w, payment.PayResponse{
			OrderID:     "OMO-" + id,
			State:       payment.StatePending,
			RedirectURL: "https://pay.test/" + id,
		})
	})

	orderStatus := func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		state := g.State(id, payment.StatePending)
		g.write(w, map[string]interface{}{
			"orderId": "OMO-" + id,
			"state":   state,
			"paymentDetails": []map[string]interface{}{
				{"transactionId": "T-" + id, "paymentMode": "UPI_INTENT", "state": state},
			},
		})
	}
	mux.HandleFunc("GET /checkout/v2/order/{id}/status", orderStatus)
	mux.HandleFunc("GET /subscriptions/v2/order/{id}/status", orderStatus)

	mux.HandleFunc("POST /subscriptions/v2/setup", func(w http.ResponseWriter, r *http.Request) {
		id, _ := g.read(r)["merchantOrderId"].(string)
		g.write(w, payment.SetupResponse{OrderID: "OMO-" + id, State: payment.StatePending, IntentURL: "upi://mandate/" + id})
	})

	mux.HandleFunc("GET /subscriptions/v2/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		g.write(w, payment.SubscriptionStatus{
			SubscriptionID:         "OMS-" + id,
			MerchantSubscriptionID: id,
			State:                  g.State(id, payment.StateActive),
		})
	})

	mux.HandleFunc("POST /subscriptions/v2/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		g.SetState(r.PathValue("id"), payment.StateCancelled)
		g.write(w, map[string]interface{}{})
	})

	mux.HandleFunc("POST /subscriptions/v2/notify", func(w http.ResponseWriter, r *http.Request) {
		id, _ := g.read(r)["merchantOrderId"].(string)
		g.write(w, payment.NotifyResponse{OrderID: "OMO-" + id, State: "NOTIFIED"})
	})

	mux.HandleFunc("POST /subscriptions/v2/redeem", func(w http.ResponseWriter, r *http.Request) {
		id, _ := g.read(r)["merchantOrderId"].(string)
		g.write(w, payment.RedeemResponse{State: payment.StatePending, TransactionID: "T-" + id})
	})

	mux.HandleFunc("POST /v2/validate/upi", func(w http.ResponseWriter, r *http.Request) {
		vpa, _ := g.read(r)["vpa"].(string)
		valid := strings.Contains(vpa, "@")

		res := payment.VPAResult{Valid: valid}
		if valid {
			res.Name = "Test Payer"
		}

		g.write(w, res)
	})

	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)

	return g
}

// Client returns a payment client talking to the fake api.
func (g *Gateway) Client(cfg config.PhonePe) *payment.Client {
	return payment.NewWithEndpoints(cfg, g.server.URL, g.server.URL+"/v1/oauth/token", g.server.Client())
}

// SetState sets the state reported for an order or subscription id.
func (g *Gateway) SetState(id, state string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.states[id] = state
}

// State returns the state of id, def when unset.
func (g *Gateway) State(id, def string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.states[id]; ok {
		return s
	}

	return def
}

// Paid returns the bodies of the checkout requests.
func (g *Gateway) Paid() []map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]map[string]interface{}(nil), g.paid...)
}

// WebhookAuth returns the Authorization header expected on callbacks.
func WebhookAuth() string {
	return payment.WebhookAuthorization("hook", "pass")
}

func (g *Gateway) read(r *http.Request) map[string]interface{} {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	return body
}

func (g *Gateway) write(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
