package memberships

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/membership"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/handlertest"
)

const base = "/api/membership"

func setup(t *testing.T) *handlertest.Env {
	t.Helper()

	s := Service{}

	return handlertest.New(t, &s)
}

func applicant() map[string]interface{} {
	return map[string]interface{}{
		"name":    "Ram Prasad",
		"email":   "ram@example.org",
		"phone":   "9876543210",
		"city":    "Jaipur",
		"pincode": "302001",
	}
}

func membershipBy(t *testing.T, env *handlertest.Env, column, value string) models.MembershipPayment {
	t.Helper()

	var m models.MembershipPayment
	require.NoError(t, env.DB.Where(column+" = ?", value).First(&m).Error)

	return m
}

func subscribe(t *testing.T, env *handlertest.Env, as string) map[string]interface{} {
	t.Helper()

	body := applicant()
	body["vpa"] = "ram@upi"
	body["membershipType"] = "Monthly Seva"

	resp := env.Do(t, http.MethodPost, base+"/subscription/setup", body, as)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return handlertest.Body(t, resp)["data"].(map[string]interface{})
}

// activate completes the mandate of a setup through its status endpoint.
func activate(t *testing.T, env *handlertest.Env, setup map[string]interface{}) models.MembershipPayment {
	t.Helper()

	orderID := setup["merchantOrderId"].(string)
	env.Gateway.SetState(orderID, payment.StateCompleted)

	resp := env.Do(t, http.MethodGet, base+"/subscription/order/"+orderID+"/status", nil, models.RoleUser)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return membershipBy(t, env, "merchant_order_id", orderID)
}

func TestCreateOrder(t *testing.T) {
	env := setup(t)

	testCases := []struct {
		name string
		body map[string]interface{}
		as   string
		want int
	}{
		{name: "anonymous", body: applicant(), want: http.StatusUnauthorized},
		{name: "missing phone", body: map[string]interface{}{"name": "Ram", "email": "ram@example.org"}, as: models.RoleUser, want: http.StatusBadRequest},
		{name: "invalid email", body: map[string]interface{}{"name": "Ram", "email": "ram", "phone": "1"}, as: models.RoleUser, want: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.Do(t, http.MethodPost, base+"/create-order", tc.body, tc.as)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}

	resp := env.Do(t, http.MethodPost, base+"/create-order", applicant(), models.RoleUser)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := handlertest.Body(t, resp)
	orderID := body["orderId"].(string)
	assert.True(t, strings.HasPrefix(orderID, "TXN"))
	assert.Equal(t, "https://pay.test/"+orderID, body["redirectUrl"])

	paid := env.Gateway.Paid()
	require.Len(t, paid, 1)
	assert.InDelta(t, membership.LifeTimeAmountPaise, paid[0]["amount"], 0)

	m := membershipBy(t, env, "merchant_order_id", orderID)
	assert.Equal(t, models.MembershipPending, m.Status)
	assert.Equal(t, membership.LifeTime, m.MembershipType)
	assert.Equal(t, "Jaipur", m.City)

	var log models.Payment
	require.NoError(t, env.DB.Where("reference_id = ?", orderID).First(&log).Error)
	assert.Equal(t, models.PaymentTypeOneTime, log.Type)
}

func TestCallback(t *testing.T) {
	env := setup(t)

	resp := env.Do(t, http.MethodGet, base+"/callback", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.Do(t, http.MethodPost, base+"/create-order", applicant(), models.RoleUser)
	orderID := handlertest.Body(t, resp)["orderId"].(string)
	env.Gateway.SetState(orderID, payment.StateCompleted)

	resp = env.Do(t, http.MethodGet, base+"/callback?orderId="+orderID, nil, "")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handlertest.FrontendURL+"/donation-status?status=success&orderId="+orderID, resp.Header.Get("Location"))
	assert.Equal(t, models.MembershipSuccess, membershipBy(t, env, "merchant_order_id", orderID).Status)

	msgs := env.Mail.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ram@example.org", msgs[0].To)
}

func TestValidateVPA(t *testing.T) {
	env := setup(t)

	resp := env.Do(t, http.MethodPost, base+"/validate-vpa", map[string]string{}, models.RoleUser)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.Do(t, http.MethodPost, base+"/validate-vpa", map[string]string{"vpa": "ram@upi"}, models.RoleUser)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := handlertest.Body(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "Test Payer", data["name"])

	resp = env.Do(t, http.MethodPost, base+"/validate-vpa", map[string]string{"vpa": "nope"}, models.RoleUser)
	data = handlertest.Body(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, false, data["valid"])
	assert.Nil(t, data["name"])
}

func TestSubscriptionLifecycle(t *testing.T) {
	env := setup(t)

	res := subscribe(t, env, models.RoleUser)
	assert.Equal(t, "upi://mandate/"+res["merchantOrderId"].(string), res["intentUrl"])

	m := membershipBy(t, env, "merchant_order_id", res["merchantOrderId"].(string))
	assert.Equal(t, models.MethodUPIAutoPay, m.PaymentMethod)
	assert.Equal(t, membership.FrequencyYearly, m.SubscriptionFrequency)
	assert.Equal(t, membership.DefaultRecurringCount, m.RecurringCount)

	// notify refuses a mandate that is not active yet
	resp := env.Do(t, http.MethodPost, base+"/subscription/notify", map[string]interface{}{"membershipPaymentId": m.ID}, models.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	m = activate(t, env, res)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, payment.StateActive, m.SubscriptionState)
	require.NotNil(t, m.StartDate)
	require.NotNil(t, m.NextBillingDate)
	assert.WithinDuration(t, m.StartDate.AddDate(1, 0, 0), *m.NextBillingDate, time.Second)

	resp = env.Do(t, http.MethodPost, base+"/subscription/notify", map[string]interface{}{"membershipPaymentId": m.ID}, models.RoleUser)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.Do(t, http.MethodPost, base+"/subscription/notify", map[string]interface{}{"membershipPaymentId": m.ID}, models.RoleAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	notified := handlertest.Body(t, resp)["data"].(map[string]interface{})
	rpID := uint64(notified["recurringPaymentId"].(float64))
	rpOrder := notified["merchantOrderId"].(string)

	resp = env.Do(t, http.MethodPost, base+"/subscription/redeem", map[string]interface{}{"recurringPaymentId": 999}, models.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.Do(t, http.MethodPost, base+"/subscription/redeem", map[string]interface{}{"recurringPaymentId": rpID}, models.RoleAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rp models.RecurringPayment
	require.NoError(t, env.DB.First(&rp, rpID).Error)
	assert.NotNil(t, rp.ExecutedAt)
	assert.Equal(t, "T-"+rpOrder, rp.TransactionID)

	env.Gateway.SetState(rpOrder, payment.StateCompleted)
	resp = env.Do(t, http.MethodGet, base+"/subscription/redemption/"+rpOrder+"/status", nil, models.RoleAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, env.DB.First(&rp, rpID).Error)
	assert.Equal(t, models.OrderSuccess, rp.Status)

	before := *m.NextBillingDate
	m = membershipBy(t, env, "id", itoa(m.ID))
	assert.WithinDuration(t, before.AddDate(1, 0, 0), *m.NextBillingDate, time.Second)

	resp = env.Do(t, http.MethodGet, "/api/membership/"+itoa(m.ID)+"/recurring", nil, models.RoleAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, handlertest.Body(t, resp)["data"], 1)
}

func TestSubscriptionStatusAndCancel(t *testing.T) {
	env := setup(t)

	res := subscribe(t, env, models.RoleUser)
	sub := res["merchantSubscriptionId"].(string)

	resp := env.Do(t, http.MethodGet, base+"/subscription/"+sub+"/status", nil, models.RoleUser)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MembershipActive, membershipBy(t, env, "merchant_subscription_id", sub).Status)

	resp = env.Do(t, http.MethodPost, base+"/subscription/"+sub+"/cancel", nil, handlertest.Other)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.Do(t, http.MethodPost, base+"/subscription/unknown/cancel", nil, models.RoleUser)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.Do(t, http.MethodPost, base+"/subscription/"+sub+"/cancel", nil, models.RoleUser)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	m := membershipBy(t, env, "merchant_subscription_id", sub)
	assert.Equal(t, models.MembershipCancelled, m.Status)
	assert.Equal(t, payment.StateCancelled, m.SubscriptionState)
}

func TestWebhook(t *testing.T) {
	env := setup(t)
	res := subscribe(t, env, models.RoleUser)
	orderID := res["merchantOrderId"].(string)

	send := func(auth, body string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, base+"/webhook", strings.NewReader(body)) //nolint:noctx
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}

		return env.Send(t, req, "")
	}

	body := `{"event":"subscription.setup.order.completed","payload":{"merchantOrderId":"` + orderID +
		`","state":"COMPLETED","paymentFlow":{"subscriptionId":"OMS-1"}}}`

	assert.Equal(t, http.StatusUnauthorized, send("", body).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, send("wrong", body).StatusCode)
	assert.Equal(t, http.StatusBadRequest, send(handlertest.WebhookAuth(), "not json").StatusCode)

	resp := send(handlertest.WebhookAuth(), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	m := membershipBy(t, env, "merchant_order_id", orderID)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, "OMS-1", m.PhonePeSubscriptionID)
}

func TestList(t *testing.T) {
	env := setup(t)

	env.Do(t, http.MethodPost, base+"/create-order", applicant(), models.RoleUser)
	other := applicant()
	other["email"] = "sita@example.org"
	env.Do(t, http.MethodPost, base+"/create-order", other, handlertest.Other)

	testCases := []struct {
		query string
		want  int
	}{
		{query: "", want: 2},
		{query: "?email=sita@example.org", want: 1},
		{query: "?userId=" + itoa(env.Users[models.RoleUser].ID), want: 1},
		{query: "?phone=000", want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			resp := env.Do(t, http.MethodGet, base+tc.query, nil, models.RoleAdmin)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Len(t, handlertest.Body(t, resp)["data"], tc.want)
		})
	}

	assert.Equal(t, http.StatusForbidden, env.Do(t, http.MethodGet, base, nil, models.RoleUser).StatusCode)
}

func TestCallbackEscapesOrderID(t *testing.T) {
	env := setup(t)

	orderID := "TXN 7&status=success"
	require.NoError(t, env.DB.Create(&models.MembershipPayment{
		Name: "Ram", Email: "ram@example.org", Phone: "9876543210",
		MembershipType: membership.LifeTime, Amount: membership.LifeTimeAmountPaise,
		Status: models.MembershipPending, MerchantOrderID: orderID, TransactionID: orderID,
	}).Error)
	env.Gateway.SetState(orderID, payment.StateFailed)

	resp := env.Do(t, http.MethodGet, base+"/callback?orderId="+url.QueryEscape(orderID), nil, "")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handlertest.FrontendURL+"/donation-status?status=failed&orderId=TXN+7%26status%3Dsuccess",
		resp.Header.Get("Location"))
}
