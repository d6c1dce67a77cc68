package membership

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/mail"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

type fakeGateway struct {
	orderState  string
	subState    string
	notifyCalls int
	redeemCalls int
	cancelled   []string
	err         error
}

func (f *fakeGateway) Pay(_ context.Context, req payment.PayRequest) (*payment.PayResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &payment.PayResponse{OrderID: "OMO1", State: payment.StatePending, RedirectURL: "https://pay.example/" + req.MerchantOrderID}, nil
}

func (f *fakeGateway) OrderStatus(context.Context, string) (*payment.OrderStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &payment.OrderStatus{State: f.orderState}, nil
}

func (f *fakeGateway) ValidateVPA(_ context.Context, vpa string) (*payment.VPAResult, error) {
	return &payment.VPAResult{Valid: vpa == "ok@upi", Name: "Member"}, nil
}

func (f *fakeGateway) SetupSubscription(context.Context, payment.SetupRequest) (*payment.SetupResponse, error) {
	return &payment.SetupResponse{OrderID: "OMS1", State: payment.StatePending, IntentURL: "upi://pay"}, nil
}

func (f *fakeGateway) SubscriptionOrderStatus(context.Context, string) (*payment.OrderStatus, error) {
	st := &payment.OrderStatus{OrderID: "OMS1", State: f.orderState}
	st.PaymentFlow.SubscriptionID = "OMSUB1"
	st.PaymentDetails = []payment.PaymentDetail{{TransactionID: "T1", State: f.orderState}}
	return st, nil
}

func (f *fakeGateway) SubscriptionStatus(_ context.Context, id string) (*payment.SubscriptionStatus, error) {
	return &payment.SubscriptionStatus{SubscriptionID: "OMSUB1", MerchantSubscriptionID: id, State: f.subState}, nil
}

func (f *fakeGateway) NotifyRedemption(context.Context, payment.NotifyRequest) (*payment.NotifyResponse, error) {
	f.notifyCalls++
	return &payment.NotifyResponse{OrderID: "OMR1", State: "NOTIFIED"}, nil
}

func (f *fakeGateway) ExecuteRedemption(context.Context, string) (*payment.RedeemResponse, error) {
	f.redeemCalls++
	return &payment.RedeemResponse{State: payment.StatePending, TransactionID: "T9"}, nil
}

func (f *fakeGateway) CancelSubscription(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

type recordingNotifier struct {
	sent []mail.ThankYou
}

func (r *recordingNotifier) SendMembershipThankYou(_ context.Context, t mail.ThankYou) error {
	r.sent = append(r.sent, t)
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t)
}

func newTestService(t *testing.T) (*Service, *fakeGateway, *recordingNotifier, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	gw := &fakeGateway{orderState: payment.StateCompleted, subState: payment.StateActive}
	notifier := &recordingNotifier{}

	return NewService(db, gw, notifier, "http://api.test"), gw, notifier, db
}

var applicant = Applicant{Name: "Ram", Email: "ram@example.org", Phone: "9876543210"} //nolint:gochecknoglobals

func TestNextBilling(t *testing.T) {
	base := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		frequency string
		want      time.Time
	}{
		{FrequencyDaily, base.AddDate(0, 0, 1)},
		{FrequencyWeekly, base.AddDate(0, 0, 7)},
		{FrequencyFortnightly, base.AddDate(0, 0, 14)},
		{FrequencyMonthly, base.AddDate(0, 1, 0)},
		{FrequencyBimonthly, base.AddDate(0, 2, 0)},
		{FrequencyQuarterly, base.AddDate(0, 3, 0)},
		{FrequencyHalfYearly, base.AddDate(0, 6, 0)},
		{FrequencyYearly, base.AddDate(1, 0, 0)},
		{"ONDEMAND", base},
	}

	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			assert.Equal(t, tt.want, NextBilling(base, tt.frequency))
		})
	}
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, models.MembershipActive, SetupStatus(payment.StateCompleted))
	assert.Equal(t, models.MembershipFailed, SetupStatus(payment.StateFailed))
	assert.Equal(t, models.MembershipPending, SetupStatus("SOMETHING"))

	assert.Equal(t, models.MembershipCancelled, SubscriptionStatus(payment.StateCancelled))
	assert.Equal(t, models.MembershipRevoked, SubscriptionStatus(payment.StateRevoked))
	assert.Equal(t, models.MembershipExpired, SubscriptionStatus(payment.StateExpired))
	assert.Equal(t, models.MembershipPaused, SubscriptionStatus(payment.StatePaused))
	assert.Equal(t, models.MembershipPending, SubscriptionStatus(""))

	assert.Equal(t, models.OrderSuccess, RecurringStatus(payment.StateCompleted))
	assert.Equal(t, models.OrderPending, RecurringStatus("NOTIFIED"))
}

func TestOneTimeMembership(t *testing.T) {
	svc, gw, notifier, db := newTestService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, nil, applicant)
	require.NoError(t, err)
	assert.Contains(t, order.OrderID, "TXN_")
	assert.Contains(t, order.RedirectURL, order.OrderID)

	var log models.Payment
	require.NoError(t, db.Where("reference_id = ?", order.OrderID).First(&log).Error)
	assert.Equal(t, models.PaymentTypeOneTime, log.Type)
	assert.Equal(t, "11000", log.Amount.String())

	m, err := svc.CheckOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipSuccess, m.Status)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(LifeTimeAmountPaise), notifier.sent[0].AmountPaise)

	// a failing status query never reverts a settled membership
	gw.err = assert.AnError
	m, err = svc.CheckOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipSuccess, m.Status)
	assert.Len(t, notifier.sent, 1)

	_, err = svc.CheckOrder(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionLifecycle(t *testing.T) {
	svc, gw, notifier, db := newTestService(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, nil, SetupInput{Applicant: applicant, VPA: "ok@upi", MembershipType: "Annual"})
	require.NoError(t, err)
	assert.Equal(t, "upi://pay", res.IntentURL)

	m, err := svc.Find(res.MembershipPaymentID)
	require.NoError(t, err)
	assert.Equal(t, FrequencyYearly, m.SubscriptionFrequency)
	assert.Equal(t, DefaultRecurringCount, m.RecurringCount)
	assert.Equal(t, models.MethodUPIAutoPay, m.PaymentMethod)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err = svc.RefreshSetup(ctx, res.MerchantOrderID)
	require.NoError(t, err)

	m, err = svc.Find(res.MembershipPaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, payment.StateActive, m.SubscriptionState)
	assert.Equal(t, "OMSUB1", m.PhonePeSubscriptionID)
	require.NotNil(t, m.NextBillingDate)
	assert.True(t, m.NextBillingDate.Equal(now.AddDate(1, 0, 0)))
	require.Len(t, notifier.sent, 1)

	// notify once the billing date is near, twice is a no-op
	svc.now = func() time.Time { return now.AddDate(1, 0, -1) }
	n, err := svc.NotifyDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = svc.NotifyDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, gw.notifyCalls)

	count, err := svc.ReadyCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	svc.now = func() time.Time { return now.AddDate(1, 0, 1) }
	count, err = svc.ReadyCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	n, err = svc.RedeemReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, gw.redeemCalls)

	var rp models.RecurringPayment
	require.NoError(t, db.First(&rp).Error)
	assert.NotNil(t, rp.ExecutedAt)
	assert.Equal(t, "T9", rp.TransactionID)

	_, err = svc.RefreshRedemption(ctx, rp.MerchantOrderID)
	require.NoError(t, err)
	_, err = svc.RefreshRedemption(ctx, rp.MerchantOrderID)
	require.NoError(t, err)

	m, err = svc.Find(res.MembershipPaymentID)
	require.NoError(t, err)
	assert.True(t, m.NextBillingDate.Equal(now.AddDate(2, 0, 0)), "next billing %s", m.NextBillingDate)

	var recurringLogs int64
	require.NoError(t, db.Model(&models.Payment{}).Where("type = ?", models.PaymentTypeRecurring).Count(&recurringLogs).Error)
	assert.Equal(t, int64(1), recurringLogs)

	require.NoError(t, svc.Cancel(ctx, res.MerchantSubscriptionID))
	assert.Equal(t, []string{res.MerchantSubscriptionID}, gw.cancelled)

	m, err = svc.Find(res.MembershipPaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipCancelled, m.Status)

	_, _, err = svc.Notify(ctx, NotifyInput{MembershipPaymentID: m.ID})
	require.ErrorIs(t, err, ErrInactive)
}

func TestRefreshAll(t *testing.T) {
	svc, gw, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, nil, SetupInput{Applicant: applicant, VPA: "ok@upi"})
	require.NoError(t, err)

	gw.subState = payment.StatePaused
	n, err := svc.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m, err := svc.Find(res.MembershipPaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipPaused, m.Status)

	n, err = svc.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandleWebhook(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, nil, SetupInput{Applicant: applicant, VPA: "ok@upi"})
	require.NoError(t, err)

	setup, err := payment.ParseCallback([]byte(`{"event":"subscription.setup.order.completed","payload":{"merchantOrderId":"` +
		res.MerchantOrderID + `","state":"COMPLETED","paymentFlow":{"subscriptionId":"OMSUB9"}}}`))
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(ctx, setup))

	m, err := svc.Find(res.MembershipPaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, "OMSUB9", m.PhonePeSubscriptionID)
	assert.Len(t, notifier.sent, 1)

	revoked, err := payment.ParseCallback([]byte(`{"event":"subscription.revoked","payload":{"merchantSubscriptionId":"` +
		res.MerchantSubscriptionID + `","state":"REVOKED"}}`))
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(ctx, revoked))

	m, err = svc.Find(res.MembershipPaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipRevoked, m.Status)
	assert.Equal(t, payment.StateRevoked, m.SubscriptionState)

	unknown, err := payment.ParseCallback([]byte(`{"event":"subscription.redemption.order.completed","payload":{"merchantOrderId":"nope","state":"COMPLETED"}}`))
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(ctx, unknown))
}
