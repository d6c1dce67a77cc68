package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/membership"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

func testConfig() config.Jobs {
	return config.Jobs{
		Enabled:                true,
		EventCleanup:           "0 0 * * *",
		SubscriptionStatus:     "0 2 * * *",
		SubscriptionNotify:     "0 3 * * *",
		SubscriptionRedeem:     "0 */4 * * *",
		SubscriptionQuickCheck: "0 */2 * * *",
	}
}

func TestNames(t *testing.T) {
	db := dbtest.Open(t)

	s := New(testConfig(), db, nil)
	assert.Equal(t, []string{EventsCleanup}, s.Names())

	gw := payment.NewWithEndpoints(config.PhonePe{}, "http://127.0.0.1:0", "http://127.0.0.1:0/token", nil)
	s = New(testConfig(), db, membership.NewService(db, gw, nil, "http://api.test"))
	assert.Equal(t, []string{
		EventsCleanup,
		SubscriptionNotify,
		SubscriptionQuickCheck,
		SubscriptionRedeem,
		SubscriptionStatus,
	}, s.Names())
}

func TestRunEventsCleanup(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.Event{
		Title: "old", StartDate: now.AddDate(0, 0, -10), EndDate: now.AddDate(0, 0, -9),
		Location: "Vrindavan", Duration: "1 day", Color: models.DefaultEventColor,
	}).Error)

	s := New(testConfig(), db, nil)
	require.NoError(t, s.Run(context.Background(), EventsCleanup))

	var count int64
	require.NoError(t, db.Model(&models.Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunUnknown(t *testing.T) {
	s := New(testConfig(), dbtest.Open(t), nil)
	require.ErrorIs(t, s.Run(context.Background(), "nope"), ErrUnknownJob)
}

func TestQuickCheckWithoutReadyDebits(t *testing.T) {
	db := dbtest.Open(t)
	gw := payment.NewWithEndpoints(config.PhonePe{}, "http://127.0.0.1:0", "http://127.0.0.1:0/token", nil)

	s := New(testConfig(), db, membership.NewService(db, gw, nil, "http://api.test"))
	require.NoError(t, s.Run(context.Background(), SubscriptionQuickCheck))
}

func TestStartRejectsBadSpec(t *testing.T) {
	cfg := testConfig()
	cfg.EventCleanup = "not a cron"

	s := New(cfg, dbtest.Open(t), nil)
	require.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := New(testConfig(), dbtest.Open(t), nil)
	require.NoError(t, s.Start())
	s.Stop()
}
