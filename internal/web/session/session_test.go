package session

import (
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
)

func TestResetsRoundTrip(t *testing.T) {
	r := NewResets(memory.New(), time.Minute)

	token, err := r.Issue(7, "ram@example.org")
	require.NoError(t, err)
	assert.Len(t, token, 64)

	d, err := r.Lookup(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), d.UserID)
	assert.Equal(t, "ram@example.org", d.Email)

	require.NoError(t, r.Consume(token))

	_, err = r.Lookup(token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetsUnknownToken(t *testing.T) {
	r := NewResets(memory.New(), time.Minute)

	_, err := r.Lookup("")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Lookup("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetsExpire(t *testing.T) {
	r := NewResets(memory.New(), time.Millisecond)

	token, err := r.Issue(1, "a@example.org")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = r.Lookup(token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateTokenIsRandom(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)

	b, err := GenerateToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNewStorageSQLiteUsesMemory(t *testing.T) {
	s := NewStorage(&config.Config{DB: config.DB{GormEngine: config.GormEngineSQLite}})
	t.Cleanup(func() { _ = s.Close() })

	assert.IsType(t, &memory.Storage{}, s)
}

func TestNewResetsPanicsWithoutStorage(t *testing.T) {
	assert.Panics(t, func() { NewResets(nil, time.Minute) })
}
