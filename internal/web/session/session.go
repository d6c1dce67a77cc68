// Package session keeps short lived auth state, password reset tokens today, in a
// gofiber storage backend. The same backend holds the rate limiter counters.
package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/storage/memory/v2"
	storagemysql "github.com/gofiber/storage/mysql/v2"
	storagepostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/dsn"
	"github.com/gopalparivar/dhenu-mahima/internal/uniuri"
)

const (
	// Table holds the storage rows on sql backends.
	Table = "fiber_storage"

	resetPrefix = "reset:"
	gcInterval  = 10 * time.Second
)

// ErrNotFound is returned for unknown or expired keys.
var ErrNotFound = errors.New("session data not found")

// NewStorage opens the storage backend matching the database engine.
// sqlite has no storage driver and uses process memory.
func NewStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.GormEngineMySQL:
		return storagemysql.New(storagemysql.Config{
			ConnectionURI: dsn.StorageURI(cfg),
			Table:         Table,
			GCInterval:    gcInterval,
		})
	case config.GormEnginePostgres:
		return storagepostgres.New(storagepostgres.Config{
			ConnectionURI: dsn.StorageURI(cfg),
			Table:         Table,
			GCInterval:    gcInterval,
		})
	default:
		log.Warn().Str("engine", cfg.DB.GormEngine).Msg("auth state is kept in memory")

		return memory.New(memory.Config{GCInterval: gcInterval})
	}
}

// Data represents a stored reset request.
type Data struct {
	UserID uint64    `json:"userId"`
	Email  string    `json:"email"`
	Issued time.Time `json:"issued"`
}

// Resets stores password reset tokens.
type Resets struct {
	storage fiber.Storage
	ttl     time.Duration
}

// NewResets creates a reset token store.
func NewResets(storage fiber.Storage, ttl time.Duration) *Resets {
	if storage == nil {
		panic("storage is nil")
	}

	return &Resets{storage: storage, ttl: ttl}
}

// TTL returns the token lifetime.
func (r *Resets) TTL() time.Duration {
	return r.ttl
}

// Issue stores a new token for the user and returns it.
func (r *Resets) Issue(userID uint64, email string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(Data{UserID: userID, Email: email, Issued: time.Now()})
	if err != nil {
		return "", err
	}

	if err = r.storage.Set(resetPrefix+token, out, r.ttl); err != nil {
		return "", err
	}

	return token, nil
}

// Lookup reads the reset request of token.
func (r *Resets) Lookup(token string) (*Data, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	raw, err := r.storage.Get(resetPrefix + token)
	if err != nil {
		return nil, err
	}

	// gofiber storages answer nil, nil for missing keys
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	var d Data
	if err = json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}

	// memory storage only expires on its gc tick
	if r.ttl > 0 && time.Since(d.Issued) > r.ttl {
		_ = r.storage.Delete(resetPrefix + token)
		return nil, ErrNotFound
	}

	return &d, nil
}

// Consume deletes a token.
func (r *Resets) Consume(token string) error {
	return r.storage.Delete(resetPrefix + token)
}

// GenerateToken returns a new random reset token.
func GenerateToken() (string, error) {
	return uniuri.Token()
}

// LimiterKey namespaces rate limiter counters in the shared storage.
func LimiterKey(ip string) string {
	return "auth-limit:" + ip
}
