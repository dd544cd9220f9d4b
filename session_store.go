package memberauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL is the sliding window applied to new sessions when the
// store is not configured with one.
var DefaultSessionTTL = 14 * 24 * time.Hour

// DefaultStoreTimeout bounds every call to the external store so
// authentication fails fast instead of hanging on a sick backend.
var DefaultStoreTimeout = 3 * time.Second

const sessionIDBytes = 32 // 256 bits of entropy

// RedisSessionStore maps opaque session identifiers to user ids in Redis
// with a sliding TTL. The external store is the sole source of truth for
// session validity; the store itself keeps no per-request state.
type RedisSessionStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  Logger
}

var _ SessionStore = (*RedisSessionStore)(nil)

type SessionStoreOption func(*RedisSessionStore)

// WithSessionTTL sets the sliding expiration window.
func WithSessionTTL(ttl time.Duration) SessionStoreOption {
	return func(s *RedisSessionStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithStoreTimeout sets the per-operation timeout on store calls.
func WithStoreTimeout(timeout time.Duration) SessionStoreOption {
	return func(s *RedisSessionStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithSessionKeyPrefix overrides the Redis key namespace.
func WithSessionKeyPrefix(prefix string) SessionStoreOption {
	return func(s *RedisSessionStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithSessionLogger overrides the store logger.
func WithSessionLogger(logger Logger) SessionStoreOption {
	return func(s *RedisSessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRedisSessionStore creates a session store backed by the given client.
func NewRedisSessionStore(client redis.UniversalClient, opts ...SessionStoreOption) *RedisSessionStore {
	store := &RedisSessionStore{
		client:  client,
		prefix:  "sess",
		ttl:     DefaultSessionTTL,
		timeout: DefaultStoreTimeout,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

// TTL returns the configured sliding window.
func (s *RedisSessionStore) TTL() time.Duration {
	return s.ttl
}

// Create generates a high-entropy identifier and writes it with the sliding
// TTL. The identifier is URL-safe and carries no user information.
func (s *RedisSessionStore) Create(ctx context.Context, userID string) (string, error) {
	return s.CreateWithTTL(ctx, userID, s.ttl)
}

// CreateWithTTL creates a session with an explicit window, used for
// extended "remember me" sessions.
func (s *RedisSessionStore) CreateWithTTL(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("session user id is required", errors.CategoryBadInput)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	sessionID, err := newSessionID()
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate session id")
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Set(ctx, s.key(sessionID), userID, ttl).Err(); err != nil {
		return "", storeUnavailable(err)
	}

	return sessionID, nil
}

// Resolve returns the user id a session maps to. A missing session is
// reported as ErrSessionNotFound; transport failures surface as
// ErrSessionStoreUnavailable so callers never mistake an outage for a
// logged-out user.
func (s *RedisSessionStore) Resolve(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrSessionNotFound
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	userID, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", storeUnavailable(err)
	}

	return userID, nil
}

// Refresh slides the expiration window forward. It is idempotent and
// commutative: concurrent refreshes rewrite the same full window, so the TTL
// only ever moves forward. Returns false when the session no longer exists.
func (s *RedisSessionStore) Refresh(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	ok, err := s.client.Expire(ctx, s.key(sessionID), s.ttl).Result()
	if err != nil {
		return false, storeUnavailable(err)
	}

	return ok, nil
}

// Destroy removes the session. Returns false if it was already gone.
func (s *RedisSessionStore) Destroy(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	deleted, err := s.client.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, storeUnavailable(err)
	}

	return deleted > 0, nil
}

// Ping reports point-in-time store availability and latency.
func (s *RedisSessionStore) Ping(ctx context.Context) (time.Duration, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	start := time.Now()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return time.Since(start), storeUnavailable(err)
	}
	return time.Since(start), nil
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *RedisSessionStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func newSessionID() (string, error) {
	raw := make([]byte, sessionIDBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func storeUnavailable(err error) error {
	return errors.Wrap(err, ErrSessionStoreUnavailable.Category, ErrSessionStoreUnavailable.Message).
		WithTextCode(ErrSessionStoreUnavailable.TextCode)
}
