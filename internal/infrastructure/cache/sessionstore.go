package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
)

var (
	// ErrSessionNotFound means the session expired or was revoked.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshReused means a refresh token other than the current one was presented.
	ErrRefreshReused = errors.New("refresh token already used")
)

// Session is the server-side record behind a pair of auth cookies.
type Session struct {
	ID         string
	UserID     string
	Email      string
	Role       authorization.Role
	RefreshJTI string
	CreatedAt  time.Time
}

// rotateRefreshScript swaps the stored refresh jti only if the caller
// presents the current one. Returns -1 when the session is gone, 0 on a
// mismatch and 1 on success.
const rotateRefreshScript = `
local current = redis.call('HGET', KEYS[1], 'refresh_jti')
if not current then
  return -1
end
if current ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], 'refresh_jti', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

// SessionStore keeps sessions as Redis hashes with an index set per user.
type SessionStore struct {
	client redis.UniversalClient
}

func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(sessionID string) string {
	return constants.RedisKeySession + sessionID
}

func userSessionsKey(userID string) string {
	return constants.RedisKeyUserSessions + userID
}

// Create stores s for ttl and indexes it under its user.
func (s *SessionStore) Create(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess.ID == "" || sess.UserID == "" {
		return errors.New("session and user IDs are required")
	}

	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	key := sessionKey(sess.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":     sess.UserID,
		"email":       sess.Email,
		"role":        string(sess.Role),
		"refresh_jti": sess.RefreshJTI,
		"created_at":  createdAt.Unix(),
	})
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, userSessionsKey(sess.UserID), sess.ID)
	pipe.Expire(ctx, userSessionsKey(sess.UserID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrSessionNotFound
	}

	sess := &Session{
		ID:         sessionID,
		UserID:     values["user_id"],
		Email:      values["email"],
		Role:       authorization.Role(values["role"]),
		RefreshJTI: values["refresh_jti"],
	}
	var unix int64
	if _, err := fmt.Sscan(values["created_at"], &unix); err == nil {
		sess.CreatedAt = time.Unix(unix, 0).UTC()
	}
	return sess, nil
}

// Rotate replaces the session's refresh jti if presented matches the
// stored one, and extends the session to ttl.
func (s *SessionStore) Rotate(ctx context.Context, sessionID, presented, next string, ttl time.Duration) error {
	res, err := rotateRefreshLua.Run(ctx, s.client, []string{sessionKey(sessionID)},
		presented, next, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	switch res {
	case 1:
		return nil
	case 0:
		return ErrRefreshReused
	default:
		return ErrSessionNotFound
	}
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(sess.UserID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteAll revokes every session of userID and returns how many existed.
func (s *SessionStore) DeleteAll(ctx context.Context, userID string) (int, error) {
	ids, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}

	// The index key itself is not a session.
	if deleted > 0 {
		deleted--
	}
	return int(deleted), nil
}
