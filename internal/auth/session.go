package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"
)

// AnonymousUser is the user id bound to a session with nobody logged in.
const AnonymousUser int64 = 0

// Flash is a one-shot message queued in the session and shown on the next
// rendered page.
type Flash struct {
	Category string `json:"category"` // "success" or "error"
	Message  string `json:"message"`
}

// Sessions is the session contract handlers and middleware depend on.
type Sessions interface {
	// Create issues a new session id bound to userID (AnonymousUser for a
	// session with nobody logged in).
	Create(ctx context.Context, userID int64) (string, error)
	// UserID returns the user id bound to a session; ok is false when the
	// session does not exist or has expired.
	UserID(ctx context.Context, sid string) (userID int64, ok bool, err error)
	// Destroy removes the session and everything stored under it.
	Destroy(ctx context.Context, sid string) error
	// AddFlash queues a flash message on the session.
	AddFlash(ctx context.Context, sid string, f Flash) error
	// PopFlashes drains queued flashes in insertion order.
	PopFlashes(ctx context.Context, sid string) ([]Flash, error)
}

// RedisSessionStore wraps Redis for session and flash storage.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(sid string) string { return "session:" + sid }
func flashKey(sid string) string   { return "flash:" + sid }

func (s *RedisSessionStore) Create(ctx context.Context, userID int64) (string, error) {
	sid := uuid.New().String()
	err := s.rdb.Set(ctx, sessionKey(sid), strconv.FormatInt(userID, 10), SessionTTL).Err()
	return sid, err
}

func (s *RedisSessionStore) UserID(ctx context.Context, sid string) (int64, bool, error) {
	val, err := s.rdb.Get(ctx, sessionKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupt entry; treat as expired
		return 0, false, nil
	}
	return id, true, nil
}

func (s *RedisSessionStore) Destroy(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, sessionKey(sid), flashKey(sid)).Err()
}

func (s *RedisSessionStore) AddFlash(ctx context.Context, sid string, f Flash) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, flashKey(sid), b).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, flashKey(sid), SessionTTL).Err()
}

func (s *RedisSessionStore) PopFlashes(ctx context.Context, sid string) ([]Flash, error) {
	pipe := s.rdb.TxPipeline()
	lrange := pipe.LRange(ctx, flashKey(sid), 0, -1)
	pipe.Del(ctx, flashKey(sid))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	vals := lrange.Val()
	flashes := make([]Flash, 0, len(vals))
	for _, v := range vals {
		var f Flash
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}
