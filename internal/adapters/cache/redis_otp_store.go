package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusdesk/auth-service/internal/domain"
)

const otpKeyPrefix = "auth:otp:"

// verifyScript compares and consumes a challenge in one server-side step.
// Redis executes scripts atomically, so of any number of concurrent verify
// calls holding the correct code, exactly one observes the entry and deletes
// it; the rest see nothing. Expiry is double-checked against the stored
// timestamp in case the key TTL has not swept the entry yet.
var verifyScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return 0
end
local entry = cjson.decode(raw)
if tonumber(entry.expires_at_unix) <= tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return 0
end
if entry.code ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
return 1
`)

type otpEntry struct {
	Code          string `json:"code"`
	IssuedAtUnix  int64  `json:"issued_at_unix"`
	ExpiresAtUnix int64  `json:"expires_at_unix"`
}

// RedisOTPStore keeps pending OTP challenges in Redis so any service instance
// can verify a code issued by another.
type RedisOTPStore struct {
	client *redis.Client
	nowFn  func() time.Time
}

// NewRedisOTPStore creates the shared OTP challenge store.
func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{
		client: client,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Issue writes a fresh challenge under the identity key. SET replaces any
// prior entry, which is exactly the single-active-code invariant.
func (s *RedisOTPStore) Issue(ctx context.Context, identity string, ttl time.Duration) (string, error) {
	code, err := domain.GenerateOTPCode()
	if err != nil {
		return "", err
	}
	now := s.nowFn()
	raw, err := json.Marshal(otpEntry{
		Code:          code,
		IssuedAtUnix:  now.Unix(),
		ExpiresAtUnix: now.Add(ttl).Unix(),
	})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, otpKeyPrefix+identity, raw, ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

func (s *RedisOTPStore) Verify(ctx context.Context, identity, candidate string) (bool, error) {
	res, err := verifyScript.Run(ctx, s.client,
		[]string{otpKeyPrefix + identity},
		candidate, s.nowFn().Unix(),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
