// Package stores holds the Redis-backed record stores of the admission
// engine. Records are short-lived, binary-encoded, and expire through Redis
// TTLs; nothing here is durable state.
package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpRecordVersionV1 = 1

var (
	ErrOtpNotFound         = errors.New("otp record not found")
	ErrOtpExpired          = errors.New("otp record expired")
	ErrOtpCodeMismatch     = errors.New("otp code mismatch")
	ErrOtpAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrOtpRedisUnavailable = errors.New("otp redis unavailable")
)

// consumeOtpLua atomically performs the whole verify step for one subject:
// GET → expiry check → attempt gate → increment → compare → DEL-on-match.
// Running it server-side is what serializes concurrent verifies per subject.
// KEYS[1] = record key
// ARGV[1] = provided hash (32 bytes)
// ARGV[2] = max attempts (int string)
// ARGV[3] = current unix timestamp (int string)
//
// Returns record bytes on success, else one of the error strings
// "not_found", "expired", "attempts_exceeded", "code_mismatch".
var consumeOtpLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local providedHash = ARGV[1]
local maxAttempts = tonumber(ARGV[2])
local nowUnix = tonumber(ARGV[3])

-- Binary layout: version(1) attempts(2 big-endian) issuedAt(8) expiresAt(8) hash(32)
local version = string.byte(data, 1)
if version ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local a0 = string.byte(data, 2)
local a1 = string.byte(data, 3)
local attempts = a0 * 256 + a1

local e0,e1,e2,e3,e4,e5,e6,e7 = string.byte(data, 12, 19)
local expiresAt = e0
for _, b in ipairs({e1,e2,e3,e4,e5,e6,e7}) do
  expiresAt = expiresAt * 256 + b
end

if nowUnix > expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

if attempts >= maxAttempts then
  return {err='attempts_exceeded'}
end

attempts = attempts + 1
local storedHash = string.sub(data, 20, 51)

if storedHash == providedHash then
  redis.call('DEL', KEYS[1])
  return data
end

-- Rewrite the attempt counter, keeping the remaining TTL.
local newA0 = math.floor(attempts / 256)
local newA1 = attempts % 256
local newData = string.sub(data, 1, 1) .. string.char(newA0, newA1) .. string.sub(data, 4)
local ttlMs = redis.call('PTTL', KEYS[1])
if ttlMs <= 0 then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end
redis.call('SET', KEYS[1], newData, 'PX', ttlMs)
return {err='code_mismatch'}
`)

// OtpRecord is one outstanding code for a subject. Only the keyed hash of the
// code is stored.
type OtpRecord struct {
	CodeHash  [32]byte
	IssuedAt  int64
	ExpiresAt int64
	Attempts  uint16
}

// OtpStore keeps OTP records in Redis keyed by subject, relying on Redis TTL
// for expiry and on the consume script for per-subject atomicity.
type OtpStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewOtpStore(redisClient redis.UniversalClient, prefix string) *OtpStore {
	if prefix == "" {
		prefix = "ksotp"
	}
	return &OtpStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *OtpStore) key(subject string) string {
	return s.prefix + ":" + subject
}

// Save writes the record, overwriting any prior record for the subject.
func (s *OtpStore) Save(ctx context.Context, subject string, record *OtpRecord, ttl time.Duration) error {
	encoded, err := encodeOtpRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(subject), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrOtpRedisUnavailable, err)
	}

	return nil
}

// Consume runs one verify attempt. A nil return means the code matched and
// the record was deleted. Every failure mode charges or preserves the attempt
// budget exactly as the script dictates.
func (s *OtpStore) Consume(
	ctx context.Context,
	subject string,
	providedHash [32]byte,
	maxAttempts int,
	now time.Time,
) (*OtpRecord, error) {
	result, err := consumeOtpLua.Run(ctx, s.redis,
		[]string{s.key(subject)},
		string(providedHash[:]),
		maxAttempts,
		now.Unix(),
	).Result()

	if err != nil {
		switch err.Error() {
		case "not_found":
			return nil, ErrOtpNotFound
		case "expired":
			return nil, ErrOtpExpired
		case "attempts_exceeded":
			return nil, ErrOtpAttemptsExceeded
		case "code_mismatch":
			return nil, ErrOtpCodeMismatch
		default:
			return nil, fmt.Errorf("%w: %v", ErrOtpRedisUnavailable, err)
		}
	}

	data, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected lua result type", ErrOtpRedisUnavailable)
	}

	record, decErr := decodeOtpRecord([]byte(data))
	if decErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrOtpRedisUnavailable, decErr)
	}

	// Final constant-time comparison in Go as defense-in-depth
	// (Lua already checked, but Lua string comparison is not constant-time)
	if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
		return nil, ErrOtpCodeMismatch
	}

	return record, nil
}

// Peek reads the record without mutating it, for attempt-count queries.
// Expired and missing records both report ErrOtpNotFound.
func (s *OtpStore) Peek(ctx context.Context, subject string, now time.Time) (*OtpRecord, error) {
	data, err := s.redis.Get(ctx, s.key(subject)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOtpNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrOtpRedisUnavailable, err)
	}

	record, err := decodeOtpRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOtpRedisUnavailable, err)
	}
	if now.Unix() > record.ExpiresAt {
		return nil, ErrOtpNotFound
	}

	return record, nil
}

func encodeOtpRecord(record *OtpRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(otpRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeOtpRecord(data []byte) (*OtpRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpRecordVersionV1 {
		return nil, errors.New("invalid otp record version")
	}

	record := &OtpRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
