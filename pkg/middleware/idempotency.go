package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/studentevent/api/pkg/response"
)

const (
	// IdempotencyKeyHeader is the header carrying the client-chosen key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// idempotencyKeyPrefix namespaces records in Redis
	idempotencyKeyPrefix = "idempotency:"
)

// idempotencyStatus represents the state of an idempotency record
type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

// idempotencyRecord stores the state of an idempotent request
type idempotencyRecord struct {
	Key          string            `json:"key"`
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
}

// IdempotencyStore is the subset of redis.Client the middleware needs
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store IdempotencyStore
	// TTL for completed records (default: 5 minutes, enough for network retries)
	TTL time.Duration
	// ProcessingTTL bounds how long an in-flight record blocks duplicates (default: 60s)
	ProcessingTTL time.Duration
}

// Idempotency replays the cached response for a repeated mutating
// request carrying the same X-Idempotency-Key. Clients opt in per
// request by sending the header; requests without it pass through
// untouched. Redis errors fail open.
func Idempotency(config *IdempotencyConfig) gin.HandlerFunc {
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.ProcessingTTL <= 0 {
		config.ProcessingTTL = 60 * time.Second
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		hash := requestHash(c, body)
		redisKey := idempotencyKeyPrefix + key
		ctx := c.Request.Context()

		existing, err := getRecord(ctx, config.Store, redisKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		if existing != nil {
			replayRecord(c, existing, hash)
			return
		}

		record := &idempotencyRecord{
			Key:         key,
			Status:      statusProcessing,
			RequestHash: hash,
			CreatedAt:   time.Now(),
		}

		// SetNX decides the winner when two retries race
		if !trySetRecord(ctx, config.Store, redisKey, record, config.ProcessingTTL) {
			existing, _ = getRecord(ctx, config.Store, redisKey)
			if existing != nil {
				replayRecord(c, existing, hash)
				return
			}
		}

		rw := &captureWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = rw

		c.Next()

		record.Status = statusCompleted
		record.ResponseCode = rw.status
		record.ResponseBody = rw.body.String()
		saveRecord(ctx, config.Store, redisKey, record, config.TTL)
	}
}

// replayRecord serves a prior or in-flight record for a repeated key
func replayRecord(c *gin.Context, record *idempotencyRecord, hash string) {
	if record.RequestHash != hash {
		response.Error(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED",
			"idempotency key already used with a different request", "")
		c.Abort()
		return
	}
	if record.Status == statusProcessing {
		response.Conflict(c, "a request with this idempotency key is already being processed")
		c.Abort()
		return
	}
	c.Data(record.ResponseCode, "application/json", []byte(record.ResponseBody))
	c.Abort()
}

// captureWriter captures the response for caching
type captureWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func requestHash(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	if userID, ok := GetUserID(c); ok {
		h.Write([]byte(userID))
	}
	if len(body) > 0 {
		h.Write(body)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func getRecord(ctx context.Context, store IdempotencyStore, key string) (*idempotencyRecord, error) {
	result, err := store.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(result), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func trySetRecord(ctx context.Context, store IdempotencyStore, key string, record *idempotencyRecord, ttl time.Duration) bool {
	data, err := json.Marshal(record)
	if err != nil {
		return false
	}
	ok, err := store.SetNX(ctx, key, string(data), ttl).Result()
	if err != nil {
		return false
	}
	return ok
}

func saveRecord(ctx context.Context, store IdempotencyStore, key string, record *idempotencyRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(data), ttl).Err()
}
