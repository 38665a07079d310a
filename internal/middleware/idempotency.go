package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader   = "Idempotency-Key"
	idempotencyLockTTL  = 30 * time.Second
	idempotencyReplyTTL = 24 * time.Hour
)

func IdempotencyCacheKey(path, employeeID, key string) string {
	return fmt.Sprintf("idemp:%s:%s:%s", path, employeeID, key)
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a POST carrying a previously seen
// Idempotency-Key. A concurrent duplicate gets 409 while the first is running.
// Server errors are not stored so the client can retry.
func Idempotency(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("middleware.idempotency")
	return func(c *gin.Context) {
		idempKey := c.GetHeader(IdempotencyHeader)
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := IdempotencyCacheKey(c.Request.URL.Path, c.GetString(string(ContextEmployeeID)), idempKey)
		lockKey := cacheKey + ":lock"

		if cached, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
			status, body := decodeReply(cached)
			c.Header("Idempotent-Replay", "true")
			c.Data(status, "application/json; charset=utf-8", []byte(body))
			c.Abort()
			return
		} else if err != redis.Nil {
			log.Warn("idempotency cache read failed", zap.Error(err))
		}

		acquired, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			log.Warn("idempotency lock failed, continuing without it", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			abortWith(c, ErrProcessing)
			return
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			if err := rdb.Set(ctx, cacheKey, encodeReply(c.Writer.Status(), w.body.String()), idempotencyReplyTTL).Err(); err != nil {
				log.Warn("idempotency cache write failed", zap.Error(err))
			}
		}
		if err := rdb.Del(ctx, lockKey).Err(); err != nil {
			log.Warn("idempotency unlock failed", zap.Error(err))
		}
	}
}

// Stored replies are "<status>\n<body>".
func encodeReply(status int, body string) string {
	return strconv.Itoa(status) + "\n" + body
}

func decodeReply(v string) (int, string) {
	head, body, found := strings.Cut(v, "\n")
	if !found {
		return http.StatusOK, v
	}
	status, err := strconv.Atoi(head)
	if err != nil {
		return http.StatusOK, v
	}
	return status, body
}
