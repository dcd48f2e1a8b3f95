package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/internal/presentation/http/dto/response"
	"github.com/resona/rental-api/pkg/apperror"
	log "github.com/sirupsen/logrus"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the store
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository

	// Required rejects requests without a key
	Required bool
}

// captureWriter copies the response body while it is written to the client
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a request carries an
// Idempotency-Key the same user already used on the same route. Only 2xx
// responses are stored, so a failed attempt can be retried with the same key.
// Reusing a key for a different path or body is rejected with 422.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if config.Required {
				response.Abort(c, apperror.NewReasonError(apperror.ReasonIdempotencyKey,
					"Idempotency-Key header is required for this request"))
				return
			}
			c.Next()
			return
		}

		userID, _ := c.Get("user_id")
		uid, ok := userID.(uuid.UUID)
		if !ok {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Abort(c, apperror.NewBadRequestError("Could not read request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		endpoint := c.Request.Method + " " + c.FullPath()
		fingerprint := requestFingerprint(c.Request.URL.Path, body)

		existing, err := config.Repo.Get(c.Request.Context(), uid, endpoint, key)
		if err != nil {
			response.Abort(c, err)
			return
		}

		if existing != nil && !existing.IsExpired() {
			if existing.RequestHash != fingerprint {
				response.Abort(c, &apperror.AppError{
					Code:    http.StatusUnprocessableEntity,
					Message: "Idempotency-Key was already used for a different request",
					Reason:  apperror.ReasonIdempotencyReuse,
				})
				return
			}
			c.Header(IdempotencyReplayedHeader, "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		w := &captureWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		record := &entity.IdempotencyKey{
			Key:          key,
			UserID:       uid,
			Endpoint:     endpoint,
			RequestHash:  fingerprint,
			ResponseCode: status,
			ResponseBody: w.body.String(),
			ExpiresAt:    time.Now().Add(IdempotencyKeyTTL),
		}
		if err := config.Repo.Save(c.Request.Context(), record); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"endpoint":   endpoint,
				"request_id": c.GetString("request_id"),
			}).Warn("failed to store idempotency key")
		}
	}
}

func requestFingerprint(path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
