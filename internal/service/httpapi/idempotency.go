package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// jsonHandler обрабатывает запрос и возвращает HTTP-статус вместе с телом ответа.
type jsonHandler func(r *http.Request) (int, any)

// withIdempotency кэширует ответ мутирующего запроса по заголовку Idempotency-Key.
// Повтор с тем же ключом и телом возвращает сохранённый ответ; повтор с другим
// телом отклоняется. Запрос без ключа обрабатывается напрямую.
func (s *Server) withIdempotency(handler jsonHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idemKey := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
		if s.idemRepo == nil || idemKey == "" {
			status, body := handler(r)
			writeJSON(w, status, body)
			return
		}

		rawBody, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(rawBody))

		reqHash := buildIdempotencyRequestHash(r.Method, r.URL.Path, rawBody)
		record, err := s.idemRepo.CreateProcessing(idemKey, reqHash, time.Now().UTC().Add(idempotencyTTL))
		if err != nil {
			s.replayIdempotency(w, idemKey, record, err)
			return
		}

		status, body := handler(r)
		s.cacheIdempotencyResult(idemKey, status, body)
		writeJSON(w, status, body)
	}
}

func (s *Server) replayIdempotency(w http.ResponseWriter, idemKey string, record domain.IdempotencyRecord, createErr error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "idempotency key is already used with different request payload",
		})
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			s.writeCachedResponse(w, record)
		case domain.IdempotencyStatusProcessing:
			writeJSON(w, http.StatusConflict, errorResponse{
				Error: "request with the same idempotency key is already processing",
			})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "unknown idempotency record status"})
		}
	default:
		s.logger.WithError(createErr).WithField("idempotency_key", idemKey).Warn("failed to create idempotency record")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to initialize idempotency request"})
	}
}

func (s *Server) writeCachedResponse(w http.ResponseWriter, record domain.IdempotencyRecord) {
	status := record.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(record.ResponseBody) > 0 {
		if _, err := w.Write(record.ResponseBody); err != nil {
			s.logger.WithError(err).WithField("idempotency_key", record.Key).Warn("failed to write cached response")
		}
	}
}

func (s *Server) cacheIdempotencyResult(idemKey string, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		s.logger.WithError(err).WithField("idempotency_key", idemKey).Warn("failed to encode idempotency response")
		payload = nil
	}

	var markErr error
	if status < http.StatusBadRequest {
		markErr = s.idemRepo.MarkDone(idemKey, payload, status)
	} else {
		markErr = s.idemRepo.MarkFailed(idemKey, payload, status)
	}
	if markErr != nil {
		s.logger.WithError(markErr).WithField("idempotency_key", idemKey).Warn("failed to store idempotency response")
	}
}

func buildIdempotencyRequestHash(method, path string, body []byte) string {
	payload := make([]byte, 0, len(method)+len(path)+len(body)+2)
	payload = append(payload, method...)
	payload = append(payload, ':')
	payload = append(payload, path...)
	payload = append(payload, ':')
	payload = append(payload, body...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
