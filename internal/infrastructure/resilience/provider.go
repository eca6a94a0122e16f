package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

// StatusCodeFunc extracts an HTTP status from a provider-specific error.
type StatusCodeFunc func(err error) (int, bool)

// ClassifyProviderError is the shared policy for remote model providers:
// throttling, 5xx, timeouts and network errors are retried; cancellation is not
// recorded against the breaker.
func ClassifyProviderError(err error, statusCode StatusCodeFunc) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if statusCode != nil {
		if code, ok := statusCode(err); ok {
			if IsRetryableHTTPStatus(code) {
				return ErrorClassification{Retryable: true, RecordFailure: true}
			}
			return ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

// ClassifyAnswerError retries unusable model answers (domain.ErrInvalidInput)
// without counting them against the breaker; other errors go to transport.
func ClassifyAnswerError(err error, transport ErrorClassifier) ErrorClassification {
	if domain.IsKind(err, domain.ErrInvalidInput) {
		return ErrorClassification{Retryable: true, RecordFailure: false}
	}
	return transport(err)
}

// WrapTemporary tags errors the classifier considers transient with domain.ErrTemporary.
func WrapTemporary(operation string, err error, classifier ErrorClassifier) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifier(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
