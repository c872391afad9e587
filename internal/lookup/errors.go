package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
)

// ErrParse marks a response body that could not be decoded
var ErrParse = errors.New("failed to parse response")

// StatusError is a non-2xx answer from the food database
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lookup request failed with status %d", e.StatusCode)
}

var suggestions = map[string]string{
	apperrors.CodeNetworkUnavailable: "Check your internet connection and try again.",
	apperrors.CodeTimeout:            "The request took too long. Please try again.",
	apperrors.CodeNoAPIKey:           "Please add your USDA API key in Settings.",
	apperrors.CodeInvalidAPIKey:      "Please check your API key in Settings.",
	apperrors.CodeServerError:        "The food database is temporarily unavailable. Please try again later.",
	apperrors.CodeParseError:         "There was a problem processing the food data. Please try again.",
	apperrors.CodeUnknown:            "Please try again. If the problem persists, contact support.",
}

// Classify maps any lookup failure onto an AppError with one of the lookup codes.
func Classify(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if _, known := suggestions[appErr.Code]; known {
			return appErr
		}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		switch {
		case code == 401 || code == 403:
			return apperrors.NewInvalidAPIKeyError(err).WithContext("status", code)
		case code >= 400 && code <= 599:
			return apperrors.NewExternalAPIError(err, apperrors.CodeServerError, fmt.Sprintf("Server Error (%d)", code)).
				WithContext("status", code)
		default:
			return apperrors.NewExternalAPIError(err, apperrors.CodeUnknown, fmt.Sprintf("Unexpected Error: HTTP %d", code)).
				WithContext("status", code)
		}
	}

	if errors.Is(err, ErrParse) {
		return apperrors.NewExternalAPIError(err, apperrors.CodeParseError, "Data Format Error")
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeoutError(err, "Request Timed Out")
	}

	if isNetworkDown(err) {
		return apperrors.NewExternalAPIError(err, apperrors.CodeNetworkUnavailable, "No Internet Connection")
	}

	return apperrors.NewExternalAPIError(err, apperrors.CodeUnknown, "Unexpected Error: "+err.Error())
}

func isNetworkDown(err error) bool {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	return errors.As(err, &dnsErr) ||
		errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// Title is the short headline shown for a lookup failure
func Title(err error) string {
	if c := Classify(err); c != nil {
		return c.Message
	}
	return ""
}

// Suggestion tells the user how to recover from a lookup failure
func Suggestion(err error) string {
	if c := Classify(err); c != nil {
		return suggestions[c.Code]
	}
	return ""
}

// CanRetry is false only for missing or rejected API keys.
func CanRetry(err error) bool {
	c := Classify(err)
	if c == nil {
		return true
	}
	return !apperrors.HasCode(c, apperrors.CodeNoAPIKey) && !apperrors.HasCode(c, apperrors.CodeInvalidAPIKey)
}
