package utils

import (
	"context"
	"errors"
	"net"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrClientHTTPError  = errors.New("client HTTP error (4xx)")    // Wraps original status
	ErrServerHTTPError  = errors.New("server HTTP error (5xx)")    // Wraps original status
	ErrOtherHTTPError   = errors.New("other HTTP error (non-2xx)") // Wraps original status
	ErrRequestCreation  = errors.New("failed to create HTTP request")
	ErrResponseBodyRead = errors.New("failed to read response body")
	ErrInvalidURL       = errors.New("invalid URL") // Wraps the parse error
	ErrAcquireAborted   = errors.New("permit acquisition aborted")
	ErrConfigValidation = errors.New("configuration validation error")
	ErrRunFinished      = errors.New("crawl run already finished")
)

// CategorizeError maps an error to a predefined category string for logging.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		return "HTTP_4xx"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrInvalidURL):
		return "Content_ParsingURL"
	case errors.Is(err, ErrAcquireAborted):
		return "Resource_AcquireAborted"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// Context errors
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	// Network errors that arrive without a sentinel wrapper
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}
	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "timeout") {
		return "Network_TimeoutGeneric"
	}
	if strings.Contains(lowerErrMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerErrMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate") {
		return "Network_TLS"
	}
	if strings.Contains(lowerErrMsg, "reset by peer") {
		return "Network_ConnectionReset"
	}

	return "Unknown"
}
