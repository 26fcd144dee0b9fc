package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every module.
const (
	ErrCodeUnknown            ErrorCode = "COMMON_000"
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"

	// CodeOK is the sentinel for "no error"; used by GetCode on nil errors.
	CodeOK ErrorCode = "OK"
)

// Enrichment engine error codes.
const (
	// ErrCodeEnrichModelCall marks a transient model transport failure:
	// network error, non-2xx API response, or per-call timeout.  Eligible
	// for retry under the shared budget.
	ErrCodeEnrichModelCall ErrorCode = "ENR_001"

	// ErrCodeEnrichMalformedResponse marks a model reply that could not be
	// decoded as JSON even after repair.  Retried under the same budget as
	// transport failures.
	ErrCodeEnrichMalformedResponse ErrorCode = "ENR_002"

	// ErrCodeEnrichRetriesExhausted is the terminal failure of a single
	// classification or risk-assessment call after all attempts were spent.
	ErrCodeEnrichRetriesExhausted ErrorCode = "ENR_003"

	// ErrCodeEnrichClassificationFailed wraps a classification pipeline
	// failure surfaced to callers.
	ErrCodeEnrichClassificationFailed ErrorCode = "ENR_004"

	// ErrCodeEnrichRiskFailed wraps a risk-assessment pipeline failure
	// surfaced to callers.
	ErrCodeEnrichRiskFailed ErrorCode = "ENR_005"

	// ErrCodeEnrichBatchTooLarge rejects a batch exceeding the configured cap.
	ErrCodeEnrichBatchTooLarge ErrorCode = "ENR_006"

	// ErrCodeEnrichEmptyInput rejects a request whose content is empty after
	// trimming.
	ErrCodeEnrichEmptyInput ErrorCode = "ENR_007"

	// ErrCodeEnrichRunNotCompleted marks an assistant-thread run that ended
	// in a non-completed terminal status (failed, cancelled, expired).
	ErrCodeEnrichRunNotCompleted ErrorCode = "ENR_008"
)

// Tenant and storage error codes.
const (
	ErrCodeTenantMissing   ErrorCode = "TNT_001"
	ErrCodeStorageDuplicate ErrorCode = "STO_001"
	ErrCodeEventPublish     ErrorCode = "EVT_001"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,

	ErrCodeEnrichModelCall:            http.StatusBadGateway,
	ErrCodeEnrichMalformedResponse:    http.StatusBadGateway,
	ErrCodeEnrichRetriesExhausted:     http.StatusBadGateway,
	ErrCodeEnrichClassificationFailed: http.StatusBadGateway,
	ErrCodeEnrichRiskFailed:           http.StatusBadGateway,
	ErrCodeEnrichBatchTooLarge:        http.StatusBadRequest,
	ErrCodeEnrichEmptyInput:           http.StatusBadRequest,
	ErrCodeEnrichRunNotCompleted:      http.StatusBadGateway,

	ErrCodeTenantMissing:    http.StatusBadRequest,
	ErrCodeStorageDuplicate: http.StatusConflict,
	ErrCodeEventPublish:     http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",

	ErrCodeEnrichModelCall:            "model call failed",
	ErrCodeEnrichMalformedResponse:    "model response is not valid JSON",
	ErrCodeEnrichRetriesExhausted:     "all enrichment attempts failed",
	ErrCodeEnrichClassificationFailed: "classification failed",
	ErrCodeEnrichRiskFailed:           "risk assessment failed",
	ErrCodeEnrichBatchTooLarge:        "batch exceeds the configured limit",
	ErrCodeEnrichEmptyInput:           "input content is empty",
	ErrCodeEnrichRunNotCompleted:      "assistant run did not complete",

	ErrCodeTenantMissing:    "tenant id is required",
	ErrCodeStorageDuplicate: "result already stored for this correlation id",
	ErrCodeEventPublish:     "failed to publish event",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
