package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are "<MODULE>_<NNN>" so that ModuleForCode can derive a metric label.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeRateLimited        ErrorCode = "COMMON_014"
	ErrCodeConfigInvalid      ErrorCode = "COMMON_017"
)

// Vehicle module error codes
const (
	ErrCodeInvalidVehicle     ErrorCode = "VEH_001"
	ErrCodeYearOutOfRange     ErrorCode = "VEH_002"
	ErrCodeInvalidMileage     ErrorCode = "VEH_003"
	ErrCodeVehicleNotFound    ErrorCode = "VEH_004"
	ErrCodeInvalidFactor      ErrorCode = "VEH_005"
	ErrCodeInvalidComplaint   ErrorCode = "VEH_006"
	ErrCodeReferenceDataError ErrorCode = "VEH_007"
)

// Valuation module error codes
const (
	ErrCodeValuationFailed ErrorCode = "VAL_001"
	ErrCodeInvalidWeights  ErrorCode = "VAL_002"
	ErrCodeInvalidPrice    ErrorCode = "VAL_003"
)

// Short aliases used at call sites.
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")

	CodeInternal           = ErrCodeInternal
	CodeInvalidParam       = ErrCodeBadRequest
	CodeNotFound           = ErrCodeNotFound
	CodeServiceUnavailable = ErrCodeServiceUnavailable
	CodeCacheError         = ErrCodeCacheError
	CodeConfigInvalid      = ErrCodeConfigInvalid

	CodeInvalidVehicle     = ErrCodeInvalidVehicle
	CodeYearOutOfRange     = ErrCodeYearOutOfRange
	CodeInvalidMileage     = ErrCodeInvalidMileage
	CodeVehicleNotFound    = ErrCodeVehicleNotFound
	CodeInvalidFactor      = ErrCodeInvalidFactor
	CodeReferenceDataError = ErrCodeReferenceDataError
	CodeInvalidPrice       = ErrCodeInvalidPrice
	CodeInvalidWeights     = ErrCodeInvalidWeights
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeConfigInvalid:      http.StatusInternalServerError,

	ErrCodeInvalidVehicle:     http.StatusBadRequest,
	ErrCodeYearOutOfRange:     http.StatusBadRequest,
	ErrCodeInvalidMileage:     http.StatusBadRequest,
	ErrCodeVehicleNotFound:    http.StatusNotFound,
	ErrCodeInvalidFactor:      http.StatusBadRequest,
	ErrCodeInvalidComplaint:   http.StatusBadRequest,
	ErrCodeReferenceDataError: http.StatusInternalServerError,

	ErrCodeValuationFailed: http.StatusInternalServerError,
	ErrCodeInvalidWeights:  http.StatusInternalServerError,
	ErrCodeInvalidPrice:    http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeRateLimited:        "rate limit exceeded",
	ErrCodeConfigInvalid:      "invalid configuration",

	ErrCodeInvalidVehicle:     "invalid vehicle identity",
	ErrCodeYearOutOfRange:     "model year out of range",
	ErrCodeInvalidMileage:     "invalid mileage",
	ErrCodeVehicleNotFound:    "vehicle not found in reference data",
	ErrCodeInvalidFactor:      "invalid lifespan factor",
	ErrCodeInvalidComplaint:   "invalid complaint record",
	ErrCodeReferenceDataError: "reference data could not be loaded",

	ErrCodeValuationFailed: "vehicle valuation failed",
	ErrCodeInvalidWeights:  "score weights are invalid",
	ErrCodeInvalidPrice:    "invalid asking price",
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

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
