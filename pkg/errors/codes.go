package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeTimeout            ErrorCode = "COMMON_004"
	ErrCodeValidation         ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeCacheError         ErrorCode = "COMMON_007"
	ErrCodeExternalService    ErrorCode = "COMMON_008"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_009"
)

// Configuration error codes. Any of these is fatal at startup: the
// classifier refuses to run with an invalid threshold set.
const (
	ErrCodeConfigInvalid          ErrorCode = "CFG_001"
	ErrCodeConfigThresholdRange   ErrorCode = "CFG_002"
	ErrCodeConfigMissingRequired  ErrorCode = "CFG_003"
	ErrCodeConfigUnreadable       ErrorCode = "CFG_004"
)

// Classification error codes.
const (
	ErrCodeStageFailure       ErrorCode = "CLS_001"
	ErrCodeMissingInput       ErrorCode = "CLS_002"
	ErrCodeUnknownMatchType   ErrorCode = "CLS_003"
	ErrCodeBatchAborted       ErrorCode = "CLS_004"
)

// Embedding backend error codes.
const (
	ErrCodeEmbeddingBackend   ErrorCode = "EMB_001"
	ErrCodeEmbeddingTimeout   ErrorCode = "EMB_002"
	ErrCodeEmbeddingEmpty     ErrorCode = "EMB_003"
	ErrCodeEmbeddingCacheMiss ErrorCode = "EMB_004"
)

// codeMessages maps codes to default human-readable descriptions, used by
// factories that are called without a custom message.
var codeMessages = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "not found",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache operation failed",
	ErrCodeExternalService:    "external service error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeConfigInvalid:      "invalid configuration",
	ErrCodeConfigThresholdRange: "threshold out of range",
	ErrCodeConfigMissingRequired: "missing required configuration",
	ErrCodeConfigUnreadable:   "configuration unreadable",
	ErrCodeStageFailure:       "classification stage failed",
	ErrCodeMissingInput:       "missing input text",
	ErrCodeUnknownMatchType:   "unknown match type",
	ErrCodeBatchAborted:       "batch classification aborted",
	ErrCodeEmbeddingBackend:   "embedding backend error",
	ErrCodeEmbeddingTimeout:   "embedding call timed out",
	ErrCodeEmbeddingEmpty:     "embedding backend returned no vectors",
	ErrCodeEmbeddingCacheMiss: "embedding not cached",
}

// DefaultMessage returns the canonical description for a code, or the code
// itself when no description is registered.
func DefaultMessage(code ErrorCode) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return string(code)
}
