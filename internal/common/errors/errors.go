// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Lead pipeline error codes
const (
	ErrCodeLeadValidationFailed ErrorCode = "LEAD_VALIDATION_FAILED"
	ErrCodeLeadParseFailed      ErrorCode = "LEAD_PARSE_FAILED"

	ErrCodeClassifierFailed      ErrorCode = "CLASSIFIER_FAILED"
	ErrCodeClassifierTimeout     ErrorCode = "CLASSIFIER_TIMEOUT"
	ErrCodeClassifierUnavailable ErrorCode = "CLASSIFIER_UNAVAILABLE"

	ErrCodeInvalidBudget ErrorCode = "INVALID_BUDGET"

	ErrCodeBatchSchemaInvalid ErrorCode = "BATCH_SCHEMA_INVALID"
	ErrCodeBatchReadFailed    ErrorCode = "BATCH_READ_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeLeadPersistFailed        ErrorCode = "LEAD_PERSIST_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeLeadIndexFailed               ErrorCode = "LEAD_INDEX_FAILED"

	ErrCodeCRMPushFailed ErrorCode = "CRM_PUSH_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewLeadValidationFailedError creates a non-retryable lead payload validation error.
func NewLeadValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadValidationFailed,
		Message:   "Lead payload validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadParseFailedError creates a non-retryable lead variable parse error.
func NewLeadParseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadParseFailed,
		Message:   "Unable to parse lead variables from job",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierFailedError creates a retryable classifier API error.
func NewClassifierFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierFailed,
		Message:   "Intent classifier API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierTimeoutError creates a retryable classifier timeout error.
func NewClassifierTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierTimeout,
		Message:   "Intent classifier API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierUnavailableError creates a non-retryable error signalling that
// classification was skipped and a neutral fallback score was used instead.
func NewClassifierUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierUnavailable,
		Message:   "Intent classifier unavailable, neutral fallback applied",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidBudgetError creates a non-retryable budget coercion error.
func NewInvalidBudgetError(raw interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidBudget,
		Message:   "Budget value is not numeric, floor band applied",
		Details:   fmt.Sprintf("budget: %v", raw),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBatchSchemaInvalidError creates a non-retryable batch schema error.
func NewBatchSchemaInvalidError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchSchemaInvalid,
		Message:   "Batch file is missing required columns",
		Details:   fmt.Sprintf("missing: %s", strings.Join(missing, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBatchReadFailedError creates a non-retryable batch read error.
func NewBatchReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchReadFailed,
		Message:   "Unable to read batch file",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadPersistFailedError creates a retryable lead insert error.
func NewLeadPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadPersistFailed,
		Message:   "Lead record insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadIndexFailedError creates a retryable lead index error.
func NewLeadIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadIndexFailed,
		Message:   "Lead search index write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCRMPushFailedError creates a retryable CRM push error.
func NewCRMPushFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCRMPushFailed,
		Message:   "CRM lead push failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication or authorization failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeLeadValidationFailed:          "LEAD_VALIDATION_FAILED",
	ErrCodeLeadParseFailed:               "LEAD_PARSE_FAILED",
	ErrCodeClassifierFailed:              "CLASSIFIER_FAILED",
	ErrCodeClassifierTimeout:             "CLASSIFIER_TIMEOUT",
	ErrCodeClassifierUnavailable:         "CLASSIFIER_UNAVAILABLE",
	ErrCodeInvalidBudget:                 "INVALID_BUDGET",
	ErrCodeBatchSchemaInvalid:            "BATCH_SCHEMA_INVALID",
	ErrCodeBatchReadFailed:               "BATCH_READ_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeLeadPersistFailed:             "LEAD_PERSIST_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeLeadIndexFailed:               "LEAD_INDEX_FAILED",
	ErrCodeCRMPushFailed:                 "CRM_PUSH_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeLeadPersistFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeLeadIndexFailed,
		ErrCodeCRMPushFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeClassifierFailed:
		return 3 // Retryable technical errors

	case ErrCodeClassifierTimeout:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CLASSIFIER"):
		return "CLASSIFIER"
	case strings.Contains(codeStr, "BATCH"):
		return "BATCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "PERSIST"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CRM"):
		return "CRM"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
