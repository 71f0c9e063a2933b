// Package errors provides standardized error handling for the analysis engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors: the caller sent data the ledger cannot accept.
	ErrCodeMissingReference ErrorCode = "MISSING_REFERENCE"
	ErrCodeInvalidCategory  ErrorCode = "INVALID_CATEGORY"
	ErrCodeNegativeCost     ErrorCode = "NEGATIVE_COST"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Precondition errors: the caller requested a computation before its
	// inputs exist. Never retried; the caller must calculate TCO first.
	ErrCodeNoBaselineTCO ErrorCode = "NO_BASELINE_TCO"
	ErrCodeNoTCOData     ErrorCode = "NO_TCO_DATA"

	// Not-found errors.
	ErrCodeScenarioNotFound  ErrorCode = "SCENARIO_NOT_FOUND"
	ErrCodeCostEntryNotFound ErrorCode = "COST_ENTRY_NOT_FOUND"
	ErrCodeVendorNotFound    ErrorCode = "VENDOR_NOT_FOUND"
	ErrCodeROINotFound       ErrorCode = "ROI_NOT_FOUND"

	// Store failures propagate unchanged and are the only retryable kind.
	ErrCodeStoreQueryFailed  ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeStoreUpsertFailed ErrorCode = "STORE_UPSERT_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMissingReferenceError creates a fatal precondition failure for an entry
// lacking its project or vendor reference.
func NewMissingReferenceError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingReference,
		Message:   "Cost entry must reference a project and a vendor",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCategoryError creates a non-retryable category validation error.
func NewInvalidCategoryError(category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCategory,
		Message:   "Category is not one of the fixed cost categories",
		Details:   fmt.Sprintf("category: %s", category),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNegativeCostError creates a non-retryable validation error for a
// negative yearly amount.
func NewNegativeCostError(year int, value float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeNegativeCost,
		Message:   "Yearly cost amounts must be non-negative",
		Details:   fmt.Sprintf("year%d: %v", year, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a generic non-retryable validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoBaselineTCOError signals a sensitivity run requested before any TCO
// summaries exist for the project.
func NewNoBaselineTCOError(projectID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoBaselineTCO,
		Message:   "No baseline TCO data for project; calculate TCO first",
		Details:   fmt.Sprintf("projectId: %s", projectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoTCODataError signals an ROI calculation requested before the vendor's
// TCO summary exists.
func NewNoTCODataError(projectID, vendorID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoTCOData,
		Message:   "No TCO data for vendor; calculate TCO first",
		Details:   fmt.Sprintf("projectId: %s, vendorId: %s", projectID, vendorID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScenarioNotFoundError creates a non-retryable not-found error.
func NewScenarioNotFoundError(scenarioID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScenarioNotFound,
		Message:   "Sensitivity scenario not found",
		Details:   fmt.Sprintf("scenarioId: %s", scenarioID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCostEntryNotFoundError creates a non-retryable not-found error.
func NewCostEntryNotFoundError(entryID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCostEntryNotFound,
		Message:   "Cost entry not found",
		Details:   fmt.Sprintf("entryId: %s", entryID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVendorNotFoundError creates a non-retryable not-found error.
func NewVendorNotFoundError(vendorID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVendorNotFound,
		Message:   "Vendor not found in project",
		Details:   fmt.Sprintf("vendorId: %s", vendorID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewROINotFoundError signals a read of a vendor's ROI record before any
// calculation ran for it.
func NewROINotFoundError(projectID, vendorID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeROINotFound,
		Message:   "No ROI calculation for vendor",
		Details:   fmt.Sprintf("projectId: %s, vendorId: %s", projectID, vendorID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreQueryError wraps a store read failure; the cause is preserved for
// the caller to inspect and decide about retrying.
func NewStoreQueryError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "Store query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStoreUpsertError wraps a store write failure.
func NewStoreUpsertError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUpsertFailed,
		Message:   "Store upsert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// Kind buckets error codes for the API surface.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindPrecondition
	KindNotFound
	KindStore
)

// KindOf classifies an error code.
func KindOf(code ErrorCode) Kind {
	switch code {
	case ErrCodeMissingReference, ErrCodeInvalidCategory, ErrCodeNegativeCost, ErrCodeValidationFailed:
		return KindValidation
	case ErrCodeNoBaselineTCO, ErrCodeNoTCOData:
		return KindPrecondition
	case ErrCodeScenarioNotFound, ErrCodeCostEntryNotFound, ErrCodeVendorNotFound, ErrCodeROINotFound:
		return KindNotFound
	case ErrCodeStoreQueryFailed, ErrCodeStoreUpsertFailed:
		return KindStore
	default:
		return KindUnknown
	}
}

// AsStandard extracts a *StandardError from err, or nil.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return nil
}

// CodeOf returns err's error code, or "UNKNOWN" when err does not carry one.
func CodeOf(err error) ErrorCode {
	if stdErr := AsStandard(err); stdErr != nil {
		return stdErr.Code
	}
	return ErrorCode("UNKNOWN")
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	stdErr := AsStandard(err)
	return stdErr != nil && stdErr.Code == code
}

// IsRetryable reports whether err is worth retrying. Validation and
// precondition errors indicate caller sequencing mistakes and never are.
func IsRetryable(err error) bool {
	stdErr := AsStandard(err)
	return stdErr != nil && stdErr.Retryable
}
