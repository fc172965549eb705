package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrNoData indicates that no exchange rate data has been fetched or persisted yet.
// Callers should treat this as a retryable absence, not a malformed request.
var ErrNoData = errors.New("exchange rate data unavailable")

// ErrProviderUnavailable indicates that the external rate source could not be
// reached or returned an unusable payload. It is contained inside the refresh
// loop and never surfaced to API clients directly.
var ErrProviderUnavailable = errors.New("rate provider unavailable")
