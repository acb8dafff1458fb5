// Package businessflow contains the core business logic and use cases for the lead pipeline
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Content generation errors
	ErrFocusRequired       = errors.New("content focus is required")
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// Review/approval errors
	ErrPostNotFound            = errors.New("pending post not found")
	ErrInvalidStatusTransition = errors.New("invalid post status transition")
	ErrContentOverLimit        = errors.New("content exceeds platform character limit")
	ErrScheduleTimeNotPresent  = errors.New("schedule time is not present")
	ErrScheduleTimeInPast      = errors.New("schedule time is in the past")
	ErrUnknownReviewAction     = errors.New("unknown review action")
	ErrPostAlreadyFinalized    = errors.New("post is already in a terminal state")
	ErrPublishFailed           = errors.New("platform publish failed")
	ErrPlatformClientMissing   = errors.New("no client configured for platform")

	// Lead discovery/conversion errors
	ErrKeywordsRequired = errors.New("at least one keyword is required")
	ErrLeadNotFound     = errors.New("lead not found")
	ErrLeadUUIDRequired = errors.New("lead UUID is required")
	ErrNoLeadsToExport  = errors.New("no leads match the export filter")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsPostNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}

func IsInvalidStatusTransition(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition)
}

func IsContentOverLimit(err error) bool {
	return errors.Is(err, ErrContentOverLimit)
}

func IsScheduleTimeNotPresent(err error) bool {
	return errors.Is(err, ErrScheduleTimeNotPresent)
}

func IsScheduleTimeInPast(err error) bool {
	return errors.Is(err, ErrScheduleTimeInPast)
}

func IsUnknownReviewAction(err error) bool {
	return errors.Is(err, ErrUnknownReviewAction)
}

func IsPostAlreadyFinalized(err error) bool {
	return errors.Is(err, ErrPostAlreadyFinalized)
}

func IsPublishFailed(err error) bool {
	return errors.Is(err, ErrPublishFailed)
}

func IsFocusRequired(err error) bool {
	return errors.Is(err, ErrFocusRequired)
}

func IsUnsupportedPlatform(err error) bool {
	return errors.Is(err, ErrUnsupportedPlatform)
}

func IsKeywordsRequired(err error) bool {
	return errors.Is(err, ErrKeywordsRequired)
}

func IsLeadNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound)
}

func IsLeadUUIDRequired(err error) bool {
	return errors.Is(err, ErrLeadUUIDRequired)
}

func IsNoLeadsToExport(err error) bool {
	return errors.Is(err, ErrNoLeadsToExport)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
