package activityrepo

import "errors"

var (
	// ErrNotFound indicates the named activity does not exist.
	ErrNotFound = errors.New("activity not found")

	// ErrAlreadyEnrolled indicates the email is already on the activity's roster.
	ErrAlreadyEnrolled = errors.New("participant already enrolled")

	// ErrNotEnrolled indicates the email is not on the activity's roster.
	ErrNotEnrolled = errors.New("participant not enrolled")

	// ErrFull indicates the roster is at capacity. Only returned when capacity is enforced.
	ErrFull = errors.New("activity is full")
)
