package tasks

import "errors"

var (
	// ErrInvalidWeights is returned when a weight set fails validation
	ErrInvalidWeights = errors.New("invalid recommendation weights")
	// ErrInvalidDate is returned for malformed evaluation dates
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrInvalidLimit is returned for negative result limits
	ErrInvalidLimit = errors.New("limit must not be negative")
)
