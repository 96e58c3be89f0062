package srs

import "errors"

// Sentinel errors for the srs package.
// Use errors.Is to check: errors.Is(err, srs.ErrInvalidArgument)
var (
	ErrInvalidArgument = errors.New("srs: invalid argument")
	ErrItemMismatch    = errors.New("srs: item ID mismatch in review log")
)
