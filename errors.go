package scatgat

import "errors"

// ErrWrongMode is returned when a read operation is called on a write
// plan, or vice versa.
var ErrWrongMode = errors.New("scatgat: wrong plan mode for this operation")

// ErrNoFiles describes the case where no file in the requested module×disk
// grid could be opened. BuildReadPlan and BuildWritePlan do not return it:
// they report that case as a nil Plan and a count of 0.
var ErrNoFiles = errors.New("scatgat: no SG files found for this grid")

// ErrClosed is returned by operations called on a plan that has already
// been closed.
var ErrClosed = errors.New("scatgat: plan already closed")
