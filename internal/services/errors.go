// Package services defines the business logic for report creation,
// editing, status toggling and paginated listing. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// Translation into user-facing notices or HTTP status codes is performed
// at the handler layer, with one rule carried from the domain design:
// every notice derived from these errors must attach a menu or retry
// control, so no failure path leaves the operator at a dead end.
package services

import "errors"

var (
	// ErrReportNotFound indicates that the addressed report does not exist
	// in the caller's group. Surfaced as a user-visible notice, never fatal.
	ErrReportNotFound = errors.New("report not found")

	// ErrInvalidField is returned when an edit targeted a field outside the
	// mutable allow-list. This is a routing bug, not bad operator input,
	// and is propagated loudly rather than absorbed.
	ErrInvalidField = errors.New("field is not editable")

	// ErrInvalidStatus is returned for status values outside pending/done.
	ErrInvalidStatus = errors.New("invalid status value")

	// ErrDuplicateReport indicates a (group, message) key collision on
	// creation. Fatal for that single attempt; no record is created.
	ErrDuplicateReport = errors.New("report already exists")

	// ErrNoSession is returned when input arrives without a form session,
	// edit context or delete context to receive it.
	ErrNoSession = errors.New("no active session")

	// ErrNotOptional is returned when a skip signal targets a mandatory
	// collection step.
	ErrNotOptional = errors.New("current step is not optional")

	// ErrNoFieldSelected is returned when an edit value arrives before a
	// field was chosen.
	ErrNoFieldSelected = errors.New("no field selected for editing")

	// ErrEmptyInput is returned when a collected text input is blank
	// after trimming.
	ErrEmptyInput = errors.New("input is empty")
)
