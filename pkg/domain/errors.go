package domain

import "fmt"

// ConstraintViolationError reports a unique-index collision on add or update.
// The collection is left unchanged.
type ConstraintViolationError struct {
	Entity EntityType
	Index  string
	Value  string
}

func (e ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Index, e.Value)
}

// InvalidTransitionError reports a lifecycle operation attempted from the
// wrong state. The record is left unchanged.
type InvalidTransitionError struct {
	Entity EntityType
	ID     string
	From   string
	To     string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

// WeightBudgetExceededError reports a staging attempt that would push a
// draft box past the configured maximum weight.
type WeightBudgetExceededError struct {
	Limit     float64
	Staged    float64
	Candidate float64
}

func (e WeightBudgetExceededError) Error() string {
	return fmt.Sprintf("staging %.2fkg onto %.2fkg exceeds the %.2fkg budget", e.Candidate, e.Staged, e.Limit)
}

// NotFoundError reports a referenced identifier that is absent.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
