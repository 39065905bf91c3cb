package services

// Error taxonomy for the intake pipeline. Dependency failures (classifier,
// geocoder, email) never surface here: they are contained inside the adapters.

// ValidationError means the caller sent missing or malformed input. No side
// effects were performed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError means a referenced report or user does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// RejectedContentError means the classifier judged the submission irrelevant.
// A policy decision, not malformed input; no durable writes were performed.
type RejectedContentError struct {
	Justification string
}

func (e *RejectedContentError) Error() string {
	return "report rejected: " + e.Justification
}

// StorageError means the durable image write failed. Fatal to the operation;
// no report row was created or updated.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "image storage failed: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError means a database write failed.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "database write failed: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }
