package storage

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict: запись уже в состоянии, которое не допускает операцию
	ErrConflict = errors.New("record state conflict")
)
