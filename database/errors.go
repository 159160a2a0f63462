package database

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSlotTaken is returned when another active booking already holds the slot key.
	ErrSlotTaken = errors.New("slot already taken by an active booking")
	// ErrStatusMismatch is returned by conditional writes whose expected prior status no longer holds.
	ErrStatusMismatch = errors.New("booking status changed concurrently")
)
