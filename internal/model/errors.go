package model

import "errors"

// Common errors used across the application
var (
	// ErrParticipantExists is returned when admitting an identifier that
	// already has a record. The existing record is never overwritten.
	ErrParticipantExists = errors.New("participant already exists")

	// ErrParticipantNotFound is returned when an operation references a
	// participant with no record
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrSlotsFull is returned by marker assignment when both seats are
	// already taken. It indicates a prior bug or a lost race, never a
	// normal outcome.
	ErrSlotsFull = errors.New("both active slots are taken")

	// ErrConditionFailed is the store's optimistic-concurrency rejection
	ErrConditionFailed = errors.New("store condition failed")

	// ErrMissingLoser is returned for a game result with no loser (a tie)
	ErrMissingLoser = errors.New("game result has no loser")
)
