package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy of the put wall domain. Callers branch on these with errors.Is.
var (
	// ErrInvalidArgument is returned when the caller supplied invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState is returned when an operation is illegal for the current slot state.
	ErrInvalidState = errors.New("invalid state")

	// ErrCapacityExceeded is returned by AssignOrderToSlot when no slot is free.
	ErrCapacityExceeded = errors.New("put wall capacity exceeded")

	ErrNotFound     = errors.New("not found")
	ErrSlotNotFound = fmt.Errorf("slot %w", ErrNotFound)
	ErrWallNotFound = fmt.Errorf("put wall %w", ErrNotFound)

	// ErrDuplicatePut is returned by ConfirmPut for a put id the slot already applied.
	ErrDuplicatePut = errors.New("put already applied")

	// ErrConcurrentModification is returned by the repository when the stored
	// version no longer matches the loaded one.
	ErrConcurrentModification = errors.New("put wall was modified concurrently")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func slotNotFound(id SlotID) error {
	return fmt.Errorf("%w: %s", ErrSlotNotFound, id)
}
