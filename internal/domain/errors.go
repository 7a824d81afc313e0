package domain

import "errors"

var (
	// ErrNoItems indicates the item dataset could not be loaded or is empty.
	ErrNoItems = errors.New("no items available")
	// ErrEmptyPool is returned when the requested mode has no eligible items.
	ErrEmptyPool = errors.New("no items for mode")
	// ErrUnknownMode indicates a caller passed a mode outside the closed enum.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrUnknownCategory indicates a high-score category no store knows about.
	ErrUnknownCategory = errors.New("unknown score category")
	// ErrSessionBusy is returned while a settle animation is still in flight.
	ErrSessionBusy = errors.New("session is settling")
	// ErrNoActiveItem is returned for a guess submitted before the first draw.
	ErrNoActiveItem = errors.New("no active item")
	// ErrSessionClosed is returned after Close; no further input is accepted.
	ErrSessionClosed = errors.New("session closed")
)
