package model

import "errors"

// Sentinel kinds for parsing chart and detection labels.
var (
	ErrUnknownHand      = errors.New("unknown hand")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrUnknownPhase     = errors.New("unknown phase")
)
