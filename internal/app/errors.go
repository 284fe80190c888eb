package app

import "errors"

// Sentinel errors surfaced by Game. None of them is fatal; the game stays in
// the phase it was in.
var (
	ErrSensingUnavailable = errors.New("hand sensing unavailable")
	ErrAudioStart         = errors.New("audio failed to start")
	ErrInvalidTransition  = errors.New("invalid lifecycle transition")
)
