package quiz

import "errors"

var (
	// ErrNoTrack means no eligible playable track remains outside the
	// exclusion set (within the tag-restricted pool if a tag is set).
	ErrNoTrack = errors.New("no eligible track")

	ErrNotStarted       = errors.New("game has no questions yet")
	ErrAlreadyFinished  = errors.New("game is already finished")
	ErrQuizExhausted    = errors.New("question limit reached")
	ErrUnknownAnswer    = errors.New("answer does not match any track")
	ErrAlreadyAnswered  = errors.New("question already has a terminal state")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInsufficientPool = errors.New("not enough tracks to build choices")
)
