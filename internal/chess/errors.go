package chess

import "errors"

var (
	ErrInvalidMove      = errors.New("invalid move")
	ErrInvalidPromotion = errors.New("invalid promotion")
	ErrInvalidPosition  = errors.New("invalid position")
)
