package chess

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected moves. Use errors.Is to inspect a *MoveError.
var (
	ErrInvalidPosition       = errors.New("position out of bounds")
	ErrNoPieceAtSource       = errors.New("no piece at source square")
	ErrWrongTurn             = errors.New("not your turn")
	ErrGameNotPlaying        = errors.New("game is not in playing state")
	ErrSelfCapture           = errors.New("cannot capture own piece")
	ErrInvalidPieceMove      = errors.New("piece cannot move that way")
	ErrPromotionRequired     = errors.New("promotion piece required")
	ErrInvalidPromotionPiece = errors.New("invalid promotion piece")
	ErrMoveLeavesKingInCheck = errors.New("move leaves king in check")

	ErrInvalidNotation = errors.New("invalid move notation")
	ErrInvalidFEN      = errors.New("invalid FEN")
)

// MoveError reports a rejected move together with its squares.
type MoveError struct {
	From Square
	To   Square
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s%s: %v", e.From, e.To, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

func moveError(from, to Square, err error) error {
	return &MoveError{From: from, To: to, Err: err}
}
