package table

import "errors"

// Validation errors are returned synchronously to the caller; the table
// state is unchanged and nothing is broadcast.
var (
	ErrTableFull         = errors.New("table: no free seats")
	ErrNotSeated         = errors.New("table: user not seated")
	ErrWrongStage        = errors.New("table: action not valid in current stage")
	ErrNotYourTurn       = errors.New("table: not your turn to act")
	ErrBetTooSmall       = errors.New("table: bet below table minimum")
	ErrAlreadyBet        = errors.New("table: bet already placed this round")
	ErrInsufficientChips = errors.New("table: insufficient chips")
	ErrDoubleNotAllowed  = errors.New("table: double down not allowed")
	ErrNoBets            = errors.New("table: no bets placed")
	ErrRoundInProgress   = errors.New("table: round already in progress")
)
