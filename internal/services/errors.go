package services

import "errors"

// Guard failures surface to callers as one of these sentinels so the
// HTTP layer can distinguish them. None of them is retried internally.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrMatchNotOpen      = errors.New("match is not open for joining")
	ErrMatchFull         = errors.New("match is full")
	ErrSelfJoin          = errors.New("cannot join your own match")
	ErrSelfInvite        = errors.New("cannot invite yourself")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidGame       = errors.New("invalid game")
	ErrInvalidInput      = errors.New("invalid input")
	ErrWindowExpired     = errors.New("verification window expired")
	ErrWalletFrozen      = errors.New("wallet is not active")
	ErrWithdrawalLimit   = errors.New("withdrawal limit exceeded")

	// ErrConflict is returned when optimistic retries on a contended
	// entity are exhausted.
	ErrConflict = errors.New("concurrent update conflict")
)
