package services

import "errors"

var (
	ErrGiveawayNotFound    = errors.New("giveaway not found")
	ErrInvalidPrize        = errors.New("prize must be between 1 and 256 characters")
	ErrInvalidWinnersCount = errors.New("invalid number of winners")
	ErrInvalidDuration     = errors.New("giveaway duration out of range")

	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSelfTransfer        = errors.New("cannot transfer to yourself")
)
