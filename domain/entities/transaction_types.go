package entities

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeDailyReward     TransactionType = "daily_reward"
	TransactionTypeTransferIn      TransactionType = "transfer_in"
	TransactionTypeTransferOut     TransactionType = "transfer_out"
	TransactionTypeAdminAdjustment TransactionType = "admin_adjustment"
)

// IsTransferType returns true if the transaction type represents a transfer
func (tt TransactionType) IsTransferType() bool {
	return tt == TransactionTypeTransferIn || tt == TransactionTypeTransferOut
}

// IsSystemGenerated returns true if the transaction was not initiated by a member payment
func (tt TransactionType) IsSystemGenerated() bool {
	return tt == TransactionTypeDailyReward || tt == TransactionTypeAdminAdjustment
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
