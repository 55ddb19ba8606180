package models

import "time"

type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusFrozen    WalletStatus = "frozen"
	WalletStatusSuspended WalletStatus = "suspended"
)

// Default withdrawal limits, in kobo (NGN minor unit).
const (
	DefaultDailyLimit   int64 = 10_000_000  // ₦100,000
	DefaultWeeklyLimit  int64 = 50_000_000  // ₦500,000
	DefaultMonthlyLimit int64 = 200_000_000 // ₦2,000,000
)

type WithdrawalLimit struct {
	Daily   int64 `json:"daily"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
}

// Wallet is the single source of truth for a user's money. All amounts
// are in minor units. Balance never goes below zero; the write boundary
// enforces it.
type Wallet struct {
	UserID          string          `json:"user_id"`
	Balance         int64           `json:"balance"`
	Currency        string          `json:"currency"`
	Status          WalletStatus    `json:"status"`
	TotalDeposited  int64           `json:"total_deposited"`
	TotalWithdrawn  int64           `json:"total_withdrawn"`
	TotalWinnings   int64           `json:"total_winnings"`
	WithdrawalLimit WithdrawalLimit `json:"withdrawal_limit"`
	LastDeposit     *time.Time      `json:"last_deposit,omitempty"`
	LastWithdrawal  *time.Time      `json:"last_withdrawal,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func NewWallet(userID, currency string) *Wallet {
	now := time.Now()
	return &Wallet{
		UserID:   userID,
		Currency: currency,
		Status:   WalletStatusActive,
		WithdrawalLimit: WithdrawalLimit{
			Daily:   DefaultDailyLimit,
			Weekly:  DefaultWeeklyLimit,
			Monthly: DefaultMonthlyLimit,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeMatchEntry  TransactionType = "matchEntry"
	TransactionTypeMatchWin    TransactionType = "matchWin"
	TransactionTypeLeagueEntry TransactionType = "leagueEntry"
	TransactionTypeLeaguePrize TransactionType = "leaguePrize"
	TransactionTypeRefund      TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeMatchEntry, TransactionTypeMatchWin,
		TransactionTypeLeagueEntry, TransactionTypeLeaguePrize,
		TransactionTypeRefund:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an immutable ledger entry. Corrections are new
// compensating entries, never edits.
type Transaction struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Type          TransactionType   `json:"type"`
	Amount        int64             `json:"amount"` // signed; sign encodes direction
	Currency      string            `json:"currency"`
	Status        TransactionStatus `json:"status"`
	Reference     string            `json:"reference"` // globally unique
	Description   string            `json:"description,omitempty"`
	BalanceBefore int64             `json:"balance_before"`
	BalanceAfter  int64             `json:"balance_after"`
	RelatedMatch  string            `json:"related_match,omitempty"`
	RelatedLeague string            `json:"related_league,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
