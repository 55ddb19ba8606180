package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dare4net/earnest-gaming-backend/internal/config"
	"github.com/dare4net/earnest-gaming-backend/internal/models"
)

// WalletService owns the ledger: wallet balances and the append-only
// transaction history behind them.
type WalletService struct {
	redis       *RedisService
	broadcaster Broadcaster
	currency    string
}

func NewWalletService(redis *RedisService, broadcaster Broadcaster, cfg *config.Config) *WalletService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &WalletService{
		redis:       redis,
		broadcaster: broadcaster,
		currency:    cfg.Currency,
	}
}

// GetOrCreate returns the user's wallet, creating a zero-balance one on
// first reference. One wallet per user, even under concurrent access.
func (ws *WalletService) GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, err := ws.redis.GetWalletRaw(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	return ws.redis.CreateWalletIfAbsent(ctx, models.NewWallet(userID, ws.currency))
}

// ApplyRequest describes one ledger move.
type ApplyRequest struct {
	Type          models.TransactionType
	Amount        int64 // signed
	Description   string
	RelatedMatch  string
	RelatedLeague string
	Reference     string // optional; generated when empty
}

// Apply is the sole money-movement primitive. The balance mutation and
// the reference claim run as one atomic unit in the store, so replaying
// an Apply with the same reference moves no money; exactly one
// immutable transaction is appended per successful call.
func (ws *WalletService) Apply(ctx context.Context, userID string, req ApplyRequest) (*models.Transaction, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: transaction type %q", ErrInvalidInput, req.Type)
	}
	if req.Amount == 0 {
		return nil, fmt.Errorf("%w: zero amount", ErrInvalidInput)
	}

	if _, err := ws.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = models.GenerateTransactionReference()
	}
	txID := models.GenerateTransactionID()

	before, after, err := ws.redis.ApplyBalance(ctx, userID, req.Amount, req.Type, reference, txID)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		ID:            txID,
		UserID:        userID,
		Type:          req.Type,
		Amount:        req.Amount,
		Currency:      ws.currency,
		Status:        models.TransactionStatusCompleted,
		Reference:     reference,
		Description:   req.Description,
		BalanceBefore: before,
		BalanceAfter:  after,
		RelatedMatch:  req.RelatedMatch,
		RelatedLeague: req.RelatedLeague,
		CreatedAt:     time.Now(),
	}

	if err := ws.redis.SaveTransaction(ctx, tx); err != nil {
		return nil, err
	}

	ws.broadcaster.PublishUser(userID, EventWalletTransaction, tx)

	return tx, nil
}

// Deposit credits the wallet. Amount is positive.
func (ws *WalletService) Deposit(ctx context.Context, userID string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive", ErrInvalidInput)
	}
	return ws.Apply(ctx, userID, ApplyRequest{
		Type:        models.TransactionTypeDeposit,
		Amount:      amount,
		Description: description,
	})
}

// Withdraw debits the wallet after validating the rolling withdrawal
// limit windows. Amount is positive; the ledger entry is negative.
func (ws *WalletService) Withdraw(ctx context.Context, userID string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidInput)
	}

	wallet, err := ws.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Status != models.WalletStatusActive {
		return nil, ErrWalletFrozen
	}
	if wallet.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	if err := ws.redis.CheckAndRecordWithdrawal(ctx, userID, amount, wallet.WithdrawalLimit); err != nil {
		return nil, err
	}

	tx, err := ws.Apply(ctx, userID, ApplyRequest{
		Type:        models.TransactionTypeWithdrawal,
		Amount:      -amount,
		Description: description,
	})
	if err != nil {
		// The windows were charged for a withdrawal that never happened.
		if rerr := ws.redis.ReleaseWithdrawal(ctx, userID, amount); rerr != nil {
			return nil, fmt.Errorf("%w (allowance release also failed: %v)", err, rerr)
		}
		return nil, err
	}
	return tx, nil
}

func (ws *WalletService) Transactions(ctx context.Context, userID string, limit int64) ([]*models.Transaction, error) {
	return ws.redis.GetUserTransactions(ctx, userID, limit)
}
