package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dare4net/earnest-gaming-backend/internal/models"
	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

func TestWalletLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := fundedUser(t, env, ctx, 0)

	wallet, err := env.wallet.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to create wallet: %v", err)
	}
	if wallet.Balance != 0 {
		t.Errorf("Expected zero opening balance, got %d", wallet.Balance)
	}

	tx, err := env.wallet.Deposit(ctx, userID, 5000, "opening deposit")
	if err != nil {
		t.Fatalf("Failed to deposit: %v", err)
	}
	if tx.BalanceAfter-tx.BalanceBefore != tx.Amount {
		t.Errorf("Transaction deltas inconsistent: before=%d after=%d amount=%d",
			tx.BalanceBefore, tx.BalanceAfter, tx.Amount)
	}
	if tx.Amount != 5000 || tx.BalanceAfter != 5000 {
		t.Errorf("Unexpected deposit figures: amount=%d after=%d", tx.Amount, tx.BalanceAfter)
	}

	tx, err = env.wallet.Withdraw(ctx, userID, 1200, "cash out")
	if err != nil {
		t.Fatalf("Failed to withdraw: %v", err)
	}
	if tx.Amount != -1200 {
		t.Errorf("Withdrawal should record a negative amount, got %d", tx.Amount)
	}
	if got := balanceOf(t, env, ctx, userID); got != 3800 {
		t.Errorf("Expected balance 3800 after withdrawal, got %d", got)
	}

	history, err := env.wallet.Transactions(ctx, userID, 10)
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(history))
	}
	refs := make(map[string]bool)
	for _, h := range history {
		if h.BalanceAfter-h.BalanceBefore != h.Amount {
			t.Errorf("Transaction %s deltas inconsistent", h.ID)
		}
		if refs[h.Reference] {
			t.Errorf("Duplicate reference in history: %s", h.Reference)
		}
		refs[h.Reference] = true
	}
}

func TestWalletInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := fundedUser(t, env, ctx, 100)

	_, err := env.wallet.Withdraw(ctx, userID, 500, "too much")
	if !errors.Is(err, services.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// The failed withdrawal must leave no trace in the ledger.
	if got := balanceOf(t, env, ctx, userID); got != 100 {
		t.Errorf("Balance changed after rejected withdrawal: %d", got)
	}
	history, err := env.wallet.Transactions(ctx, userID, 10)
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Expected only the funding transaction, got %d", len(history))
	}
}

func TestWalletWithdrawalLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := fundedUser(t, env, ctx, models.DefaultDailyLimit+10_000)

	if _, err := env.wallet.Withdraw(ctx, userID, models.DefaultDailyLimit, "max out the day"); err != nil {
		t.Fatalf("Withdrawal inside the daily limit failed: %v", err)
	}
	_, err := env.wallet.Withdraw(ctx, userID, 10_000, "over the line")
	if !errors.Is(err, services.ErrWithdrawalLimit) {
		t.Fatalf("Expected ErrWithdrawalLimit, got %v", err)
	}
}

func TestWalletConcurrentApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := fundedUser(t, env, ctx, 1000)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.wallet.Apply(ctx, userID, services.ApplyRequest{
				Type:        models.TransactionTypeMatchEntry,
				Amount:      -300,
				Description: "concurrent entry",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, services.ErrInsufficientFunds) {
			t.Errorf("Unexpected error from concurrent apply: %v", err)
		}
	}

	if succeeded != 3 {
		t.Errorf("Expected exactly 3 debits of 300 from 1000, got %d", succeeded)
	}
	if got := balanceOf(t, env, ctx, userID); got != 1000-int64(succeeded)*300 {
		t.Errorf("Balance %d inconsistent with %d successful debits", got, succeeded)
	}
	if got := balanceOf(t, env, ctx, userID); got < 0 {
		t.Errorf("Balance went negative: %d", got)
	}
}

func TestTransactionReferenceUnique(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := fundedUser(t, env, ctx, 1000)
	ref := models.GenerateTransactionReference()

	req := services.ApplyRequest{
		Type:        models.TransactionTypeDeposit,
		Amount:      100,
		Description: "referenced deposit",
		Reference:   ref,
	}
	if _, err := env.wallet.Apply(ctx, userID, req); err != nil {
		t.Fatalf("Failed to apply referenced transaction: %v", err)
	}

	// Replaying the same reference must not move money again.
	_, err := env.wallet.Apply(ctx, userID, req)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("Expected ErrConflict on duplicate reference, got %v", err)
	}
	if got := balanceOf(t, env, ctx, userID); got != 1100 {
		t.Errorf("Duplicate reference moved money, balance %d", got)
	}
}

func TestWithdrawalWindowReleasedOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := fundedUser(t, env, ctx, models.DefaultDailyLimit)
	limits := models.WithdrawalLimit{
		Daily:   models.DefaultDailyLimit,
		Weekly:  models.DefaultWeeklyLimit,
		Monthly: models.DefaultMonthlyLimit,
	}

	// An allowance charged for a withdrawal that never happened is
	// handed back in full.
	if err := env.redis.CheckAndRecordWithdrawal(ctx, userID, models.DefaultDailyLimit, limits); err != nil {
		t.Fatalf("Failed to charge the windows: %v", err)
	}
	if err := env.redis.CheckAndRecordWithdrawal(ctx, userID, 1, limits); !errors.Is(err, services.ErrWithdrawalLimit) {
		t.Fatalf("Charged windows should be exhausted, got %v", err)
	}
	if err := env.redis.ReleaseWithdrawal(ctx, userID, models.DefaultDailyLimit); err != nil {
		t.Fatalf("Failed to release the allowance: %v", err)
	}

	if _, err := env.wallet.Withdraw(ctx, userID, models.DefaultDailyLimit, "full allowance"); err != nil {
		t.Fatalf("Full daily allowance should still be available: %v", err)
	}
}

func TestWithdrawalWindowConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := fundedUser(t, env, ctx, 2*models.DefaultDailyLimit)

	const racers = 2
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.wallet.Withdraw(ctx, userID, models.DefaultDailyLimit, "racing cash out")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, services.ErrWithdrawalLimit) {
			t.Errorf("Unexpected error from concurrent withdrawal: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("Expected exactly one withdrawal inside the daily limit, got %d", succeeded)
	}
	if got := balanceOf(t, env, ctx, userID); got != models.DefaultDailyLimit {
		t.Errorf("Expected balance %d after one withdrawal, got %d", models.DefaultDailyLimit, got)
	}
}

func TestWalletSingleCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := fundedUser(t, env, ctx, 0)

	const racers = 8
	var wg sync.WaitGroup
	wallets := make(chan *models.Wallet, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := env.wallet.GetOrCreate(ctx, userID)
			if err != nil {
				t.Errorf("Concurrent wallet creation failed: %v", err)
				return
			}
			wallets <- w
		}()
	}
	wg.Wait()
	close(wallets)

	var created time.Time
	for w := range wallets {
		if created.IsZero() {
			created = w.CreatedAt
		} else if !w.CreatedAt.Equal(created) {
			t.Errorf("Concurrent creation produced distinct wallets: %v vs %v", created, w.CreatedAt)
		}
	}
}
