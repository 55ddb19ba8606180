package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dare4net/earnest-gaming-backend/internal/config"
	"github.com/dare4net/earnest-gaming-backend/internal/models"
	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

type testEnv struct {
	cfg     *config.Config
	redis   *services.RedisService
	wallet  *services.WalletService
	catalog *services.CatalogService
	match   *services.MatchService
}

// newTestEnv wires the service stack against a local Redis. Tests that
// need it skip cleanly when no Redis is running.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		RedisURL:           "localhost:6379",
		RedisPass:          "",
		RedisDB:            0,
		Currency:           "NGN",
		PlatformFeeRate:    0.05,
		VerificationWindow: 30 * time.Minute,
		StaleMatchTTL:      time.Hour,
		AutoApprove:        true,
		DisputeRefund:      true,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { redisService.Close() })

	catalog := services.NewCatalogService(redisService)
	wallet := services.NewWalletService(redisService, nil, cfg)
	match := services.NewMatchService(redisService, wallet, catalog, nil, cfg)

	return &testEnv{
		cfg:     cfg,
		redis:   redisService,
		wallet:  wallet,
		catalog: catalog,
		match:   match,
	}
}

// fundedUser creates a fresh user id with an opening deposit.
func fundedUser(t *testing.T, env *testEnv, ctx context.Context, amount int64) string {
	t.Helper()

	userID := "test-" + uuid.New().String()
	t.Cleanup(func() {
		env.redis.DeleteWallet(context.Background(), userID)
		env.redis.DeleteTransactionData(context.Background(), userID)
	})

	if amount > 0 {
		if _, err := env.wallet.Deposit(ctx, userID, amount, "test funding"); err != nil {
			t.Fatalf("Failed to fund user: %v", err)
		}
	}
	return userID
}

func balanceOf(t *testing.T, env *testEnv, ctx context.Context, userID string) int64 {
	t.Helper()

	w, err := env.wallet.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to load wallet: %v", err)
	}
	return w.Balance
}

// matchedPair creates a match owned by the first user and joins the
// second, leaving the match ready to start.
func matchedPair(t *testing.T, env *testEnv, ctx context.Context, owner, joiner string) *models.Match {
	t.Helper()

	m, err := env.match.Create(ctx, owner, &models.CreateMatchRequest{
		Game:     "CODM",
		EntryFee: 1000,
	})
	if err != nil {
		t.Fatalf("Failed to create match: %v", err)
	}
	t.Cleanup(func() {
		if got, err := env.redis.GetMatch(context.Background(), m.ID); err == nil {
			env.redis.DeleteMatch(context.Background(), got)
		}
	})

	if _, err := env.match.Join(ctx, joiner, m.ID); err != nil {
		t.Fatalf("Failed to join match: %v", err)
	}
	return m
}
