package models_test

import (
	"testing"
	"time"

	"github.com/dare4net/earnest-gaming-backend/internal/models"
)

func TestComputeEscrow(t *testing.T) {
	escrow := models.ComputeEscrow(1000, 0.05)

	if escrow.TotalAmount != 2000 {
		t.Errorf("Expected total amount 2000, got %d", escrow.TotalAmount)
	}
	if escrow.PlatformFee != 50 {
		t.Errorf("Expected platform fee 50, got %d", escrow.PlatformFee)
	}
	if escrow.WinnerPayout != 1950 {
		t.Errorf("Expected winner payout 1950, got %d", escrow.WinnerPayout)
	}
	if escrow.PlatformFee+escrow.WinnerPayout != escrow.TotalAmount {
		t.Error("Escrow figures should sum to the total amount")
	}
	if escrow.Refunded {
		t.Error("Escrow should not start refunded")
	}
}

func TestComputeEscrowRounding(t *testing.T) {
	// 5% of 1010 is 50.5 and rounds to 51.
	escrow := models.ComputeEscrow(1010, 0.05)
	if escrow.PlatformFee != 51 {
		t.Errorf("Expected platform fee 51, got %d", escrow.PlatformFee)
	}
	if escrow.PlatformFee+escrow.WinnerPayout != 2*1010 {
		t.Error("Fee and payout must always sum to twice the entry fee")
	}
}

func TestMatchRoster(t *testing.T) {
	m := &models.Match{
		ID:                models.GenerateMatchID(),
		Status:            models.MatchStatusScheduled,
		MatchmakingStatus: models.MatchmakingSearching,
		Players: []models.Player{
			{User: "alice", Team: "A"},
		},
	}

	if m.Owner() != "alice" {
		t.Errorf("Expected owner alice, got %s", m.Owner())
	}
	if m.IsFull() {
		t.Error("Match with one player should not be full")
	}
	if !m.IsParticipant("alice") || m.IsParticipant("bob") {
		t.Error("Participant check failed")
	}

	m.Players = append(m.Players, models.Player{User: "bob", Team: "B"})
	if !m.IsFull() {
		t.Error("Match with two players should be full")
	}
	if m.PlayerIndex("bob") != 1 {
		t.Errorf("Expected bob at slot 1, got %d", m.PlayerIndex("bob"))
	}
}

func TestLifecycleLabel(t *testing.T) {
	cases := []struct {
		status     models.MatchStatus
		matchmaking models.MatchmakingStatus
		want       string
	}{
		{models.MatchStatusScheduled, models.MatchmakingSearching, "matching"},
		{models.MatchStatusScheduled, models.MatchmakingMatched, "matched"},
		{models.MatchStatusInProgress, models.MatchmakingMatched, "playing"},
		{models.MatchStatusVerification, models.MatchmakingMatched, "verification"},
		{models.MatchStatusDisputed, models.MatchmakingMatched, "verification"},
		{models.MatchStatusCompleted, models.MatchmakingMatched, "finished"},
		{models.MatchStatusCancelled, models.MatchmakingSearching, "finished"},
	}

	for _, tc := range cases {
		m := &models.Match{Status: tc.status, MatchmakingStatus: tc.matchmaking}
		if got := m.LifecycleLabel(); got != tc.want {
			t.Errorf("Lifecycle for %s/%s: expected %s, got %s", tc.status, tc.matchmaking, tc.want, got)
		}
	}
}

func TestVerificationWindow(t *testing.T) {
	now := time.Now()
	expires := now.Add(30 * time.Minute)
	m := &models.Match{
		Verification: models.Verification{ExpiresAt: &expires},
	}

	if m.WindowExpired(now) {
		t.Error("Window should not be expired before the deadline")
	}
	if !m.WindowExpired(now.Add(31 * time.Minute)) {
		t.Error("Window should be expired after the deadline")
	}

	open := &models.Match{}
	if open.WindowExpired(now) {
		t.Error("Match without a deadline should never report expired")
	}
}

func TestBothSubmitted(t *testing.T) {
	m := &models.Match{
		Players: []models.Player{
			{User: "alice", Screenshot: "a.png"},
			{User: "bob"},
		},
	}
	if m.BothSubmitted() {
		t.Error("One missing screenshot should not count as both submitted")
	}

	m.Players[1].Screenshot = "b.png"
	if !m.BothSubmitted() {
		t.Error("Both screenshots present should count as submitted")
	}
}

func TestCreateMatchRequestValidate(t *testing.T) {
	req := &models.CreateMatchRequest{Game: "CODM", EntryFee: 1000}
	if err := req.Validate(); err != nil {
		t.Errorf("Valid request failed validation: %v", err)
	}
	if req.Format != "1v1" {
		t.Errorf("Expected default format 1v1, got %s", req.Format)
	}
	if req.MatchType != string(models.MatchTypeRegular) {
		t.Errorf("Expected default match type regular, got %s", req.MatchType)
	}

	bad := &models.CreateMatchRequest{Game: "CODM", EntryFee: 0}
	if err := bad.Validate(); err == nil {
		t.Error("Zero entry fee should fail validation")
	}

	league := &models.CreateMatchRequest{Game: "CODM", EntryFee: 1000, MatchType: "league"}
	if err := league.Validate(); err == nil {
		t.Error("League match without a league id should fail validation")
	}
}

func TestTransactionTypeValid(t *testing.T) {
	for _, tt := range []models.TransactionType{
		models.TransactionTypeDeposit,
		models.TransactionTypeWithdrawal,
		models.TransactionTypeMatchEntry,
		models.TransactionTypeMatchWin,
		models.TransactionTypeLeagueEntry,
		models.TransactionTypeLeaguePrize,
		models.TransactionTypeRefund,
	} {
		if !tt.Valid() {
			t.Errorf("%s should be a valid transaction type", tt)
		}
	}

	if models.TransactionType("bonus").Valid() {
		t.Error("Unknown transaction type should not validate")
	}
}

func TestNewWallet(t *testing.T) {
	w := models.NewWallet("alice", "NGN")

	if w.Balance != 0 {
		t.Errorf("New wallet should start at zero, got %d", w.Balance)
	}
	if w.Status != models.WalletStatusActive {
		t.Errorf("New wallet should be active, got %s", w.Status)
	}
	if w.WithdrawalLimit.Daily != models.DefaultDailyLimit {
		t.Errorf("Unexpected daily limit %d", w.WithdrawalLimit.Daily)
	}
}

func TestTransactionReferences(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := models.GenerateTransactionReference()
		if seen[ref] {
			t.Fatalf("Duplicate transaction reference generated: %s", ref)
		}
		seen[ref] = true
	}
}
