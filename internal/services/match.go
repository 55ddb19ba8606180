package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dare4net/earnest-gaming-backend/internal/config"
	"github.com/dare4net/earnest-gaming-backend/internal/models"
)

const RoleAdmin = "admin"

// payoutAttempts bounds retries of the wallet credit after a match has
// already committed to completed. The match is never rolled back; on
// exhaustion it is flagged for manual reconciliation.
const payoutAttempts = 3

// WinnerPolicy determines the winner of an adjudicated match from its
// evidence. Implementations must be pure reads of the match.
type WinnerPolicy interface {
	Winner(m *models.Match) (userID string, ok bool)
}

// ScoreWinnerPolicy picks the higher submitted score. A tie is not
// determinable and falls through to manual adjudication.
type ScoreWinnerPolicy struct{}

func (ScoreWinnerPolicy) Winner(m *models.Match) (string, bool) {
	if !m.BothSubmitted() {
		return "", false
	}
	a, b := m.Players[0], m.Players[1]
	if a.Score > b.Score {
		return a.User, true
	}
	if b.Score > a.Score {
		return b.User, true
	}
	return "", false
}

// MatchService owns the match lifecycle: creation, matchmaking,
// play/verification transitions, disputes and settlement.
type MatchService struct {
	redis       *RedisService
	wallet      *WalletService
	catalog     *CatalogService
	broadcaster Broadcaster
	cfg         *config.Config

	Policy WinnerPolicy
}

func NewMatchService(redis *RedisService, wallet *WalletService, catalog *CatalogService, broadcaster Broadcaster, cfg *config.Config) *MatchService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &MatchService{
		redis:       redis,
		wallet:      wallet,
		catalog:     catalog,
		broadcaster: broadcaster,
		cfg:         cfg,
		Policy:      ScoreWinnerPolicy{},
	}
}

// Create allocates a new match with the caller seated in slot 0. Escrow
// figures are computed here, once, and never recomputed.
func (ms *MatchService) Create(ctx context.Context, userID string, req *models.CreateMatchRequest) (*models.Match, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := ms.catalog.ValidateGame(req.Game, req.EntryFee); err != nil {
		return nil, err
	}
	if models.MatchType(req.MatchType) == models.MatchTypeLeague {
		if _, err := ms.catalog.ValidateLeague(ctx, req.League); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	m := &models.Match{
		ID:                models.GenerateMatchID(),
		Game:              req.Game,
		League:            req.League,
		MatchType:         models.MatchType(req.MatchType),
		MatchmakingStatus: models.MatchmakingSearching,
		Status:            models.MatchStatusScheduled,
		EntryFee:          req.EntryFee,
		PrizePool:         req.EntryFee * 2,
		Format:            req.Format,
		Rules:             req.Rules,
		Escrow:            models.ComputeEscrow(req.EntryFee, ms.cfg.PlatformFeeRate),
		Dispute:           models.Dispute{Status: "none"},
		Verification:      models.Verification{Status: "pending"},
		Players: []models.Player{{
			User:               userID,
			Team:               "A",
			Status:             models.PlayerStatusPending,
			VerificationStatus: models.VerificationPending,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := ms.redis.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	ms.broadcaster.Subscribe(m.ID, userID)
	ms.broadcaster.PublishMatch(m.ID, EventMatchCreated, m)

	return m, nil
}

func (ms *MatchService) Get(ctx context.Context, matchID string) (*models.Match, error) {
	return ms.redis.GetMatch(ctx, matchID)
}

func (ms *MatchService) All(ctx context.Context, limit int64) ([]*models.Match, error) {
	return ms.redis.GetAllMatches(ctx, limit)
}

func (ms *MatchService) UserMatches(ctx context.Context, userID string, limit int64) ([]*models.Match, error) {
	return ms.redis.GetUserMatches(ctx, userID, limit)
}

// ActiveUserMatches returns the user's matches still in flight, for
// clients reconciling state after a reconnect.
func (ms *MatchService) ActiveUserMatches(ctx context.Context, userID string) ([]*models.Match, error) {
	matches, err := ms.redis.GetUserMatches(ctx, userID, 100)
	if err != nil {
		return nil, err
	}
	var active []*models.Match
	for _, m := range matches {
		switch m.Status {
		case models.MatchStatusScheduled, models.MatchStatusInProgress, models.MatchStatusVerification:
			active = append(active, m)
		}
	}
	return active, nil
}

// SearchOpponents suggests currently-online users for an open match. It
// reserves nothing; Join is where contention resolves.
func (ms *MatchService) SearchOpponents(ctx context.Context, userID, matchID string) ([]string, error) {
	m, err := ms.redis.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Owner() != userID {
		return nil, ErrForbidden
	}
	if m.MatchmakingStatus != models.MatchmakingSearching || m.IsFull() {
		return nil, ErrMatchNotOpen
	}

	online, err := ms.redis.GetOnlineUsers(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(online))
	for _, u := range online {
		if u != userID {
			candidates = append(candidates, u)
		}
	}
	return candidates, nil
}

// Invite reserves slot 1 for one specific user, blocking general joins
// until accepted or declined. The target is not seated yet.
func (ms *MatchService) Invite(ctx context.Context, callerID, matchID, targetID string) (*models.Match, error) {
	if targetID == callerID {
		return nil, ErrSelfInvite
	}

	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if m.Owner() != callerID {
			return ErrForbidden
		}
		if m.MatchmakingStatus != models.MatchmakingSearching || m.IsFull() || m.Status != models.MatchStatusScheduled {
			return ErrMatchNotOpen
		}
		m.PendingInviteUser = targetID
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.broadcaster.Subscribe(matchID, targetID)
	ms.broadcaster.PublishUser(targetID, EventMatchInvite, m)
	ms.broadcaster.PublishMatch(matchID, EventMatchInvite, m)

	return m, nil
}

// Join seats the caller in slot 1. The roster check, invite gate, append
// and matchmaking flip apply as one atomic unit per match: of any number
// of concurrent joiners, exactly one wins.
func (ms *MatchService) Join(ctx context.Context, callerID, matchID string) (*models.Match, error) {
	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if m.Status != models.MatchStatusScheduled || m.MatchmakingStatus != models.MatchmakingSearching {
			return ErrMatchNotOpen
		}
		if m.IsFull() {
			return ErrMatchFull
		}
		if m.Owner() == callerID {
			return ErrSelfJoin
		}
		if m.PendingInviteUser != "" && m.PendingInviteUser != callerID {
			return ErrMatchNotOpen
		}

		m.Players = append(m.Players, models.Player{
			User:               callerID,
			Team:               "B",
			Status:             models.PlayerStatusPending,
			VerificationStatus: models.VerificationPending,
		})
		m.PendingInviteUser = ""
		m.MatchmakingStatus = models.MatchmakingMatched
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.redis.IndexMatchForUser(ctx, m, callerID)
	ms.redis.RefreshOpenIndex(ctx, m)

	ms.broadcaster.Subscribe(matchID, callerID)
	ms.broadcaster.PublishMatch(matchID, EventMatchJoined, m)

	return m, nil
}

// MatchWithPlayer lets the owner of a searching match join a specific
// target player's open compatible match instead. The owner's own match
// is deleted once they are seated elsewhere.
func (ms *MatchService) MatchWithPlayer(ctx context.Context, callerID, matchID, targetPlayerID string) (*models.Match, error) {
	own, err := ms.redis.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if own.Owner() != callerID {
		return nil, ErrForbidden
	}
	if own.MatchmakingStatus != models.MatchmakingSearching || own.IsFull() {
		return nil, ErrMatchNotOpen
	}
	if targetPlayerID == callerID {
		return nil, ErrSelfJoin
	}

	target, err := ms.findOpenMatchFor(ctx, targetPlayerID, own)
	if err != nil {
		return nil, err
	}

	joined, err := ms.Join(ctx, callerID, target.ID)
	if err != nil {
		return nil, err
	}

	// The own match may have been joined or started by someone else while
	// the caller was being seated; only delete it if it is still empty.
	if err := ms.redis.DeleteMatchIf(ctx, own.ID, deletableGuard(callerID)); err != nil {
		log.Printf("leaving superseded match %s in place: %v", own.ID, err)
	}

	return joined, nil
}

// deletableGuard admits a match for deletion only while it is still an
// unmatched, unstarted match owned by callerID.
func deletableGuard(callerID string) func(*models.Match) error {
	return func(m *models.Match) error {
		if m.Owner() != callerID {
			return ErrForbidden
		}
		if m.MatchmakingStatus != models.MatchmakingSearching || m.Status != models.MatchStatusScheduled || m.IsFull() {
			return ErrInvalidTransition
		}
		return nil
	}
}

// findOpenMatchFor locates a searching match owned by the target player
// with the same game, entry fee and format.
func (ms *MatchService) findOpenMatchFor(ctx context.Context, targetPlayerID string, like *models.Match) (*models.Match, error) {
	ids, err := ms.redis.GetOpenMatchIDs(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := ms.redis.BulkGetMatches(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		if m.Owner() != targetPlayerID || m.IsFull() {
			continue
		}
		if m.MatchmakingStatus != models.MatchmakingSearching || m.Status != models.MatchStatusScheduled {
			continue
		}
		if m.Game == like.Game && m.EntryFee == like.EntryFee && m.Format == like.Format {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

// Decline lets the pending invitee or a seated slot-1 player back out,
// restoring the match to searching.
func (ms *MatchService) Decline(ctx context.Context, callerID, matchID string) (*models.Match, error) {
	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		switch m.Status {
		case models.MatchStatusScheduled:
		default:
			return ErrInvalidTransition
		}

		if m.PendingInviteUser == callerID {
			m.PendingInviteUser = ""
			return nil
		}
		if idx := m.PlayerIndex(callerID); idx == 1 {
			m.Players = m.Players[:1]
			m.PendingInviteUser = ""
			m.MatchmakingStatus = models.MatchmakingSearching
			return nil
		}
		return ErrForbidden
	})
	if err != nil {
		return nil, err
	}

	ms.redis.UnindexMatchForUser(ctx, matchID, callerID)
	ms.redis.RefreshOpenIndex(ctx, m)

	ms.broadcaster.PublishMatch(matchID, EventMatchDeclined, m)
	ms.broadcaster.Unsubscribe(matchID, callerID)

	return m, nil
}

// Delete removes an unmatched, unstarted match. Once matched or started,
// cancellation is the only exit.
func (ms *MatchService) Delete(ctx context.Context, callerID, matchID string) error {
	return ms.redis.DeleteMatchIf(ctx, matchID, deletableGuard(callerID))
}

// Cancel terminates a still-unmatched match. No money has moved at this
// point, so no refund is issued.
func (ms *MatchService) Cancel(ctx context.Context, callerID, matchID string) (*models.Match, error) {
	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if m.Owner() != callerID {
			return ErrForbidden
		}
		if m.MatchmakingStatus != models.MatchmakingSearching || m.IsFull() || m.Status != models.MatchStatusScheduled {
			return ErrInvalidTransition
		}
		m.Status = models.MatchStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.redis.RefreshOpenIndex(ctx, m)
	ms.broadcaster.PublishMatch(matchID, EventMatchStatus, m)

	return m, nil
}

// Start moves a matched match into play. Both entry fees are escrowed
// here: each player is debited a matchEntry, idempotent per match and
// player. A failure anywhere after a debit compensates every collected
// fee and leaves the match scheduled.
func (ms *MatchService) Start(ctx context.Context, callerID, matchID string) (*models.Match, error) {
	m, err := ms.redis.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Owner() != callerID {
		return nil, ErrForbidden
	}
	if m.Status != models.MatchStatusScheduled || m.MatchmakingStatus != models.MatchmakingMatched || !m.IsFull() {
		return nil, ErrInvalidTransition
	}

	return ms.startEscrowed(ctx, m)
}

// startEscrowed collects the entry fees for the snapshot's roster and
// commits the scheduled→inProgress transition. If the transition fails,
// because the roster changed underneath or the write lost its retries,
// every fee collected for this match is compensated.
func (ms *MatchService) startEscrowed(ctx context.Context, m *models.Match) (*models.Match, error) {
	if err := ms.collectEntryFees(ctx, m); err != nil {
		return nil, err
	}

	updated, err := ms.redis.UpdateMatch(ctx, m.ID, func(cur *models.Match) error {
		if cur.Status != models.MatchStatusScheduled || cur.MatchmakingStatus != models.MatchmakingMatched || !cur.IsFull() {
			return ErrInvalidTransition
		}
		now := time.Now()
		cur.Status = models.MatchStatusInProgress
		cur.StartTime = &now
		for i := range cur.Players {
			cur.Players[i].Status = models.PlayerStatusPlaying
		}
		return nil
	})
	if err != nil {
		ms.compensateEntries(ctx, m, roster(m))
		return nil, err
	}

	ms.broadcaster.PublishMatch(m.ID, EventMatchStatus, updated)
	return updated, nil
}

func roster(m *models.Match) []string {
	users := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		users = append(users, p.User)
	}
	return users
}

// collectEntryFees debits both players' entry fees into escrow. The
// per-player marker makes a retried start safe; a failed second debit
// compensates the first with a refund entry.
func (ms *MatchService) collectEntryFees(ctx context.Context, m *models.Match) error {
	var charged []string
	for _, p := range m.Players {
		marker := fmt.Sprintf(KeyEntryMarker, m.ID, p.User)
		acquired, err := ms.redis.AcquireMarker(ctx, marker, "charged")
		if err != nil {
			return err
		}
		if !acquired {
			continue // already escrowed by an earlier attempt
		}

		_, err = ms.wallet.Apply(ctx, p.User, ApplyRequest{
			Type:         models.TransactionTypeMatchEntry,
			Amount:       -m.EntryFee,
			Description:  fmt.Sprintf("Entry fee for %s match", m.Game),
			RelatedMatch: m.ID,
		})
		if err != nil {
			ms.redis.ReleaseMarker(ctx, marker)
			ms.compensateEntries(ctx, m, charged)
			return err
		}
		charged = append(charged, p.User)
	}
	return nil
}

// compensateEntries refunds the entry fee of every listed player still
// holding an entry marker. Deleting the marker claims the compensation,
// so concurrent failure paths refund each charge at most once.
func (ms *MatchService) compensateEntries(ctx context.Context, m *models.Match, users []string) {
	for _, user := range users {
		released, err := ms.redis.ReleaseMarker(ctx, fmt.Sprintf(KeyEntryMarker, m.ID, user))
		if err != nil {
			log.Printf("failed to release entry marker for %s on match %s: %v", user, m.ID, err)
			continue
		}
		if !released {
			continue // never charged, or already compensated
		}

		_, err = ms.wallet.Apply(ctx, user, ApplyRequest{
			Type:         models.TransactionTypeRefund,
			Amount:       m.EntryFee,
			Description:  fmt.Sprintf("Entry fee refund for %s match", m.Game),
			RelatedMatch: m.ID,
		})
		if err != nil {
			log.Printf("failed to compensate entry fee for %s on match %s: %v", user, m.ID, err)
		}
	}
}

// End closes play and opens the time-boxed verification window.
func (ms *MatchService) End(ctx context.Context, callerID, matchID string) (*models.Match, error) {
	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if m.Owner() != callerID {
			return ErrForbidden
		}
		if m.Status != models.MatchStatusInProgress {
			return ErrInvalidTransition
		}
		now := time.Now()
		expires := now.Add(ms.cfg.VerificationWindow)
		m.Status = models.MatchStatusVerification
		m.EndTime = &now
		m.Verification.Status = "pending"
		m.Verification.StartedAt = &now
		m.Verification.ExpiresAt = &expires
		for i := range m.Players {
			m.Players[i].Status = models.PlayerStatusFinished
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.broadcaster.PublishMatch(matchID, EventMatchStatus, m)
	return m, nil
}

// SubmitScreenshot records a participant's result evidence. Late
// submissions are rejected and flip the match to disputed on that
// access; the deadline is soft, not timer-driven.
func (ms *MatchService) SubmitScreenshot(ctx context.Context, callerID, matchID string, req *models.ScreenshotRequest) (*models.Match, error) {
	expired := false
	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if !m.IsParticipant(callerID) {
			return ErrForbidden
		}
		if m.Status != models.MatchStatusVerification {
			return ErrInvalidTransition
		}
		if m.WindowExpired(time.Now()) {
			expired = true
			m.Status = models.MatchStatusDisputed
			m.Verification.Status = "disputed"
			return nil
		}

		idx := m.PlayerIndex(callerID)
		m.Players[idx].Screenshot = req.Screenshot
		m.Players[idx].Score = req.Score
		m.Players[idx].VerificationStatus = models.VerificationPending
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		ms.broadcaster.PublishMatch(matchID, EventMatchDisputed, m)
		return m, ErrWindowExpired
	}

	ms.broadcaster.PublishMatch(matchID, EventMatchScreenshot, m)

	if ms.cfg.AutoApprove && m.BothSubmitted() {
		if winner, ok := ms.Policy.Winner(m); ok {
			return ms.adjudicate(ctx, "system", matchID, winner, "auto-approved: both screenshots submitted")
		}
	}

	return m, nil
}

// Adjudicate is the manual approval path, restricted to administrators.
func (ms *MatchService) Adjudicate(ctx context.Context, callerID, role, matchID string, req *models.AdjudicateRequest) (*models.Match, error) {
	if role != RoleAdmin {
		return nil, ErrForbidden
	}

	winner := req.Winner
	if winner == "" {
		m, err := ms.redis.GetMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		w, ok := ms.Policy.Winner(m)
		if !ok {
			return nil, fmt.Errorf("%w: winner cannot be determined", ErrInvalidInput)
		}
		winner = w
	}

	return ms.adjudicate(ctx, callerID, matchID, winner, req.Notes)
}

// adjudicate commits the completed transition first, then pays out in a
// separate atomic step, per-entity exclusion only ever held one at a
// time.
func (ms *MatchService) adjudicate(ctx context.Context, verifiedBy, matchID, winner, notes string) (*models.Match, error) {
	expired := false
	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if m.Status != models.MatchStatusVerification {
			return ErrInvalidTransition
		}
		if m.WindowExpired(time.Now()) {
			expired = true
			m.Status = models.MatchStatusDisputed
			m.Verification.Status = "disputed"
			return nil
		}
		if !m.IsParticipant(winner) {
			return fmt.Errorf("%w: winner is not a participant", ErrInvalidInput)
		}

		now := time.Now()
		m.Status = models.MatchStatusCompleted
		m.Winner = winner
		m.Verification.Status = "verified"
		m.Verification.VerifiedBy = verifiedBy
		m.Verification.VerifiedAt = &now
		m.Verification.Notes = notes
		for i := range m.Players {
			m.Players[i].VerificationStatus = models.VerificationApproved
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		ms.broadcaster.PublishMatch(matchID, EventMatchDisputed, m)
		return m, ErrWindowExpired
	}

	m = ms.settleWin(ctx, m)

	ms.broadcaster.PublishMatch(matchID, EventMatchCompleted, m)
	return m, nil
}

// settleWin credits winnerPayout exactly once, keyed by match id and
// transaction type. Failures retry bounded; exhaustion leaves the match
// completed with the unresolved-payout flag rather than rolling back.
func (ms *MatchService) settleWin(ctx context.Context, m *models.Match) *models.Match {
	marker := fmt.Sprintf(KeySettlement, m.ID, models.TransactionTypeMatchWin)
	acquired, err := ms.redis.AcquireMarker(ctx, marker, m.Winner)
	if err == nil && !acquired {
		return m // already settled; replay must not double-credit
	}
	if err != nil {
		log.Printf("settlement marker error for match %s: %v", m.ID, err)
	}

	for attempt := 1; attempt <= payoutAttempts; attempt++ {
		_, err = ms.wallet.Apply(ctx, m.Winner, ApplyRequest{
			Type:         models.TransactionTypeMatchWin,
			Amount:       m.Escrow.WinnerPayout,
			Description:  fmt.Sprintf("Winnings for %s match", m.Game),
			RelatedMatch: m.ID,
			Reference:    fmt.Sprintf("MATCH-%s-WIN", m.ID),
		})
		if err == nil {
			return m
		}
		if errors.Is(err, ErrConflict) {
			// Reference already claimed: the credit landed on an earlier
			// attempt whose record write failed. Money moved exactly once.
			log.Printf("payout for match %s already applied; skipping replay", m.ID)
			return m
		}
		log.Printf("payout attempt %d for match %s failed: %v", attempt, m.ID, err)
	}

	flagged, ferr := ms.redis.UpdateMatch(ctx, m.ID, func(m *models.Match) error {
		m.UnresolvedPayout = true
		return nil
	})
	if ferr != nil {
		log.Printf("failed to flag unresolved payout for match %s: %v", m.ID, ferr)
		return m
	}
	return flagged
}

// settleRefund returns both entry fees, mutually exclusive with the win
// payout. The escrow refunded flag is set exactly once.
func (ms *MatchService) settleRefund(ctx context.Context, m *models.Match) *models.Match {
	marker := fmt.Sprintf(KeySettlement, m.ID, models.TransactionTypeRefund)
	acquired, err := ms.redis.AcquireMarker(ctx, marker, "refund")
	if err == nil && !acquired {
		return m
	}
	if err != nil {
		log.Printf("refund marker error for match %s: %v", m.ID, err)
	}

	for _, p := range m.Players {
		_, err := ms.wallet.Apply(ctx, p.User, ApplyRequest{
			Type:         models.TransactionTypeRefund,
			Amount:       m.EntryFee,
			Description:  fmt.Sprintf("Refund for %s match", m.Game),
			RelatedMatch: m.ID,
			Reference:    fmt.Sprintf("MATCH-%s-REFUND-%s", m.ID, p.User),
		})
		if err != nil && !errors.Is(err, ErrConflict) {
			log.Printf("refund for %s on match %s failed: %v", p.User, m.ID, err)
		}
	}
	return m
}

// RaiseDispute freezes automatic state change pending resolution.
func (ms *MatchService) RaiseDispute(ctx context.Context, callerID, matchID string, req *models.DisputeRequest) (*models.Match, error) {
	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if !m.IsParticipant(callerID) {
			return ErrForbidden
		}
		switch m.Status {
		case models.MatchStatusInProgress, models.MatchStatusVerification:
		default:
			return ErrInvalidTransition
		}
		m.Status = models.MatchStatusDisputed
		m.Dispute.Status = "raised"
		m.Dispute.RaisedBy = callerID
		m.Dispute.Reason = req.Reason
		m.Dispute.Evidence = req.Evidence
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.broadcaster.PublishMatch(matchID, EventMatchDisputed, m)
	return m, nil
}

// ResolveDispute closes a dispute by paying out a named winner or
// refunding both entries. The two branches are mutually exclusive. When
// no resolution is named, the configured default applies.
func (ms *MatchService) ResolveDispute(ctx context.Context, callerID, role, matchID string, req *models.ResolveDisputeRequest) (*models.Match, error) {
	if role != RoleAdmin {
		return nil, ErrForbidden
	}

	resolution := req.Resolution
	if resolution == "" {
		if ms.cfg.DisputeRefund {
			resolution = "refund"
		} else {
			resolution = "payout"
		}
	}
	if resolution == "payout" && req.Winner == "" {
		return nil, fmt.Errorf("%w: payout resolution requires a winner", ErrInvalidInput)
	}

	refund := resolution == "refund"

	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if m.Status != models.MatchStatusDisputed {
			return ErrInvalidTransition
		}
		if !refund && !m.IsParticipant(req.Winner) {
			return fmt.Errorf("%w: winner is not a participant", ErrInvalidInput)
		}

		now := time.Now()
		m.Status = models.MatchStatusCompleted
		m.Dispute.Status = "resolved"
		m.Dispute.Resolution = resolution
		m.Dispute.ResolvedBy = callerID
		m.Dispute.ResolvedAt = &now
		if refund {
			if m.Escrow.Refunded {
				return ErrInvalidTransition
			}
			m.Escrow.Refunded = true
		} else {
			m.Winner = req.Winner
		}
		m.Verification.Notes = req.Notes
		return nil
	})
	if err != nil {
		return nil, err
	}

	if refund {
		m = ms.settleRefund(ctx, m)
	} else {
		m = ms.settleWin(ctx, m)
	}

	ms.broadcaster.PublishMatch(matchID, EventMatchCompleted, m)
	return m, nil
}

// Chat appends a participant message to the match's ordered log.
func (ms *MatchService) Chat(ctx context.Context, callerID, matchID, message string) (*models.Match, error) {
	m, err := ms.redis.UpdateMatch(ctx, matchID, func(m *models.Match) error {
		if !m.IsParticipant(callerID) && m.PendingInviteUser != callerID {
			return ErrForbidden
		}
		m.Chat = append(m.Chat, models.ChatMessage{
			User:      callerID,
			Message:   message,
			Timestamp: time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.broadcaster.PublishMatch(matchID, EventMatchChat, m)
	return m, nil
}

// CleanupStaleMatches cancels searching matches that sat unmatched past
// maxAge. Run from the background scheduler.
func (ms *MatchService) CleanupStaleMatches(ctx context.Context, maxAge time.Duration) {
	ids, err := ms.redis.GetOpenMatchIDs(ctx)
	if err != nil {
		log.Printf("stale match sweep failed: %v", err)
		return
	}
	matches, err := ms.redis.BulkGetMatches(ctx, ids)
	if err != nil {
		log.Printf("stale match sweep failed: %v", err)
		return
	}

	for _, m := range matches {
		if m.MatchmakingStatus != models.MatchmakingSearching || m.IsFull() {
			ms.redis.RefreshOpenIndex(ctx, m)
			continue
		}
		if time.Since(m.CreatedAt) < maxAge {
			continue
		}
		cancelled, err := ms.redis.UpdateMatch(ctx, m.ID, func(m *models.Match) error {
			if m.MatchmakingStatus != models.MatchmakingSearching || m.IsFull() || m.Status != models.MatchStatusScheduled {
				return ErrInvalidTransition
			}
			m.Status = models.MatchStatusCancelled
			return nil
		})
		if err != nil {
			continue
		}
		ms.redis.RefreshOpenIndex(ctx, cancelled)
		ms.broadcaster.PublishMatch(cancelled.ID, EventMatchStatus, cancelled)
		log.Printf("cancelled stale match %s", cancelled.ID)
	}
}
