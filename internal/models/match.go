package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled    MatchStatus = "scheduled"
	MatchStatusInProgress   MatchStatus = "inProgress"
	MatchStatusVerification MatchStatus = "verification"
	MatchStatusDisputed     MatchStatus = "disputed"
	MatchStatusCompleted    MatchStatus = "completed"
	MatchStatusCancelled    MatchStatus = "cancelled"
)

type MatchmakingStatus string

const (
	MatchmakingSearching MatchmakingStatus = "searching"
	MatchmakingMatched   MatchmakingStatus = "matched"
	MatchmakingReady     MatchmakingStatus = "ready"
)

type MatchType string

const (
	MatchTypeRegular MatchType = "regular"
	MatchTypeLeague  MatchType = "league"
)

type PlayerStatus string

const (
	PlayerStatusPending      PlayerStatus = "pending"
	PlayerStatusReady        PlayerStatus = "ready"
	PlayerStatusPlaying      PlayerStatus = "playing"
	PlayerStatusDisconnected PlayerStatus = "disconnected"
	PlayerStatusFinished     PlayerStatus = "finished"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Player is one of the two roster slots. Slot 0 is the creator (team A),
// slot 1 the opponent (team B).
type Player struct {
	User               string             `json:"user"`
	Team               string             `json:"team"` // "A" or "B"
	Status             PlayerStatus       `json:"status"`
	Score              int                `json:"score"`
	Screenshot         string             `json:"screenshot,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
}

// Escrow holds the stake figures computed once at match creation. Only
// Refunded may change afterwards, and only once.
type Escrow struct {
	TotalAmount  int64 `json:"total_amount"`
	PlatformFee  int64 `json:"platform_fee"`
	WinnerPayout int64 `json:"winner_payout"`
	Refunded     bool  `json:"refunded"`
}

type Verification struct {
	Status     string     `json:"status"` // pending, verified, rejected, disputed
	StartedAt  *time.Time `json:"started_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type Dispute struct {
	Status     string     `json:"status"` // none, raised, reviewing, resolved
	RaisedBy   string     `json:"raised_by,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Evidence   []string   `json:"evidence,omitempty"`
	Resolution string     `json:"resolution,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type ChatMessage struct {
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Match struct {
	ID                string            `json:"id"`
	Game              string            `json:"game"`
	League            string            `json:"league,omitempty"`
	MatchType         MatchType         `json:"match_type"`
	MatchmakingStatus MatchmakingStatus `json:"matchmaking_status"`

	// PendingInviteUser reserves slot 1 for exactly one invited user and
	// blocks general joining until accepted or declined.
	PendingInviteUser string `json:"pending_invite_user,omitempty"`

	Players []Player `json:"players"`

	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Status    MatchStatus `json:"status"`
	Winner    string      `json:"winner,omitempty"`

	EntryFee  int64    `json:"entry_fee"`
	PrizePool int64    `json:"prize_pool"`
	Format    string   `json:"format"` // 1v1 .. 5v5
	Rules     []string `json:"rules,omitempty"`

	Chat         []ChatMessage `json:"chat,omitempty"`
	Dispute      Dispute       `json:"dispute"`
	Verification Verification  `json:"verification"`
	Escrow       Escrow        `json:"escrow"`

	// UnresolvedPayout flags a completed match whose wallet credit could
	// not be applied after bounded retries; manual reconciliation picks
	// these up.
	UnresolvedPayout bool `json:"unresolved_payout,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owner returns the slot-0 creator of the match.
func (m *Match) Owner() string {
	if len(m.Players) == 0 {
		return ""
	}
	return m.Players[0].User
}

func (m *Match) IsFull() bool {
	return len(m.Players) >= 2
}

func (m *Match) PlayerIndex(userID string) int {
	for i, p := range m.Players {
		if p.User == userID {
			return i
		}
	}
	return -1
}

func (m *Match) IsParticipant(userID string) bool {
	return m.PlayerIndex(userID) >= 0
}

// BothSubmitted reports whether every seated player has turned in a
// screenshot.
func (m *Match) BothSubmitted() bool {
	if len(m.Players) < 2 {
		return false
	}
	for _, p := range m.Players {
		if p.Screenshot == "" {
			return false
		}
	}
	return true
}

func (m *Match) BothApproved() bool {
	if len(m.Players) < 2 {
		return false
	}
	for _, p := range m.Players {
		if p.VerificationStatus != VerificationApproved {
			return false
		}
	}
	return true
}

// WindowExpired reports whether the verification deadline has passed.
// The deadline is soft: it is checked on access, not enforced by a timer.
func (m *Match) WindowExpired(now time.Time) bool {
	return m.Verification.ExpiresAt != nil && now.After(*m.Verification.ExpiresAt)
}

// LifecycleLabel derives the human-facing stage from status and
// matchmaking status.
func (m *Match) LifecycleLabel() string {
	switch m.Status {
	case MatchStatusScheduled:
		if m.MatchmakingStatus == MatchmakingSearching {
			return "matching"
		}
		return "matched"
	case MatchStatusInProgress:
		return "playing"
	case MatchStatusVerification, MatchStatusDisputed:
		return "verification"
	default:
		return "finished"
	}
}
