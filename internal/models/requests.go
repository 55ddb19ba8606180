package models

import "fmt"

var validFormats = map[string]bool{
	"1v1": true, "2v2": true, "3v3": true, "4v4": true, "5v5": true,
}

type CreateMatchRequest struct {
	Game      string   `json:"game" binding:"required"`
	League    string   `json:"league"`
	MatchType string   `json:"match_type"`
	EntryFee  int64    `json:"entry_fee"`
	Format    string   `json:"format"`
	Rules     []string `json:"rules"`
}

func (r *CreateMatchRequest) Validate() error {
	if r.EntryFee <= 0 {
		return fmt.Errorf("entry fee must be positive")
	}
	if r.Format == "" {
		r.Format = "1v1"
	}
	if !validFormats[r.Format] {
		return fmt.Errorf("invalid format: %s", r.Format)
	}
	if r.MatchType == "" {
		r.MatchType = string(MatchTypeRegular)
	}
	switch MatchType(r.MatchType) {
	case MatchTypeRegular:
	case MatchTypeLeague:
		if r.League == "" {
			return fmt.Errorf("league id is required for league matches")
		}
	default:
		return fmt.Errorf("invalid match type: %s", r.MatchType)
	}
	if len(r.Rules) == 0 {
		r.Rules = []string{"Best of 3"}
	}
	return nil
}

type InviteRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

type MatchWithPlayerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

type ScreenshotRequest struct {
	Screenshot string `json:"screenshot" binding:"required"`
	Score      int    `json:"score"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required,max=500"`
}

type AdjudicateRequest struct {
	Winner string `json:"winner"`
	Notes  string `json:"notes"`
}

type DisputeRequest struct {
	Reason   string   `json:"reason" binding:"required"`
	Evidence []string `json:"evidence"`
}

type ResolveDisputeRequest struct {
	// Resolution is "payout" (Winner required) or "refund"; when empty
	// the configured default resolution applies.
	Resolution string `json:"resolution" binding:"omitempty,oneof=payout refund"`
	Winner     string `json:"winner"`
	Notes      string `json:"notes"`
}

type TransactionRequest struct {
	Type        string `json:"type" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

func (r *TransactionRequest) Validate() error {
	if !TransactionType(r.Type).Valid() {
		return fmt.Errorf("invalid transaction type: %s", r.Type)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}
