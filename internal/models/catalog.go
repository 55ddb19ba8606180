package models

import "time"

// Game is read-only catalog reference data for a supported title.
type Game struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Platform    string   `json:"platform"` // Mobile, Console, PC
	MinEntryFee int64    `json:"min_entry_fee"`
	MaxEntryFee int64    `json:"max_entry_fee"`
	Status      string   `json:"status"` // active, inactive, maintenance
	Rules       []string `json:"rules,omitempty"`
	MatchFormat string   `json:"match_format"`
}

type LeagueStatus string

const (
	LeagueStatusUpcoming  LeagueStatus = "upcoming"
	LeagueStatusActive    LeagueStatus = "active"
	LeagueStatusCompleted LeagueStatus = "completed"
	LeagueStatusCancelled LeagueStatus = "cancelled"
)

// League is read-only reference data validated when a league match is
// created.
type League struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Game            string       `json:"game"`
	Description     string       `json:"description,omitempty"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	EntryFee        int64        `json:"entry_fee"`
	PrizePool       int64        `json:"prize_pool"`
	MaxParticipants int          `json:"max_participants"`
	Status          LeagueStatus `json:"status"`
}

// Open reports whether the league can still accept new league matches.
func (l *League) Open() bool {
	return l.Status == LeagueStatusUpcoming || l.Status == LeagueStatusActive
}
