package services

import (
	"context"

	"github.com/gosimple/slug"

	"github.com/dare4net/earnest-gaming-backend/internal/models"
)

// CatalogService serves the fixed game catalog and league reference
// data. Both are read-only from the core's point of view.
type CatalogService struct {
	redis *RedisService
	games map[string]*models.Game
	order []string
}

func NewCatalogService(redis *RedisService) *CatalogService {
	cs := &CatalogService{
		redis: redis,
		games: make(map[string]*models.Game),
	}

	for _, g := range supportedGames() {
		cs.games[g.Title] = g
		cs.order = append(cs.order, g.Title)
	}
	return cs
}

func supportedGames() []*models.Game {
	games := []*models.Game{
		{
			Title:       "CODM",
			Platform:    "Mobile",
			MinEntryFee: 1_000,      // ₦10
			MaxEntryFee: 10_000_000, // ₦100,000
			Status:      "active",
			Rules:       []string{"Best of 3", "No emulators"},
			MatchFormat: "1v1",
		},
		{
			Title:       "eFootball",
			Platform:    "Mobile",
			MinEntryFee: 1_000,
			MaxEntryFee: 10_000_000,
			Status:      "active",
			Rules:       []string{"Best of 3", "Default squads only"},
			MatchFormat: "1v1",
		},
		{
			Title:       "FIFA",
			Platform:    "Console",
			MinEntryFee: 1_000,
			MaxEntryFee: 10_000_000,
			Status:      "active",
			Rules:       []string{"Best of 3", "6 minute halves"},
			MatchFormat: "1v1",
		},
	}
	for _, g := range games {
		g.Slug = slug.Make(g.Title)
	}
	return games
}

func (cs *CatalogService) Games() []*models.Game {
	out := make([]*models.Game, 0, len(cs.order))
	for _, title := range cs.order {
		out = append(out, cs.games[title])
	}
	return out
}

func (cs *CatalogService) GameByTitle(title string) (*models.Game, error) {
	g, ok := cs.games[title]
	if !ok {
		return nil, ErrInvalidGame
	}
	return g, nil
}

func (cs *CatalogService) GameBySlug(s string) (*models.Game, error) {
	for _, g := range cs.games {
		if g.Slug == s {
			return g, nil
		}
	}
	return nil, ErrNotFound
}

// ValidateGame checks a match-creation command against the catalog.
func (cs *CatalogService) ValidateGame(title string, entryFee int64) error {
	g, ok := cs.games[title]
	if !ok || g.Status != "active" {
		return ErrInvalidGame
	}
	if entryFee < g.MinEntryFee || entryFee > g.MaxEntryFee {
		return ErrInvalidInput
	}
	return nil
}

// ValidateLeague checks that the referenced league exists and still
// accepts matches.
func (cs *CatalogService) ValidateLeague(ctx context.Context, leagueID string) (*models.League, error) {
	league, err := cs.redis.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if !league.Open() {
		return nil, ErrInvalidInput
	}
	return league, nil
}

func (cs *CatalogService) League(ctx context.Context, leagueID string) (*models.League, error) {
	return cs.redis.GetLeague(ctx, leagueID)
}

// Leagues returns every stored league, earliest start date first.
func (cs *CatalogService) Leagues(ctx context.Context) ([]*models.League, error) {
	return cs.redis.GetAllLeagues(ctx)
}
