package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dare4net/earnest-gaming-backend/internal/models"
	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

func TestCatalogGames(t *testing.T) {
	catalog := services.NewCatalogService(nil)

	games := catalog.Games()
	if len(games) != 3 {
		t.Fatalf("Expected 3 supported games, got %d", len(games))
	}

	g, err := catalog.GameByTitle("CODM")
	if err != nil {
		t.Fatalf("CODM should be supported: %v", err)
	}
	if g.Slug != "codm" {
		t.Errorf("Expected slug codm, got %s", g.Slug)
	}

	bySlug, err := catalog.GameBySlug("efootball")
	if err != nil {
		t.Fatalf("efootball slug lookup failed: %v", err)
	}
	if bySlug.Title != "eFootball" {
		t.Errorf("Slug resolved to wrong game: %s", bySlug.Title)
	}

	if _, err := catalog.GameByTitle("Valorant"); !errors.Is(err, services.ErrInvalidGame) {
		t.Errorf("Unsupported game should be ErrInvalidGame, got %v", err)
	}
}

func TestCatalogValidateGame(t *testing.T) {
	catalog := services.NewCatalogService(nil)

	if err := catalog.ValidateGame("FIFA", 1000); err != nil {
		t.Errorf("Valid entry fee rejected: %v", err)
	}
	if err := catalog.ValidateGame("FIFA", 500); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Entry fee below the minimum should be rejected, got %v", err)
	}
	if err := catalog.ValidateGame("FIFA", 20_000_000); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Entry fee above the maximum should be rejected, got %v", err)
	}
	if err := catalog.ValidateGame("Chess", 1000); !errors.Is(err, services.ErrInvalidGame) {
		t.Errorf("Unknown game should be rejected, got %v", err)
	}
}

func TestCatalogLeagues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	later := &models.League{
		ID:        "test-" + uuid.New().String(),
		Name:      "Winter Cup",
		Game:      "CODM",
		StartDate: time.Now().Add(48 * time.Hour),
		EndDate:   time.Now().Add(96 * time.Hour),
		Status:    models.LeagueStatusUpcoming,
	}
	sooner := &models.League{
		ID:        "test-" + uuid.New().String(),
		Name:      "Autumn Cup",
		Game:      "FIFA",
		StartDate: time.Now().Add(24 * time.Hour),
		EndDate:   time.Now().Add(72 * time.Hour),
		Status:    models.LeagueStatusActive,
	}
	for _, l := range []*models.League{later, sooner} {
		l := l
		if err := env.redis.SaveLeague(ctx, l); err != nil {
			t.Fatalf("Failed to save league: %v", err)
		}
		t.Cleanup(func() { env.redis.DeleteLeague(context.Background(), l.ID) })
	}

	leagues, err := env.catalog.Leagues(ctx)
	if err != nil {
		t.Fatalf("Failed to list leagues: %v", err)
	}

	var ours []*models.League
	for _, l := range leagues {
		if l.ID == later.ID || l.ID == sooner.ID {
			ours = append(ours, l)
		}
	}
	if len(ours) != 2 {
		t.Fatalf("Expected both stored leagues in the listing, got %d", len(ours))
	}
	// Earliest start date first.
	if ours[0].ID != sooner.ID || ours[1].ID != later.ID {
		t.Errorf("Leagues out of start-date order: %s before %s", ours[0].Name, ours[1].Name)
	}

	got, err := env.catalog.League(ctx, sooner.ID)
	if err != nil {
		t.Fatalf("Failed to load league: %v", err)
	}
	if got.Name != "Autumn Cup" {
		t.Errorf("Loaded wrong league: %s", got.Name)
	}
}
