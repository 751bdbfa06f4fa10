package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"tessera/internal/cache"
	"tessera/internal/config"
	"tessera/internal/database"
	"tessera/internal/models"
	"tessera/internal/repository"
)

var (
	concertCount = flag.Int("concerts", 5, "Number of sample concerts to generate")
	publish      = flag.Bool("publish", true, "Publish generated concerts (skip-review path)")
	dryRun       = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

type seedAccount struct {
	email    string
	password string
	name     string
	role     string
}

var seedAccounts = []seedAccount{
	{"admin@tessera.local", "admin123", "Admin", models.RoleAdmin},
	{"root@tessera.local", "root123", "Root", models.RoleSuperuser},
	{"user@tessera.local", "user123", "User", models.RoleUser},
}

type DataGenerator struct {
	repos     *repository.Repositories
	roleCache *cache.RoleCache
}

func main() {
	flag.Parse()

	slog.Info("Starting data generator...")

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	roleCache, err := cache.NewRoleCache(cfg.Redis)
	if err != nil {
		slog.Warn("Role cache unavailable, credentials will not be warmed", "error", err)
		roleCache = nil
	}

	generator := &DataGenerator{
		repos:     repository.NewRepositories(db),
		roleCache: roleCache,
	}

	ctx := context.Background()

	if err := generator.SeedAccounts(ctx); err != nil {
		slog.Error("Failed to seed accounts", "error", err)
		os.Exit(1)
	}

	if err := generator.SeedConcerts(ctx); err != nil {
		slog.Error("Failed to seed concerts", "error", err)
		os.Exit(1)
	}

	slog.Info("Data generation completed successfully!")
}

func (g *DataGenerator) SeedAccounts(ctx context.Context) error {
	for _, acc := range seedAccounts {
		existing, err := g.repos.Users.GetByEmail(ctx, acc.email)
		if err != nil {
			return fmt.Errorf("failed to look up account %s: %w", acc.email, err)
		}
		if existing != nil {
			slog.Info("Account already exists, skipping", "email", acc.email)
			g.warmCredentials(ctx, existing, acc.password)
			continue
		}

		if *dryRun {
			slog.Info("[DRY RUN] Would create account", "email", acc.email, "role", acc.role)
			continue
		}

		hash := sha256.Sum256([]byte(acc.password))
		user := &models.User{
			Email:        acc.email,
			PasswordHash: fmt.Sprintf("%x", hash),
			Name:         acc.name,
			Role:         acc.role,
			IsActive:     true,
		}
		if err := g.repos.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create account %s: %w", acc.email, err)
		}

		g.warmCredentials(ctx, user, acc.password)
		slog.Info("Created account", "email", acc.email, "role", acc.role)
	}
	return nil
}

func (g *DataGenerator) warmCredentials(ctx context.Context, user *models.User, password string) {
	if g.roleCache == nil || *dryRun {
		return
	}
	hash := sha256.Sum256([]byte(password))
	if err := g.roleCache.SetUserAuth(ctx, user.Email, fmt.Sprintf("%x", hash), user.UserID, user.Role); err != nil {
		slog.Warn("Failed to warm credential cache", "email", user.Email, "error", err)
	}
}

func (g *DataGenerator) SeedConcerts(ctx context.Context) error {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < *concertCount; i++ {
		title := fmt.Sprintf("Sample Concert %d", i+1)
		start := time.Now().AddDate(0, 1, rnd.Intn(60))
		end := start.Add(3 * time.Hour)

		if *dryRun {
			slog.Info("[DRY RUN] Would create concert", "title", title, "start", start)
			continue
		}

		concert := &models.Concert{
			ConTitle:       title,
			EventStartDate: &start,
			EventEndDate:   &end,
		}
		if err := g.repos.Concerts.Create(ctx, concert); err != nil {
			return fmt.Errorf("failed to create concert: %w", err)
		}

		if *publish {
			skipped := models.ReviewSkipped
			ok, err := g.repos.Concerts.Transition(ctx, concert.ID,
				models.ConcertDraft, nil, models.ConcertPublished, &skipped, nil)
			if err != nil {
				return fmt.Errorf("failed to publish concert: %w", err)
			}
			if !ok {
				slog.Warn("Concert not in draft state, left unpublished", "concert_id", concert.ID)
			}
		}

		if err := g.seedTicketTypes(ctx, concert, rnd); err != nil {
			return err
		}

		slog.Info("Created concert", "concert_id", concert.ID, "title", title)
	}
	return nil
}

func (g *DataGenerator) seedTicketTypes(ctx context.Context, concert *models.Concert, rnd *rand.Rand) error {
	tiers := []struct {
		name  string
		price string
	}{
		{"General Admission", "45.00"},
		{"VIP", "120.00"},
	}

	for _, tier := range tiers {
		price, err := decimal.NewFromString(tier.price)
		if err != nil {
			return fmt.Errorf("invalid tier price: %w", err)
		}

		tt := &models.TicketType{
			ConcertID:       concert.ID,
			TicketTypeName:  tier.name,
			TicketTypePrice: price,
			TotalQuantity:   rnd.Intn(400) + 100,
			SellBeginDate:   concert.EventStartDate,
		}
		// open sales a month before doors
		if concert.EventStartDate != nil {
			begin := concert.EventStartDate.AddDate(0, -1, 0)
			tt.SellBeginDate = &begin
			tt.SellEndDate = concert.EventStartDate
		}

		if err := g.repos.TicketTypes.Create(ctx, tt); err != nil {
			return fmt.Errorf("failed to create ticket type: %w", err)
		}
	}
	return nil
}
