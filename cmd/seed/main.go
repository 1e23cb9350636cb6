// Command seed populates the review database with a numbered catalog of
// users and products and a batch of sample reviews and votes. It is meant for
// local development against the same POSTGRES_* settings the server reads.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utafrali/reviewhub/internal/config"
	"github.com/utafrali/reviewhub/internal/domain"
	"github.com/utafrali/reviewhub/internal/event"
	"github.com/utafrali/reviewhub/internal/repository/postgres"
	"github.com/utafrali/reviewhub/internal/service"
	"github.com/utafrali/reviewhub/migrations"
	"github.com/utafrali/reviewhub/pkg/database"
	"github.com/utafrali/reviewhub/pkg/logger"
)

var (
	reviewTexts = []string{
		"Does what it says on the box.",
		"Arrived quickly and works well.",
		"Not bad for the price, but the finish could be better.",
		"Stopped working after two weeks.",
		"Would buy again.",
	}
	pros = []string{"sturdy", "good value", "easy to set up", "quiet", "looks great"}
	cons = []string{"flimsy", "overpriced", "confusing manual", "loud", "heavy"}
)

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("review-seed", cfg.LogLevel)

	users := getEnvInt("SEED_USERS", 50)
	products := getEnvInt("SEED_PRODUCTS", 20)
	reviews := getEnvInt("SEED_REVIEWS", 200)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		log.Error("connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Error("run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := seedCatalog(ctx, pool, users, products); err != nil {
		log.Error("seed catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("catalog seeded", slog.Int("users", users), slog.Int("products", products))

	manager := service.NewReviewManager(postgres.NewTransactor(pool), event.Discard{}, log)
	created, votes := seedReviews(ctx, manager, users, products, reviews)
	log.Info("reviews seeded", slog.Int("reviews", created), slog.Int("votes", votes))
}

// seedCatalog inserts users and products with ids 1..n, keeping existing rows.
func seedCatalog(ctx context.Context, pool *pgxpool.Pool, users, products int) error {
	stmts := []struct {
		sql string
		n   int
	}{
		{`INSERT INTO users (id, username)
		  SELECT g, 'user' || g FROM generate_series(1, $1::bigint) AS g
		  ON CONFLICT (id) DO NOTHING`, users},
		{`INSERT INTO products (id, name)
		  SELECT g, 'Product ' || g FROM generate_series(1, $1::bigint) AS g
		  ON CONFLICT (id) DO NOTHING`, products},
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s.sql, s.n); err != nil {
			return fmt.Errorf("insert catalog rows: %w", err)
		}
	}

	// Explicit ids leave the sequences behind.
	for _, table := range []string{"users", "products"} {
		q := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT MAX(id) FROM %[1]s), 1))`, table)
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("advance %s sequence: %w", table, err)
		}
	}
	return nil
}

// seedReviews creates reviews from random authors, each followed by a few votes.
// Individual failures are logged by the manager and skipped.
func seedReviews(ctx context.Context, manager *service.ReviewManager, users, products, n int) (created, votes int) {
	if users < 1 || products < 1 {
		return 0, 0
	}
	rng := rand.New(rand.NewPCG(1, 2)) // #nosec G404 -- deterministic sample data

	for range n {
		author := domain.Identity{UserID: rng.Int64N(int64(users)) + 1}
		input := &service.CreateReviewInput{
			ProductID:  rng.Int64N(int64(products)) + 1,
			Text:       reviewTexts[rng.IntN(len(reviewTexts))],
			Score:      rng.IntN(5) + 1,
			Attributes: []service.AttributeInput{},
		}
		if input.Score >= 3 {
			input.Attributes = append(input.Attributes, service.AttributeInput{Text: pros[rng.IntN(len(pros))], IsPositive: true})
		}
		if input.Score <= 3 {
			input.Attributes = append(input.Attributes, service.AttributeInput{Text: cons[rng.IntN(len(cons))]})
		}

		review, err := manager.CreateReview(ctx, author, input)
		if err != nil {
			continue
		}
		created++

		for range rng.IntN(4) {
			voter := domain.Identity{UserID: rng.Int64N(int64(users)) + 1}
			if err := manager.VoteOnReview(ctx, voter, review.ID, rng.IntN(4) > 0); err == nil {
				votes++
			}
		}
	}
	return created, votes
}
