// Package main verifies a published merkle root: it recomputes the root
// from the persisted identity score table and compares it against the
// root stored for the block.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/merkle"
	"tdh-engine/internal/storage"
	pgstore "tdh-engine/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("TDH_POSTGRES_DSN"), "PostgreSQL connection string")
	block := flag.Int64("block", 0, "Block to verify (0 = latest)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("component", "verify").Logger()

	if *postgresDSN == "" {
		logger.Fatal().Msg("--postgres-dsn is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()

	blocks := pgstore.NewBlockStore(pool)
	scores := pgstore.NewScoreStore(pool, pgstore.ConsolidatedScoreTable)

	rec, err := loadBlock(ctx, blocks, *block)
	if err != nil {
		logger.Fatal().Err(err).Msg("load block record")
	}

	records, err := scores.GetAll(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load identity scores")
	}

	computed := merkle.Root(merkle.FromRecords(records))
	if computed != rec.MerkleRoot {
		fmt.Printf("MISMATCH\n")
		fmt.Printf("  Block:    %d\n", rec.Block)
		fmt.Printf("  Stored:   %s\n", rec.MerkleRoot)
		fmt.Printf("  Computed: %s\n", computed)
		os.Exit(1)
	}

	fmt.Printf("OK\n")
	fmt.Printf("  Block:      %d\n", rec.Block)
	fmt.Printf("  Root:       %s\n", rec.MerkleRoot)
	fmt.Printf("  Identities: %d\n", len(records))
}

func loadBlock(ctx context.Context, blocks storage.BlockStore, block int64) (*domain.BlockRecord, error) {
	if block == 0 {
		return blocks.GetLatest(ctx)
	}
	return blocks.GetByBlock(ctx, block)
}
