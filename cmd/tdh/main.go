// Package main runs a TDH scoring computation.
// Executes: snapshot resolution → replay scoring → identity merge →
// ranking → persistence
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"tdh-engine/internal/chain"
	"tdh-engine/internal/domain"
	"tdh-engine/internal/observability"
	"tdh-engine/internal/orchestrator"
	"tdh-engine/internal/storage"
	chstore "tdh-engine/internal/storage/clickhouse"
	"tdh-engine/internal/storage/memory"
	"tdh-engine/internal/storage/migrations"
	pgstore "tdh-engine/internal/storage/postgres"
	"tdh-engine/internal/upload"
)

func main() {
	// Env-driven DSNs may come from a local .env file.
	_ = godotenv.Load()

	mode := flag.String("mode", "full", "Run mode: full or delta")
	walletList := flag.String("wallets", "", "Comma-separated seed wallets for delta mode")
	targetTime := flag.String("target-time", "", "Calculation instant (RFC3339), defaults to now")
	block := flag.Int64("block", 0, "Snapshot block number (required)")
	blockTime := flag.String("block-time", "", "Snapshot block timestamp (RFC3339, required)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("TDH_POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("TDH_CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	uploadPrefix := flag.String("upload-prefix", "consolidated_tdh", "Object name prefix for the CSV artifact")
	gradientRate := flag.Float64("gradient-rate", 1.0, "Hodl rate for gradient tokens")
	nextgenRate := flag.Float64("nextgen-rate", 1.0, "Hodl rate for nextgen tokens")
	excludedTxs := flag.String("excluded-txs", os.Getenv("TDH_EXCLUDED_TXS"), "Comma-separated tx ids excluded from burn-wallet replay")
	workers := flag.Int("workers", 0, "Scoring worker count (0 = default)")
	metricsAddr := flag.String("metrics-addr", "", "Address for the Prometheus /metrics endpoint (empty = disabled)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("component", "tdh").Logger()
	if !*verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if *block == 0 || *blockTime == "" {
		logger.Fatal().Msg("--block and --block-time are required")
	}
	blockTS, err := time.Parse(time.RFC3339, *blockTime)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse --block-time")
	}

	target := time.Now().UnixMilli()
	if *targetTime != "" {
		t, err := time.Parse(time.RFC3339, *targetTime)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse --target-time")
		}
		target = t.UnixMilli()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	stores, cleanup, err := buildStores(ctx, *useMemory, *postgresDSN, *clickhouseDSN, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("set up stores")
	}
	defer cleanup()

	uploader, err := buildUploader(ctx, stores.uploads, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("set up object storage")
	}

	metrics := observability.NewMetrics("")
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn().Err(err).Msg("metrics endpoint stopped")
			}
		}()
	}

	orch := orchestrator.New(orchestrator.Options{
		TransferStore:    stores.transfers,
		EdgeStore:        stores.edges,
		NFTStore:         stores.nfts,
		SeasonStore:      stores.seasons,
		WalletScores:     stores.walletScores,
		IdentityScores:   stores.identityScores,
		SeasonScoreStore: stores.seasonScores,
		EditionStore:     stores.editions,
		BlockStore:       stores.blocks,
		Resolver: chain.StaticResolver{
			Snapshot: domain.Snapshot{Block: *block, Timestamp: blockTS.UnixMilli()},
		},
		Uploader:      uploader,
		UploadPrefix:  *uploadPrefix,
		GradientRate:  *gradientRate,
		NextGenRate:   *nextgenRate,
		ExcludedTxIDs: splitList(*excludedTxs),
		Workers:       *workers,
		Logger:        logger,
		Metrics:       metrics,
	})

	result, err := orch.Run(ctx, orchestrator.RunOptions{
		Mode:       orchestrator.Mode(*mode),
		TargetTime: target,
		Wallets:    splitList(*walletList),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}

	fmt.Printf("Run completed:\n")
	fmt.Printf("  Block:       %d\n", result.Block)
	fmt.Printf("  Timestamp:   %s\n", time.UnixMilli(result.Timestamp).UTC().Format(time.RFC3339))
	fmt.Printf("  Wallets:     %d\n", result.Wallets)
	fmt.Printf("  Identities:  %d\n", result.Identities)
	fmt.Printf("  Merkle root: %s\n", result.MerkleRoot)
}

// runStores groups every store the orchestrator needs, regardless of
// which backend produced them.
type runStores struct {
	transfers      storage.TransferStore
	edges          storage.EdgeStore
	nfts           storage.NFTStore
	seasons        storage.SeasonStore
	walletScores   storage.ScoreStore
	identityScores storage.ScoreStore
	seasonScores   storage.SeasonScoreStore
	editions       storage.EditionStore
	blocks         storage.BlockStore
	uploads        storage.UploadStore
}

func buildStores(ctx context.Context, useMemory bool, postgresDSN, clickhouseDSN string, logger zerolog.Logger) (*runStores, func(), error) {
	if useMemory || (postgresDSN == "" && clickhouseDSN == "") {
		logger.Info().Msg("using in-memory storage")
		return &runStores{
			transfers:      memory.NewTransferStore(),
			edges:          memory.NewEdgeStore(),
			nfts:           memory.NewNFTStore(),
			seasons:        memory.NewSeasonStore(),
			walletScores:   memory.NewScoreStore(),
			identityScores: memory.NewScoreStore(),
			seasonScores:   memory.NewSeasonScoreStore(),
			editions:       memory.NewEditionStore(),
			blocks:         memory.NewBlockStore(),
			uploads:        memory.NewUploadStore(),
		}, func() {}, nil
	}

	if postgresDSN == "" {
		return nil, nil, fmt.Errorf("--postgres-dsn is required when not using --use-memory")
	}
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &runStores{
		transfers:      pgstore.NewTransferStore(pool),
		edges:          pgstore.NewEdgeStore(pool),
		nfts:           pgstore.NewNFTStore(pool),
		seasons:        pgstore.NewSeasonStore(pool),
		walletScores:   pgstore.NewScoreStore(pool, pgstore.WalletScoreTable),
		identityScores: pgstore.NewScoreStore(pool, pgstore.ConsolidatedScoreTable),
		seasonScores:   pgstore.NewSeasonScoreStore(pool),
		blocks:         pgstore.NewBlockStore(pool),
		uploads:        pgstore.NewUploadStore(pool),
	}
	cleanup := func() { pool.Close() }

	// Edition audit rows live in ClickHouse; without a DSN they stay in
	// memory for the duration of the run.
	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.editions = chstore.NewEditionStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	} else {
		logger.Warn().Msg("no clickhouse dsn, edition audit rows are not persisted")
		stores.editions = memory.NewEditionStore()
	}
	return stores, cleanup, nil
}

func buildUploader(ctx context.Context, store storage.UploadStore, logger zerolog.Logger) (*upload.Uploader, error) {
	endpoint := os.Getenv("TDH_MINIO_ENDPOINT")
	if endpoint == "" {
		logger.Info().Msg("no minio endpoint, artifact archiving disabled")
		return nil, nil
	}
	objStorage, err := upload.NewMinIOStorage(ctx, upload.MinIOConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("TDH_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("TDH_MINIO_SECRET_KEY"),
		Bucket:    envOr("TDH_MINIO_BUCKET", "tdh-artifacts"),
		UseSSL:    os.Getenv("TDH_MINIO_USE_SSL") == "true",
	}, logger)
	if err != nil {
		return nil, err
	}
	return upload.NewUploader(objStorage, store, logger), nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
