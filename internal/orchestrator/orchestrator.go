// Package orchestrator provides E2E scoring run orchestration.
// It coordinates: snapshot resolution → replay scoring → identity merge →
// ranking → persistence
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"

	"tdh-engine/internal/chain"
	"tdh-engine/internal/consolidation"
	"tdh-engine/internal/domain"
	"tdh-engine/internal/editions"
	"tdh-engine/internal/merge"
	"tdh-engine/internal/merkle"
	"tdh-engine/internal/observability"
	"tdh-engine/internal/rank"
	"tdh-engine/internal/score"
	"tdh-engine/internal/seasons"
	"tdh-engine/internal/storage"
	"tdh-engine/internal/upload"
)

// Mode selects how much of the universe a run recomputes.
type Mode string

const (
	// ModeFull recomputes every wallet with transfer activity or a
	// registered consolidation edge and replaces the score tables.
	ModeFull Mode = "full"

	// ModeDelta recomputes only the identities touching the given wallets
	// and splices them into the previously persisted tables.
	ModeDelta Mode = "delta"
)

const defaultWorkers = 8

// Orchestrator coordinates a scoring run end to end.
// Flow: resolve snapshot → score wallets → merge identities → rank →
// season rows → persist + publish root
type Orchestrator struct {
	// Stores
	transferStore    storage.TransferStore
	edgeStore        storage.EdgeStore
	nftStore         storage.NFTStore
	seasonStore      storage.SeasonStore
	walletScores     storage.ScoreStore
	identityScores   storage.ScoreStore
	seasonScoreStore storage.SeasonScoreStore
	editionStore     storage.EditionStore
	blockStore       storage.BlockStore

	// Boundaries
	resolver     chain.BlockResolver
	uploader     *upload.Uploader
	uploadPrefix string

	// Scoring parameters
	gradientRate   float64
	nextgenRate    float64
	excludedTxIDs  []string
	maxClusterSize int

	workers int
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	TransferStore    storage.TransferStore
	EdgeStore        storage.EdgeStore
	NFTStore         storage.NFTStore
	SeasonStore      storage.SeasonStore
	WalletScores     storage.ScoreStore
	IdentityScores   storage.ScoreStore
	SeasonScoreStore storage.SeasonScoreStore
	EditionStore     storage.EditionStore
	BlockStore       storage.BlockStore

	// Resolver maps a target instant to the snapshot block.
	Resolver chain.BlockResolver

	// Uploader archives the ranked identity table as CSV after each run.
	// Nil disables archiving.
	Uploader     *upload.Uploader
	UploadPrefix string

	// Scoring parameters
	GradientRate   float64
	NextGenRate    float64
	ExcludedTxIDs  []string
	MaxClusterSize int

	// Workers bounds the scoring fan-out. Zero means defaultWorkers.
	Workers int

	Logger zerolog.Logger

	// Metrics receives run counters and gauges. Nil disables recording.
	Metrics *observability.Metrics
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Orchestrator{
		transferStore:    opts.TransferStore,
		edgeStore:        opts.EdgeStore,
		nftStore:         opts.NFTStore,
		seasonStore:      opts.SeasonStore,
		walletScores:     opts.WalletScores,
		identityScores:   opts.IdentityScores,
		seasonScoreStore: opts.SeasonScoreStore,
		editionStore:     opts.EditionStore,
		blockStore:       opts.BlockStore,
		resolver:         opts.Resolver,
		uploader:         opts.Uploader,
		uploadPrefix:     opts.UploadPrefix,
		gradientRate:     opts.GradientRate,
		nextgenRate:      opts.NextGenRate,
		excludedTxIDs:    opts.ExcludedTxIDs,
		maxClusterSize:   opts.MaxClusterSize,
		workers:          workers,
		logger:           opts.Logger,
		metrics:          opts.Metrics,
	}
}

// RunOptions parameterize a single run.
type RunOptions struct {
	// Mode defaults to ModeFull.
	Mode Mode

	// TargetTime is the calculation instant, Unix milliseconds. The run
	// anchors at the latest block at or before it.
	TargetTime int64

	// Wallets seed a delta run. Every identity containing one of them is
	// recomputed. Ignored in full mode.
	Wallets []string
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Block      int64
	Timestamp  int64
	Wallets    int
	Identities int
	MerkleRoot string
}

// Run executes a scoring run.
// Phases:
//  1. Resolve snapshot block
//  2. Load reference data and build identity clusters
//  3. Load transfers and select the wallet universe
//  4. Score wallets on a bounded worker pool
//  5. Merge wallet records into identity records
//  6. Rank both tables (splicing into the live tables in delta mode)
//  7. Build season rows
//  8. Persist, publish the merkle root, archive the artifact
//
// Nothing is persisted until every phase before 8 has succeeded, so a
// failed run leaves the prior tables untouched.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	start := time.Now()
	result, err := o.run(ctx, opts)
	if err != nil {
		o.metrics.RecordRun(string(opts.Mode), "error", time.Since(start).Seconds())
		return nil, err
	}
	o.metrics.RecordRun(string(opts.Mode), "success", time.Since(start).Seconds())
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Mode == ModeDelta && len(opts.Wallets) == 0 {
		return nil, fmt.Errorf("delta run requires at least one seed wallet")
	}

	// Phase 1: resolve the snapshot block.
	snapshot, err := o.resolver.BlockAtTime(ctx, opts.TargetTime)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (resolve snapshot) failed: %w", err)
	}
	o.logger.Info().
		Int64("block", snapshot.Block).
		Int64("timestamp", snapshot.Timestamp).
		Str("mode", string(opts.Mode)).
		Msg("snapshot resolved")

	// Phase 2: reference data and clusters.
	nfts, seasonTable, clusters, err := o.loadReference(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (load reference data) failed: %w", err)
	}

	// Phase 3: transfers and wallet universe.
	transfers, err := o.transferStore.GetUpToBlock(ctx, snapshot.Block)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (load transfers) failed: %w", err)
	}
	byWallet := indexByWallet(transfers)
	wallets := o.selectWallets(opts, clusters, byWallet)
	o.logger.Info().
		Int("transfers", len(transfers)).
		Int("wallets", len(wallets)).
		Msg("universe selected")

	engine := score.NewEngine(score.Config{
		Snapshot:      snapshot,
		NFTs:          nfts,
		Seasons:       seasonTable,
		GradientRate:  o.gradientRate,
		NextGenRate:   o.nextgenRate,
		ExcludedTxIDs: o.excludedTxIDs,
	})

	// Phase 4: score every selected wallet in parallel.
	scored, err := o.scoreWallets(ctx, engine, wallets, clusters, byWallet)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (score wallets) failed: %w", err)
	}

	// Phase 5: merge wallet records into identity records.
	walletRows, identityRows := o.mergeIdentities(engine, clusters, wallets, scored)
	o.logger.Info().
		Int("wallet_rows", len(walletRows)).
		Int("identity_rows", len(identityRows)).
		Msg("scoring complete")

	// Phase 6: rank. Delta runs rank the recomputed rows against the
	// untouched remainder of the live tables.
	freshWallets, freshIdentities := walletRows, identityRows
	var removedWallets, removedIdentities, priorIdentityKeys []string
	if opts.Mode == ModeDelta {
		// Ranking below sorts the combined slices in place; keep the
		// recomputed sets on their own backing arrays.
		freshWallets = append([]*domain.ScoreRecord(nil), walletRows...)
		freshIdentities = append([]*domain.ScoreRecord(nil), identityRows...)

		affected := make(map[string]bool, len(wallets))
		for _, w := range wallets {
			affected[w] = true
		}
		var kept []*domain.ScoreRecord
		kept, removedWallets, err = o.splice(ctx, o.walletScores, walletRows, func(rec *domain.ScoreRecord) bool {
			return affected[rec.OwnerKey]
		})
		if err != nil {
			return nil, fmt.Errorf("phase 6 (splice wallet table) failed: %w", err)
		}
		walletRows = append(walletRows, kept...)

		var keptIdentities []*domain.ScoreRecord
		keptIdentities, removedIdentities, err = o.splice(ctx, o.identityScores, identityRows, func(rec *domain.ScoreRecord) bool {
			for _, w := range rec.Wallets {
				if affected[w] {
					return true
				}
			}
			return false
		})
		if err != nil {
			return nil, fmt.Errorf("phase 6 (splice identity table) failed: %w", err)
		}
		priorIdentityKeys = affectedKeys(identityRows, removedIdentities)
		identityRows = append(identityRows, keptIdentities...)
	}
	rank.Assign(walletRows)
	rank.Assign(identityRows)

	// Phase 7: per-season rows over the identity table.
	seasonRows := seasons.Build(identityRows, seasonTable, engine.SeasonCounts())
	rank.AssignSeasonRanks(seasonRows)

	// Phase 8: persist and publish.
	leaves := merkle.FromRecords(identityRows)
	root := merkle.Root(leaves)
	if err := o.persist(ctx, persistInput{
		mode:              opts.Mode,
		snapshot:          snapshot,
		walletRows:        walletRows,
		identityRows:      identityRows,
		seasonRows:        seasonRows,
		freshWallets:      freshWallets,
		freshIdentities:   freshIdentities,
		removedWallets:    removedWallets,
		removedIdentities: removedIdentities,
		priorIdentityKeys: priorIdentityKeys,
		root:              root,
	}); err != nil {
		return nil, fmt.Errorf("phase 8 (persist) failed: %w", err)
	}

	o.logger.Info().
		Int64("block", snapshot.Block).
		Str("merkle_root", root).
		Int("wallets", len(walletRows)).
		Int("identities", len(identityRows)).
		Msg("run complete")
	o.metrics.RecordRunResult(snapshot.Block, len(walletRows), len(identityRows), len(leaves), time.Now().Unix())

	return &RunResult{
		Block:      snapshot.Block,
		Timestamp:  snapshot.Timestamp,
		Wallets:    len(walletRows),
		Identities: len(identityRows),
		MerkleRoot: root,
	}, nil
}

// loadReference loads the token universe, season table and confirmed
// consolidation edges, and builds the identity clusters.
func (o *Orchestrator) loadReference(ctx context.Context) ([]domain.NFT, []domain.Season, []domain.Cluster, error) {
	nftPtrs, err := o.nftStore.GetAll(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load nfts: %w", err)
	}
	nfts := make([]domain.NFT, len(nftPtrs))
	for i, n := range nftPtrs {
		nfts[i] = *n
	}

	seasonPtrs, err := o.seasonStore.GetAll(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load seasons: %w", err)
	}
	seasonTable := make([]domain.Season, len(seasonPtrs))
	for i, s := range seasonPtrs {
		seasonTable[i] = *s
	}

	edges, err := o.edgeStore.GetConfirmed(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load edges: %w", err)
	}
	clusters := consolidation.BuildClusters(edges, consolidation.Options{
		MaxSize: o.maxClusterSize,
		Logger:  &o.logger,
	})
	return nfts, seasonTable, clusters, nil
}

// selectWallets picks the wallets a run recomputes. Full mode takes every
// wallet with transfer activity plus every clustered wallet; delta mode
// expands the seed wallets to the full membership of their identities.
func (o *Orchestrator) selectWallets(opts RunOptions, clusters []domain.Cluster, byWallet map[string][]*domain.TransferEvent) []string {
	selected := make(map[string]bool)

	if opts.Mode == ModeDelta {
		for _, seed := range opts.Wallets {
			c := consolidation.ClusterFor(clusters, seed)
			for _, w := range c.Wallets {
				selected[w] = true
			}
		}
	} else {
		for w := range byWallet {
			selected[w] = true
		}
		for _, c := range clusters {
			for _, w := range c.Wallets {
				selected[w] = true
			}
		}
	}

	wallets := make([]string, 0, len(selected))
	for w := range selected {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	return wallets
}

// scoreWallets fans scoring out over a bounded worker pool and waits for
// the full barrier. Any wallet failure aborts the whole run.
func (o *Orchestrator) scoreWallets(
	ctx context.Context,
	engine *score.Engine,
	wallets []string,
	clusters []domain.Cluster,
	byWallet map[string][]*domain.TransferEvent,
) (map[string]*domain.ScoreRecord, error) {
	pool := pond.NewPool(o.workers)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var mu sync.Mutex
	scored := make(map[string]*domain.ScoreRecord, len(wallets))

	for _, w := range wallets {
		wallet := w
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			members := consolidation.ClusterFor(clusters, wallet).Wallets
			rec, err := engine.ScoreWallet(wallet, members, identityTransfers(byWallet, members))
			if err != nil {
				return err
			}
			mu.Lock()
			scored[wallet] = rec
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// mergeIdentities produces the two table populations: wallet rows with any
// score or balance, and merged identity rows. Wallets outside every
// cluster become singleton identities.
func (o *Orchestrator) mergeIdentities(
	engine *score.Engine,
	clusters []domain.Cluster,
	wallets []string,
	scored map[string]*domain.ScoreRecord,
) (walletRows, identityRows []*domain.ScoreRecord) {
	merger := merge.NewMerger(engine)

	for _, w := range wallets {
		rec := scored[w]
		if rec == nil {
			continue
		}
		if rec.Balance == 0 && rec.BoostedTDH == 0 {
			continue
		}
		walletRows = append(walletRows, rec)
	}

	clustered := make(map[string]bool)
	for _, c := range clusters {
		var memberRecs []*domain.ScoreRecord
		scoredAny := false
		for _, w := range c.Wallets {
			clustered[w] = true
			if rec, ok := scored[w]; ok {
				memberRecs = append(memberRecs, rec)
				scoredAny = true
			}
		}
		if !scoredAny {
			continue
		}
		if merged := merger.Merge(c, memberRecs); merged != nil {
			identityRows = append(identityRows, merged)
		}
	}

	for _, w := range wallets {
		if clustered[w] {
			continue
		}
		rec := scored[w]
		if rec == nil {
			continue
		}
		single := domain.Cluster{Key: w, Wallets: []string{w}}
		if merged := merger.Merge(single, []*domain.ScoreRecord{rec}); merged != nil {
			identityRows = append(identityRows, merged)
		}
	}
	return walletRows, identityRows
}

// splice partitions the live table into rows unaffected by this delta run
// and the owner keys of affected rows. Affected prior rows are dropped in
// favor of the recomputed set; their keys feed the deletion list.
func (o *Orchestrator) splice(
	ctx context.Context,
	store storage.ScoreStore,
	recomputed []*domain.ScoreRecord,
	affected func(*domain.ScoreRecord) bool,
) (kept []*domain.ScoreRecord, removed []string, err error) {
	live, err := store.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	fresh := make(map[string]bool, len(recomputed))
	for _, rec := range recomputed {
		fresh[rec.OwnerKey] = true
	}
	for _, rec := range live {
		if !affected(rec) {
			kept = append(kept, rec)
			continue
		}
		if !fresh[rec.OwnerKey] {
			removed = append(removed, rec.OwnerKey)
		}
	}
	return kept, removed, nil
}

// persistInput carries one computed run into persistence.
type persistInput struct {
	mode     Mode
	snapshot domain.Snapshot

	// Combined table populations after ranking.
	walletRows   []*domain.ScoreRecord
	identityRows []*domain.ScoreRecord
	seasonRows   []*domain.SeasonScore

	// Rows recomputed by this run (equal to the combined populations in
	// full mode) and the owner keys a delta run removes.
	freshWallets      []*domain.ScoreRecord
	freshIdentities   []*domain.ScoreRecord
	removedWallets    []string
	removedIdentities []string
	priorIdentityKeys []string

	root string
}

// persist writes the computed run. Full runs replace the tables wholesale;
// delta runs upsert the recomputed rows and delete owners that dropped
// out. The edition audit table is only rebuilt on full runs, it has no
// per-owner replacement.
func (o *Orchestrator) persist(ctx context.Context, in persistInput) error {
	if in.mode == ModeFull {
		if err := o.walletScores.ReplaceAll(ctx, in.walletRows); err != nil {
			return fmt.Errorf("replace wallet scores: %w", err)
		}
		if err := o.identityScores.ReplaceAll(ctx, in.identityRows); err != nil {
			return fmt.Errorf("replace identity scores: %w", err)
		}
		if err := o.seasonScoreStore.ReplaceAll(ctx, in.seasonRows); err != nil {
			return fmt.Errorf("replace season scores: %w", err)
		}
		all := make([]*domain.ScoreRecord, 0, len(in.walletRows)+len(in.identityRows))
		all = append(all, in.walletRows...)
		all = append(all, in.identityRows...)
		if err := o.editionStore.ReplaceAll(ctx, editions.BuildRows(all)); err != nil {
			return fmt.Errorf("replace edition rows: %w", err)
		}
	} else {
		if err := o.walletScores.UpsertBulk(ctx, in.freshWallets); err != nil {
			return fmt.Errorf("upsert wallet scores: %w", err)
		}
		if len(in.removedWallets) > 0 {
			if err := o.walletScores.DeleteByOwnerKeys(ctx, in.removedWallets); err != nil {
				return fmt.Errorf("delete wallet scores: %w", err)
			}
		}

		if err := o.identityScores.UpsertBulk(ctx, in.freshIdentities); err != nil {
			return fmt.Errorf("upsert identity scores: %w", err)
		}
		if len(in.removedIdentities) > 0 {
			if err := o.identityScores.DeleteByOwnerKeys(ctx, in.removedIdentities); err != nil {
				return fmt.Errorf("delete identity scores: %w", err)
			}
		}

		// Season rows of every affected identity are rebuilt from scratch:
		// delete all of the owner's rows first so seasons it no longer
		// holds do not linger, then upsert the regenerated set.
		if len(in.priorIdentityKeys) > 0 {
			if err := o.seasonScoreStore.DeleteByOwnerKeys(ctx, in.priorIdentityKeys); err != nil {
				return fmt.Errorf("delete season scores: %w", err)
			}
		}
		freshKeys := make(map[string]bool, len(in.freshIdentities))
		for _, rec := range in.freshIdentities {
			freshKeys[rec.OwnerKey] = true
		}
		var freshSeasons []*domain.SeasonScore
		for _, row := range in.seasonRows {
			if freshKeys[row.OwnerKey] {
				freshSeasons = append(freshSeasons, row)
			}
		}
		if err := o.seasonScoreStore.UpsertBulk(ctx, freshSeasons); err != nil {
			return fmt.Errorf("upsert season scores: %w", err)
		}
	}

	err := o.blockStore.Insert(ctx, &domain.BlockRecord{
		Block:      in.snapshot.Block,
		Timestamp:  in.snapshot.Timestamp,
		MerkleRoot: in.root,
	})
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("insert block record: %w", err)
	}

	if o.uploader != nil {
		if _, err := o.uploader.Run(ctx, o.uploadPrefix, in.snapshot, in.identityRows); err != nil {
			return fmt.Errorf("archive artifact: %w", err)
		}
		o.metrics.RecordArtifactUploaded()
	}
	return nil
}

// affectedKeys lists the prior owner keys a delta run touches: the
// recomputed keys plus the removed ones.
func affectedKeys(recomputed []*domain.ScoreRecord, removed []string) []string {
	keys := make([]string, 0, len(recomputed)+len(removed))
	for _, rec := range recomputed {
		keys = append(keys, rec.OwnerKey)
	}
	keys = append(keys, removed...)
	return keys
}

// indexByWallet indexes transfers by each side's wallet, lowercased.
func indexByWallet(transfers []*domain.TransferEvent) map[string][]*domain.TransferEvent {
	idx := make(map[string][]*domain.TransferEvent)
	for _, tr := range transfers {
		from := strings.ToLower(tr.From)
		to := strings.ToLower(tr.To)
		idx[from] = append(idx[from], tr)
		if to != from {
			idx[to] = append(idx[to], tr)
		}
	}
	return idx
}

// identityTransfers unions the transfer histories of every identity
// member. Replay needs the members' events to track intra-identity moves.
func identityTransfers(byWallet map[string][]*domain.TransferEvent, members []string) []*domain.TransferEvent {
	if len(members) == 1 {
		return byWallet[strings.ToLower(members[0])]
	}
	seen := make(map[*domain.TransferEvent]bool)
	var out []*domain.TransferEvent
	for _, m := range members {
		for _, tr := range byWallet[strings.ToLower(m)] {
			if seen[tr] {
				continue
			}
			seen[tr] = true
			out = append(out, tr)
		}
	}
	return out
}
