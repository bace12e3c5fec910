package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"kgqa/pkg/common"
	"kgqa/pkg/logger"
	"kgqa/pkg/store"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyBatch is returned when an ingest call carries no texts at all.
// The batch is rejected before any graph is created or mutated.
var ErrEmptyBatch = errors.New("empty text batch")

// Defaults applied by NewBuilder when a parameter is unset.
const (
	DefaultMinConfidence = 0.5
	DefaultParallelTexts = 4
	DefaultMaxUnitTokens = 600
	DefaultTokenEncoder  = "o200k_base"
)

// Builder turns batches of free-form text into knowledge graph content.
// It runs the extractor over each text, discards candidates below the
// confidence threshold, and applies each text's surviving triples to the
// store as one atomic step.
//
// A Builder should be created with NewBuilder and can be shared across
// requests.
type Builder struct {
	store         *store.Store
	minConfidence float64
	parallelTexts int
	tokenEncoder  string
	maxUnitTokens int
}

// BuilderParams configures a new Builder. Zero values fall back to the
// package defaults.
type BuilderParams struct {
	MinConfidence float64
	ParallelTexts int
	TokenEncoder  string
	MaxUnitTokens int
}

// NewBuilder creates a Builder writing to the given store.
func NewBuilder(st *store.Store, params BuilderParams) *Builder {
	b := &Builder{
		store:         st,
		minConfidence: params.MinConfidence,
		parallelTexts: params.ParallelTexts,
		tokenEncoder:  params.TokenEncoder,
		maxUnitTokens: params.MaxUnitTokens,
	}
	if b.minConfidence <= 0 {
		b.minConfidence = DefaultMinConfidence
	}
	if b.parallelTexts <= 0 {
		b.parallelTexts = DefaultParallelTexts
	}
	if b.tokenEncoder == "" {
		b.tokenEncoder = DefaultTokenEncoder
	}
	if b.maxUnitTokens <= 0 {
		b.maxUnitTokens = DefaultMaxUnitTokens
	}
	return b
}

// BuildOrUpdate ingests a batch of texts into the graph identified by
// graphID, creating a fresh graph first when graphID is empty. Texts are
// processed in parallel, but each text's triples are applied to the graph
// in a single exclusive section, so concurrent ingests targeting the same
// graph never interleave half-applied merges.
//
// Blank texts are skipped silently. A batch whose texts all yield zero
// triples still succeeds; the summary carries the zero counts. An empty
// batch fails with ErrEmptyBatch, an unknown graphID with store.ErrNotFound,
// both before any mutation.
func (b *Builder) BuildOrUpdate(
	ctx context.Context,
	texts []string,
	description string,
	graphID string,
) (string, *common.BuildSummary, error) {
	if len(texts) == 0 {
		return "", nil, ErrEmptyBatch
	}

	created := false
	if graphID == "" {
		id, err := b.store.Create(description)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create graph: %w", err)
		}
		graphID = id
		created = true
	} else if err := b.store.View(graphID, func(*common.Graph) error { return nil }); err != nil {
		return "", nil, err
	}

	logger.Info("[Builder] Ingesting", "graph_id", graphID, "texts", len(texts), "created", created)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.parallelTexts)

	var mu sync.Mutex
	processed := 0
	added := 0
	discarded := 0

	for _, text := range texts {
		t := strings.TrimSpace(text)
		if t == "" {
			continue
		}
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			var kept []common.Triple
			skipped := 0
			for _, unit := range unitsFromText(t, b.tokenEncoder, b.maxUnitTokens) {
				for _, triple := range extractFromSentences(unit.sentences, nil) {
					if triple.Confidence < b.minConfidence {
						skipped++
						continue
					}
					kept = append(kept, triple)
				}
			}

			if err := b.store.ApplyText(graphID, kept); err != nil {
				return fmt.Errorf("failed to apply text: %w", err)
			}

			mu.Lock()
			processed++
			added += len(kept)
			discarded += skipped
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return "", nil, err
	}

	graphSummary, err := b.store.Summary(graphID)
	if err != nil {
		return "", nil, err
	}

	summary := &common.BuildSummary{
		EntityCount:      graphSummary.EntityCount,
		EdgeCount:        graphSummary.EdgeCount,
		TextsProcessed:   processed,
		TriplesAdded:     added,
		TriplesDiscarded: discarded,
	}

	logger.Info("[Builder] Ingest completed",
		"graph_id", graphID,
		"entities", summary.EntityCount,
		"edges", summary.EdgeCount,
		"discarded", summary.TriplesDiscarded,
	)

	return graphID, summary, nil
}
