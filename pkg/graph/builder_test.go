package graph

import (
	"context"
	"errors"
	"testing"

	"kgqa/pkg/common"
	"kgqa/pkg/store"
)

func newTestBuilder(t *testing.T, params BuilderParams) (*Builder, *store.Store) {
	t.Helper()
	st := store.New()
	params.TokenEncoder = "missing-encoding"
	return NewBuilder(st, params), st
}

func TestBuildOrUpdateCreatesGraph(t *testing.T) {
	b, st := newTestBuilder(t, BuilderParams{})

	texts := []string{
		"Google was founded by Larry Page and Sergey Brin.",
		"Larry Page works at Google.",
	}
	id, summary, err := b.BuildOrUpdate(context.Background(), texts, "test graph", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a graph ID")
	}

	if summary.TextsProcessed != 2 {
		t.Fatalf("expected 2 processed texts, got %d", summary.TextsProcessed)
	}
	if summary.TriplesAdded != 3 {
		t.Fatalf("expected 3 added triples, got %d", summary.TriplesAdded)
	}
	if summary.EntityCount != 3 {
		t.Fatalf("expected 3 entities, got %d", summary.EntityCount)
	}
	if summary.EdgeCount != 3 {
		t.Fatalf("expected 3 edges, got %d", summary.EdgeCount)
	}

	got, err := st.Summary(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Description != "test graph" {
		t.Fatalf("unexpected description: %q", got.Description)
	}
	if got.TextCount != 2 {
		t.Fatalf("expected text count 2, got %d", got.TextCount)
	}
}

func TestBuildOrUpdateIdempotent(t *testing.T) {
	b, st := newTestBuilder(t, BuilderParams{})
	texts := []string{"Google was founded by Larry Page and Sergey Brin."}

	id, first, err := b.BuildOrUpdate(context.Background(), texts, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, second, err := b.BuildOrUpdate(context.Background(), texts, "", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.EntityCount != first.EntityCount || second.EdgeCount != first.EdgeCount {
		t.Fatalf("re-ingest changed counts: first %+v, second %+v", first, second)
	}

	// Provenance still grows: the merged edges collect the repeated snippet.
	err = st.View(id, func(g *common.Graph) error {
		for _, e := range g.Edges {
			if len(e.Snippets) != 2 {
				t.Fatalf("expected 2 snippets on edge %s, got %d", e.ID, len(e.Snippets))
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildOrUpdateOrderIndependent(t *testing.T) {
	texts := []string{
		"Google was founded by Larry Page and Sergey Brin.",
		"Larry Page works at Google.",
		"Sergey Brin lives in California.",
	}
	reversed := []string{texts[2], texts[1], texts[0]}

	b, st := newTestBuilder(t, BuilderParams{ParallelTexts: 1})

	idA, _, err := b.BuildOrUpdate(context.Background(), texts, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idB, _, err := b.BuildOrUpdate(context.Background(), reversed, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edgeSet := func(id string) map[string]float64 {
		edges := make(map[string]float64)
		err := st.View(id, func(g *common.Graph) error {
			for key, e := range g.Edges {
				edges[key] = e.Confidence
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return edges
	}

	edgesA, edgesB := edgeSet(idA), edgeSet(idB)
	if len(edgesA) != len(edgesB) {
		t.Fatalf("edge counts differ: %d vs %d", len(edgesA), len(edgesB))
	}
	for key, conf := range edgesA {
		if edgesB[key] != conf {
			t.Fatalf("edge %s differs: %v vs %v", key, conf, edgesB[key])
		}
	}
}

func TestBuildOrUpdateThreshold(t *testing.T) {
	b, _ := newTestBuilder(t, BuilderParams{MinConfidence: 0.99})

	_, summary, err := b.BuildOrUpdate(context.Background(), []string{"Google has Android."}, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TriplesAdded != 0 {
		t.Fatalf("expected no added triples, got %d", summary.TriplesAdded)
	}
	if summary.TriplesDiscarded != 1 {
		t.Fatalf("expected 1 discarded triple, got %d", summary.TriplesDiscarded)
	}
	if summary.EntityCount != 0 || summary.EdgeCount != 0 {
		t.Fatalf("expected an empty graph, got %+v", summary)
	}
}

func TestBuildOrUpdateEmptyYield(t *testing.T) {
	b, _ := newTestBuilder(t, BuilderParams{})

	id, summary, err := b.BuildOrUpdate(context.Background(), []string{"Nothing noteworthy here."}, "", "")
	if err != nil {
		t.Fatalf("expected success on zero-yield batch, got %v", err)
	}
	if id == "" {
		t.Fatal("expected a graph ID")
	}
	if summary.TriplesAdded != 0 || summary.EdgeCount != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
	if summary.TextsProcessed != 1 {
		t.Fatalf("expected 1 processed text, got %d", summary.TextsProcessed)
	}
}

func TestBuildOrUpdateErrors(t *testing.T) {
	b, _ := newTestBuilder(t, BuilderParams{})

	t.Run("empty batch", func(t *testing.T) {
		_, _, err := b.BuildOrUpdate(context.Background(), nil, "", "")
		if !errors.Is(err, ErrEmptyBatch) {
			t.Fatalf("expected ErrEmptyBatch, got %v", err)
		}
	})

	t.Run("unknown graph", func(t *testing.T) {
		_, _, err := b.BuildOrUpdate(context.Background(), []string{"Alice works at Acme."}, "", "missing")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
