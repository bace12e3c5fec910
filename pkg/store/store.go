package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"kgqa/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrNotFound is returned by every operation that references a graph ID
// absent from the registry. No mutation is attempted in that case.
var ErrNotFound = errors.New("graph not found")

func newID() (string, error) {
	return gonanoid.New()
}

// Store is an in-memory registry of knowledge graphs keyed by graph ID.
//
// The registry map is guarded by its own lock; every graph additionally
// carries a per-graph RWMutex so that reads (query, summary, list) can run
// concurrently while mutations hold exclusive access to the one graph they
// touch. No operation mutates more than one graph at a time.
type Store struct {
	mu     sync.RWMutex
	graphs map[string]*graphEntry
}

type graphEntry struct {
	mu    sync.RWMutex
	graph *common.Graph
}

// New creates an empty Store. A single Store is constructed at process start
// and injected into the builder and router; it lives for the process
// lifetime.
func New() *Store {
	return &Store{
		graphs: make(map[string]*graphEntry),
	}
}

// Create registers a fresh, empty graph and returns its generated ID.
// IDs are nanoids and are never reused, not even after a deletion.
func (s *Store) Create(description string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate graph ID: %w", err)
	}

	g := &common.Graph{
		ID:          id,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Entities:    make(map[string]*common.Entity),
		Edges:       make(map[string]*common.Edge),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[id] = &graphEntry{graph: g}

	return id, nil
}

func (s *Store) lookup(id string) (*graphEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.graphs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// View runs fn with shared (read) access to the graph. The graph must not be
// mutated through the pointer; the shared lock only guarantees fn never
// observes a half-applied merge.
func (s *Store) View(id string, fn func(g *common.Graph) error) error {
	entry, err := s.lookup(id)
	if err != nil {
		return err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return fn(entry.graph)
}

// Update runs fn with exclusive access to the graph. This is the per-graph
// critical section: everything fn applies becomes visible to readers
// atomically when it returns.
func (s *Store) Update(id string, fn func(g *common.Graph) error) error {
	entry, err := s.lookup(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.graph)
}

// UpsertEntity records a surface form in the graph, merging it into the
// existing entity when the canonical key is already present. The returned
// entity is a detached copy.
func (s *Store) UpsertEntity(graphID, surface, entityType string) (common.Entity, error) {
	var out common.Entity
	err := s.Update(graphID, func(g *common.Graph) error {
		e, err := upsertEntity(g, surface, entityType, newID)
		if err != nil {
			return err
		}
		out = *e
		return nil
	})
	return out, err
}

// UpsertEdge inserts a directed relation into the graph, applying the merge
// rule for edges: an existing (subject, label, object) edge keeps the
// maximum confidence and collects the new snippet. Missing endpoint entities
// are created implicitly.
func (s *Store) UpsertEdge(graphID, subject, label, object string, confidence float64, snippet string) (common.Edge, error) {
	var out common.Edge
	err := s.Update(graphID, func(g *common.Graph) error {
		e, err := upsertEdge(g, subject, label, object, confidence, snippet, newID)
		if err != nil {
			return err
		}
		out = *e
		return nil
	})
	return out, err
}

// ApplyText applies the surviving triples of one ingested text in a single
// exclusive section and bumps the graph's text counter. Every ID the triples
// could need is generated up front, so a generation failure aborts before the
// graph is touched and the text lands fully or not at all.
func (s *Store) ApplyText(graphID string, triples []common.Triple) error {
	// Worst case per triple: two new endpoint entities plus one new edge.
	ids := make([]string, 0, 3*len(triples))
	for range 3 * len(triples) {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate IDs: %w", err)
		}
		ids = append(ids, id)
	}
	nextID := func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	return s.Update(graphID, func(g *common.Graph) error {
		for _, t := range triples {
			if _, err := upsertEdge(g, t.Subject, t.Label, t.Object, t.Confidence, t.Snippet, nextID); err != nil {
				return err
			}
		}
		g.TextCount++
		return nil
	})
}

// Summary returns the digest of one graph, including its top entities by
// edge degree.
func (s *Store) Summary(id string) (common.GraphSummary, error) {
	var summary common.GraphSummary
	err := s.View(id, func(g *common.Graph) error {
		summary = summarize(g)
		summary.TopEntities = topEntities(g, 5)
		return nil
	})
	return summary, err
}

// List returns the digests of all graphs, ordered by creation time.
func (s *Store) List() []common.GraphSummary {
	s.mu.RLock()
	entries := make([]*graphEntry, 0, len(s.graphs))
	for _, entry := range s.graphs {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	summaries := make([]common.GraphSummary, 0, len(entries))
	for _, entry := range entries {
		entry.mu.RLock()
		summaries = append(summaries, summarize(entry.graph))
		entry.mu.RUnlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// Delete removes a graph with all of its entities and edges atomically.
// It reports whether a graph was actually removed; deleting an unknown or
// already-deleted ID returns false, not an error.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[id]; !ok {
		return false
	}
	delete(s.graphs, id)
	return true
}

func summarize(g *common.Graph) common.GraphSummary {
	return common.GraphSummary{
		ID:          g.ID,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
		EntityCount: len(g.Entities),
		EdgeCount:   len(g.Edges),
		TextCount:   g.TextCount,
	}
}

func topEntities(g *common.Graph, limit int) []common.RankedEntity {
	ranked := make([]common.RankedEntity, 0, len(g.Entities))
	for key, e := range g.Entities {
		ranked = append(ranked, common.RankedEntity{
			Name:  e.Name,
			Edges: Degree(g, key),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Edges == ranked[j].Edges {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].Edges > ranked[j].Edges
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if len(ranked) == 0 {
		return nil
	}
	return ranked
}

// Degree counts the edges attached to the entity with the given canonical
// key, in either direction. The caller must hold at least a shared lock on
// the graph.
func Degree(g *common.Graph, key string) int {
	degree := 0
	for _, e := range g.Edges {
		if e.Subject == key || e.Object == key {
			degree++
		}
	}
	return degree
}

func upsertEntity(g *common.Graph, surface, entityType string, nextID func() (string, error)) (*common.Entity, error) {
	key := common.CanonicalKey(surface)
	if key == "" {
		return nil, fmt.Errorf("empty entity surface form")
	}
	if entityType == "" {
		entityType = "unknown"
	}

	if existing, ok := g.Entities[key]; ok {
		hasSurface := false
		for _, s := range existing.Surfaces {
			if s == surface {
				hasSurface = true
				break
			}
		}
		if !hasSurface {
			existing.Surfaces = append(existing.Surfaces, surface)
		}
		if existing.Type == "unknown" && entityType != "unknown" {
			existing.Type = entityType
		}
		return existing, nil
	}

	id, err := nextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate entity ID: %w", err)
	}
	e := &common.Entity{
		ID:        id,
		Key:       key,
		Name:      surface,
		Type:      entityType,
		Surfaces:  []string{surface},
		FirstSeen: time.Now().UTC(),
	}
	g.Entities[key] = e
	return e, nil
}

func upsertEdge(g *common.Graph, subject, label, object string, confidence float64, snippet string, nextID func() (string, error)) (*common.Edge, error) {
	subjectEntity, err := upsertEntity(g, subject, "", nextID)
	if err != nil {
		return nil, err
	}
	objectEntity, err := upsertEntity(g, object, "", nextID)
	if err != nil {
		return nil, err
	}

	confidence = clamp01(confidence)
	key := common.EdgeKey(subjectEntity.Key, label, objectEntity.Key)

	if existing, ok := g.Edges[key]; ok {
		if confidence > existing.Confidence {
			existing.Confidence = confidence
		}
		if snippet != "" {
			existing.Snippets = append(existing.Snippets, snippet)
		}
		return existing, nil
	}

	id, err := nextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate edge ID: %w", err)
	}
	e := &common.Edge{
		ID:         id,
		Subject:    subjectEntity.Key,
		Label:      label,
		Object:     objectEntity.Key,
		Confidence: confidence,
	}
	if snippet != "" {
		e.Snippets = []string{snippet}
	}
	g.Edges[key] = e
	return e, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
