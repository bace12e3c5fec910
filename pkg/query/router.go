package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"kgqa/pkg/common"
	"kgqa/pkg/logger"
	"kgqa/pkg/store"
)

// DefaultHopLimit bounds relationship traversals when no limit is configured.
const DefaultHopLimit = 1

const unknownAnswer = "Cannot determine the question type."

// Router answers natural language questions against a stored graph. It
// classifies the question, resolves the anchors it mentions, runs the
// traversal strategy for the category, and synthesizes an answer with the
// visited nodes and edges as evidence.
//
// All graph access happens under the store's shared lock; the returned
// evidence is detached copies, never live graph pointers.
type Router struct {
	store    *store.Store
	hopLimit int
}

// NewRouter creates a Router reading from the given store. A non-positive
// hopLimit falls back to DefaultHopLimit.
func NewRouter(st *store.Store, hopLimit int) *Router {
	if hopLimit <= 0 {
		hopLimit = DefaultHopLimit
	}
	return &Router{store: st, hopLimit: hopLimit}
}

// Answer classifies the question and answers it against the graph identified
// by graphID. An unknown graph ID fails with store.ErrNotFound. A question
// that matches no classification rule is not an error: it yields the fixed
// fallback answer under CategoryUnknown with empty evidence.
func (r *Router) Answer(ctx context.Context, graphID, question string) (*common.QueryResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	intent := Classify(question)

	var result *common.QueryResult
	err := r.store.View(graphID, func(g *common.Graph) error {
		switch intent.Category {
		case common.CategoryEntityLookup:
			result = entityLookup(g, intent)
		case common.CategoryRelationshipLookup:
			result = r.relationshipLookup(g, intent)
		case common.CategoryAggregation:
			result = aggregate(g, intent)
		default:
			result = &common.QueryResult{
				Answer:   unknownAnswer,
				Category: common.CategoryUnknown,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("[Router] Answered",
		"graph_id", graphID,
		"category", result.Category,
		"confidence", result.Confidence,
	)
	return result, nil
}

func entityLookup(g *common.Graph, intent Intent) *common.QueryResult {
	result := &common.QueryResult{Category: common.CategoryEntityLookup}

	anchor := firstAnchor(intent)
	entity, ok := resolveAnchor(g, anchor)
	if !ok {
		result.Answer = fmt.Sprintf("No entity matching %q was found in this graph.", anchor)
		return result
	}

	result.Entities = append(result.Entities, entityCopy(entity))

	edges := adjacentEdges(g, entity.Key)
	if len(edges) == 0 {
		result.Answer = fmt.Sprintf("%s appears in the graph but has no recorded relations.", entity.Name)
		result.Confidence = 0.25
		return result
	}

	statements := make([]string, 0, len(edges))
	maxConfidence := 0.0
	for _, e := range edges {
		result.Edges = append(result.Edges, edgeCopy(e))
		statements = append(statements, describeEdge(g, e))
		if e.Confidence > maxConfidence {
			maxConfidence = e.Confidence
		}
	}

	result.Answer = fmt.Sprintf("%s: %s.", entity.Name, strings.Join(statements, "; "))
	result.Confidence = maxConfidence
	return result
}

func (r *Router) relationshipLookup(g *common.Graph, intent Intent) *common.QueryResult {
	if len(intent.Anchors) >= 2 {
		return r.relationshipBetween(g, intent.Anchors[0], intent.Anchors[1])
	}
	return r.relatedEntities(g, intent)
}

// relatedEntities answers single-anchor relationship questions ("who founded
// X") over the edges reachable within the hop limit. Edges matching the
// question's relation terms take priority; when none match, every reachable
// edge is considered instead at halved confidence.
func (r *Router) relatedEntities(g *common.Graph, intent Intent) *common.QueryResult {
	result := &common.QueryResult{Category: common.CategoryRelationshipLookup}

	anchor := firstAnchor(intent)
	entity, ok := resolveAnchor(g, anchor)
	if !ok {
		result.Answer = fmt.Sprintf("No entity matching %q was found in this graph.", anchor)
		return result
	}
	result.Entities = append(result.Entities, entityCopy(entity))

	reachable := edgesWithinHops(g, entity.Key, r.hopLimit)
	matched := filterByLabel(reachable, intent.LabelTerms)

	fallback := false
	if len(matched) == 0 {
		matched = reachable
		fallback = true
	}
	if len(matched) == 0 {
		result.Answer = fmt.Sprintf("%s has no recorded relations.", entity.Name)
		return result
	}

	var names []string
	seen := make(map[string]struct{})
	maxConfidence := 0.0
	for _, e := range matched {
		result.Edges = append(result.Edges, edgeCopy(e))
		if e.Confidence > maxConfidence {
			maxConfidence = e.Confidence
		}

		for _, endpoint := range []string{e.Subject, e.Object} {
			if endpoint == entity.Key {
				continue
			}
			name := displayName(g, endpoint)
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)

	result.Answer = strings.Join(names, ", ")
	result.Confidence = maxConfidence
	if fallback {
		result.Confidence = maxConfidence / 2
	}
	return result
}

// relationshipBetween answers two-anchor questions by looking for a direct
// edge in either direction first, then for a bounded undirected path.
func (r *Router) relationshipBetween(g *common.Graph, from, to string) *common.QueryResult {
	result := &common.QueryResult{Category: common.CategoryRelationshipLookup}

	fromEntity, okFrom := resolveAnchor(g, from)
	if !okFrom {
		result.Answer = fmt.Sprintf("No entity matching %q was found in this graph.", from)
		return result
	}
	toEntity, okTo := resolveAnchor(g, to)
	if !okTo {
		result.Answer = fmt.Sprintf("No entity matching %q was found in this graph.", to)
		return result
	}

	result.Entities = append(result.Entities, entityCopy(fromEntity), entityCopy(toEntity))

	path := shortestPath(g, fromEntity.Key, toEntity.Key, r.hopLimit)
	if len(path) == 0 {
		result.Answer = fmt.Sprintf("No relationship between %s and %s was found within %d hops.",
			fromEntity.Name, toEntity.Name, r.hopLimit)
		return result
	}

	statements := make([]string, 0, len(path))
	minConfidence := 1.0
	for _, e := range path {
		result.Edges = append(result.Edges, edgeCopy(e))
		statements = append(statements, describeEdge(g, e))
		if e.Confidence < minConfidence {
			minConfidence = e.Confidence
		}
	}

	result.Answer = strings.Join(statements, "; ") + "."
	result.Confidence = minConfidence
	return result
}

func aggregate(g *common.Graph, intent Intent) *common.QueryResult {
	result := &common.QueryResult{
		Category:   common.CategoryAggregation,
		Confidence: 1.0,
	}

	switch intent.Aggregate {
	case AggregateEntities:
		result.Answer = fmt.Sprintf("%d", len(g.Entities))
	case AggregateEdges:
		result.Answer = fmt.Sprintf("%d", len(g.Edges))
	default:
		count := 0
		for _, e := range sortedEdges(g) {
			if matchesLabel(e.Label, intent.LabelTerms) {
				count++
				result.Edges = append(result.Edges, edgeCopy(e))
			}
		}
		result.Answer = fmt.Sprintf("%d", count)
	}
	return result
}

func firstAnchor(intent Intent) string {
	if len(intent.Anchors) == 0 {
		return ""
	}
	return intent.Anchors[0]
}

// resolveAnchor maps a question's surface form onto a graph entity: exact
// canonical key match first, then substring containment in either direction
// over keys and recorded surface forms. Substring ties resolve to the entity
// with the highest edge degree, then the lexicographically smallest key.
func resolveAnchor(g *common.Graph, anchor string) (*common.Entity, bool) {
	anchorKey := common.CanonicalKey(anchor)
	if anchorKey == "" {
		return nil, false
	}

	if e, ok := g.Entities[anchorKey]; ok {
		return e, true
	}

	var best *common.Entity
	bestDegree := -1
	for _, key := range sortedEntityKeys(g) {
		e := g.Entities[key]
		if !entityMatches(e, anchorKey) {
			continue
		}
		degree := store.Degree(g, key)
		if degree > bestDegree {
			best = e
			bestDegree = degree
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func entityMatches(e *common.Entity, anchorKey string) bool {
	if strings.Contains(e.Key, anchorKey) || strings.Contains(anchorKey, e.Key) {
		return true
	}
	for _, surface := range e.Surfaces {
		surfaceKey := common.CanonicalKey(surface)
		if strings.Contains(surfaceKey, anchorKey) || strings.Contains(anchorKey, surfaceKey) {
			return true
		}
	}
	return false
}

// shortestPath finds the shortest undirected edge path between two entities,
// bounded by maxHops. It returns nil when no path exists within the bound.
func shortestPath(g *common.Graph, fromKey, toKey string, maxHops int) []*common.Edge {
	if fromKey == toKey {
		return nil
	}

	type step struct {
		key  string
		via  *common.Edge
		prev *step
	}

	visited := map[string]struct{}{fromKey: {}}
	frontier := []*step{{key: fromKey}}
	edges := sortedEdges(g)

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []*step
		for _, cur := range frontier {
			for _, e := range edges {
				var neighbor string
				switch cur.key {
				case e.Subject:
					neighbor = e.Object
				case e.Object:
					neighbor = e.Subject
				default:
					continue
				}
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}

				s := &step{key: neighbor, via: e, prev: cur}
				if neighbor == toKey {
					var path []*common.Edge
					for at := s; at.via != nil; at = at.prev {
						path = append([]*common.Edge{at.via}, path...)
					}
					return path
				}
				next = append(next, s)
			}
		}
		frontier = next
	}
	return nil
}

// edgesWithinHops collects every edge reachable from the entity in at most
// maxHops undirected steps, each edge once, in deterministic order.
func edgesWithinHops(g *common.Graph, fromKey string, maxHops int) []*common.Edge {
	visited := map[string]struct{}{fromKey: {}}
	frontier := []string{fromKey}
	edges := sortedEdges(g)
	taken := make(map[string]struct{})

	var collected []*common.Edge
	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, key := range frontier {
			for _, e := range edges {
				var neighbor string
				switch key {
				case e.Subject:
					neighbor = e.Object
				case e.Object:
					neighbor = e.Subject
				default:
					continue
				}

				edgeKey := common.EdgeKey(e.Subject, e.Label, e.Object)
				if _, dup := taken[edgeKey]; !dup {
					taken[edgeKey] = struct{}{}
					collected = append(collected, e)
				}
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return collected
}

func adjacentEdges(g *common.Graph, key string) []*common.Edge {
	var edges []*common.Edge
	for _, e := range sortedEdges(g) {
		if e.Subject == key || e.Object == key {
			edges = append(edges, e)
		}
	}
	return edges
}

func filterByLabel(edges []*common.Edge, terms []string) []*common.Edge {
	if len(terms) == 0 {
		return nil
	}
	var matched []*common.Edge
	for _, e := range edges {
		if matchesLabel(e.Label, terms) {
			matched = append(matched, e)
		}
	}
	return matched
}

func matchesLabel(label string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		if term != "" && strings.Contains(label, term) {
			return true
		}
	}
	return false
}

func describeEdge(g *common.Graph, e *common.Edge) string {
	label := strings.ReplaceAll(e.Label, "_", " ")
	return fmt.Sprintf("%s %s %s", displayName(g, e.Subject), label, displayName(g, e.Object))
}

func displayName(g *common.Graph, key string) string {
	if e, ok := g.Entities[key]; ok {
		return e.Name
	}
	return key
}

// sortedEdges returns the graph's edges in a deterministic order so that
// answers and evidence never depend on map iteration.
func sortedEdges(g *common.Graph) []*common.Edge {
	edges := make([]*common.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		ki := common.EdgeKey(edges[i].Subject, edges[i].Label, edges[i].Object)
		kj := common.EdgeKey(edges[j].Subject, edges[j].Label, edges[j].Object)
		return ki < kj
	})
	return edges
}

func sortedEntityKeys(g *common.Graph) []string {
	keys := make([]string, 0, len(g.Entities))
	for key := range g.Entities {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func entityCopy(e *common.Entity) common.Entity {
	out := *e
	out.Surfaces = append([]string(nil), e.Surfaces...)
	return out
}

func edgeCopy(e *common.Edge) common.Edge {
	out := *e
	out.Snippets = append([]string(nil), e.Snippets...)
	return out
}
