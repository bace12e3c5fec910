package common

import (
	"strings"
	"time"
)

// Question categories assigned by the intent classifier. A question that
// matches none of the classification rules is CategoryUnknown, which is a
// recognized outcome rather than an error.
const (
	CategoryEntityLookup       = "entity_lookup"
	CategoryRelationshipLookup = "relationship_lookup"
	CategoryAggregation        = "aggregation"
	CategoryUnknown            = "unknown"
)

// Triple is a single extraction candidate: two entity surface forms joined
// by a relation label, with the confidence assigned by the matching rule and
// the sentence it was extracted from as provenance.
type Triple struct {
	Subject    string  `json:"subject"`
	Label      string  `json:"label"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
	Snippet    string  `json:"snippet"`
}

// Entity represents a node in a knowledge graph. Entities are deduplicated
// per graph by their canonical key; every surface form that folds to the
// same key is recorded in Surfaces, and the first form seen becomes the
// display name.
type Entity struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Surfaces  []string  `json:"surfaces"`
	FirstSeen time.Time `json:"first_seen"`
}

// Edge represents a directed relation between two entities of the same
// graph. Subject and Object hold canonical entity keys. Edges with the same
// (subject, label, object) collapse into one edge carrying the maximum
// confidence and every provenance snippet; the same entity pair under a
// different label stays a separate parallel edge.
type Edge struct {
	ID         string   `json:"id"`
	Subject    string   `json:"subject"`
	Label      string   `json:"label"`
	Object     string   `json:"object"`
	Confidence float64  `json:"confidence"`
	Snippets   []string `json:"snippets"`
}

// Graph is a directed multigraph of entities and relation edges built from
// ingested texts. Entities are keyed by canonical name, edges by the
// subject|label|object tuple. A graph owns its entities and edges
// exclusively; nothing is shared across graphs.
type Graph struct {
	ID          string
	Description string
	CreatedAt   time.Time
	Entities    map[string]*Entity
	Edges       map[string]*Edge
	TextCount   int
}

// RankedEntity pairs an entity display name with its edge degree, used for
// the "top entities" section of a graph summary.
type RankedEntity struct {
	Name  string `json:"name"`
	Edges int    `json:"edges"`
}

// GraphSummary is the read-only digest of a graph exposed by the list and
// summary operations.
type GraphSummary struct {
	ID          string         `json:"graph_id"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	EntityCount int            `json:"entity_count"`
	EdgeCount   int            `json:"edge_count"`
	TextCount   int            `json:"text_count"`
	TopEntities []RankedEntity `json:"top_entities,omitempty"`
}

// BuildSummary reports the outcome of one ingest call. A batch in which no
// text produced a triple is still a successful build; it simply adds
// nothing, which the counters make visible.
type BuildSummary struct {
	EntityCount      int `json:"entity_count"`
	EdgeCount        int `json:"edge_count"`
	TextsProcessed   int `json:"texts_processed"`
	TriplesAdded     int `json:"triples_added"`
	TriplesDiscarded int `json:"triples_discarded"`
}

// QueryResult is the answer produced by the query router: the synthesized
// answer text, the traversal category that produced it, the nodes and edges
// visited as evidence, and a confidence indicator derived from the evidence.
type QueryResult struct {
	Answer     string   `json:"answer"`
	Category   string   `json:"category"`
	Entities   []Entity `json:"entities"`
	Edges      []Edge   `json:"edges"`
	Confidence float64  `json:"confidence"`
}

// CanonicalKey folds a surface form into the canonical entity key used for
// deduplication: lower-cased with all whitespace runs collapsed to single
// spaces.
func CanonicalKey(surface string) string {
	return strings.Join(strings.Fields(strings.ToLower(surface)), " ")
}

// EdgeKey builds the identity of an edge from the canonical keys of its
// endpoints and its relation label.
func EdgeKey(subjectKey, label, objectKey string) string {
	return subjectKey + "|" + label + "|" + objectKey
}
