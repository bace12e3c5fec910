package query

import (
	"reflect"
	"testing"

	"kgqa/pkg/common"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     Intent
	}{
		{
			name:     "who is",
			question: "Who is Larry Page?",
			want: Intent{
				Category: common.CategoryEntityLookup,
				Anchors:  []string{"Larry Page"},
			},
		},
		{
			name:     "what is",
			question: "What is Google?",
			want: Intent{
				Category: common.CategoryEntityLookup,
				Anchors:  []string{"Google"},
			},
		},
		{
			name:     "who founded",
			question: "Who founded Google?",
			want: Intent{
				Category:   common.CategoryRelationshipLookup,
				Anchors:    []string{"Google"},
				LabelTerms: []string{"found"},
			},
		},
		{
			name:     "what created",
			question: "what created the internet",
			want: Intent{
				Category:   common.CategoryRelationshipLookup,
				Anchors:    []string{"the internet"},
				LabelTerms: []string{"creat"},
			},
		},
		{
			name:     "relationship between",
			question: "What is the relationship between Larry Page and Google?",
			want: Intent{
				Category: common.CategoryRelationshipLookup,
				Anchors:  []string{"Larry Page", "Google"},
			},
		},
		{
			name:     "related to",
			question: "How is Android related to Google?",
			want: Intent{
				Category: common.CategoryRelationshipLookup,
				Anchors:  []string{"Android", "Google"},
			},
		},
		{
			name:     "how many entities",
			question: "How many entities are in the graph?",
			want: Intent{
				Category:  common.CategoryAggregation,
				Aggregate: AggregateEntities,
			},
		},
		{
			name:     "how many relations",
			question: "How many relations does the graph have?",
			want: Intent{
				Category:  common.CategoryAggregation,
				Aggregate: AggregateEdges,
			},
		},
		{
			name:     "how many by label",
			question: "How many founded?",
			want: Intent{
				Category:   common.CategoryAggregation,
				Aggregate:  AggregateLabel,
				LabelTerms: []string{"found"},
			},
		},
		{
			name:     "unclassified statement",
			question: "Tell me about Google",
			want: Intent{
				Category: common.CategoryUnknown,
				Anchors:  []string{"Tell", "Google"},
			},
		},
		{
			name:     "empty question",
			question: "",
			want: Intent{
				Category: common.CategoryUnknown,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.question)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("unexpected intent:\ngot  %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"founded", "found"},
		{"created", "creat"},
		{"owns", "own"},
		{"runs", "run"},
		{"building", "build"},
		{"has", "has"},
		{"is", "is"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := stem(tt.word); got != tt.want {
				t.Fatalf("stem(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}
