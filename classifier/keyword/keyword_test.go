package keyword

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"paper-vault/classifier"
)

func TestMatchCountThreshold(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		matches int
	}{
		{
			name:    "no keywords",
			text:    "a short story about nothing in particular",
			matches: 0,
		},
		{
			name:    "single keyword is below threshold",
			text:    "the duration of the event was short",
			matches: 1,
		},
		{
			name:    "two keywords reach the threshold",
			text:    "duration: 3 hours, issued by the university",
			matches: 2,
		},
		{
			name:    "matching is case insensitive",
			text:    "DURATION: 3 HOURS, ISSUED BY THE UNIVERSITY",
			matches: 2,
		},
		{
			name:    "examination also counts as exam",
			text:    "final examination",
			matches: 2,
		},
		{
			name: "typical question paper header",
			text: "B.Tech examination 2023, paper code CS-301, full marks: 70, " +
				"duration: 3 hours, read the instructions carefully",
			matches: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, MatchCount(tt.text))
		})
	}
}

func TestMatchCountOnlyScansTextWindow(t *testing.T) {
	filler := strings.Repeat("zzzz ", 400) // deutlich über 1500 Zeichen
	assert.Zero(t, MatchCount(filler+"examination duration university"))
}

func TestClassifyRejectsNonPDFBytes(t *testing.T) {
	h := NewHeuristic(zap.NewNop())

	// Auch wenn der Inhalt nach Prüfungspapier klingt: ohne gültiges PDF
	// gibt es keine Auto-Freigabe.
	doc := classifier.Document{Data: []byte("examination duration university full marks")}
	assert.False(t, h.Classify(context.Background(), doc))
}

func TestClassifyRejectsCorruptPDF(t *testing.T) {
	h := NewHeuristic(zap.NewNop())

	doc := classifier.Document{Data: []byte("%PDF-1.7\nthis is not a real pdf body")}
	assert.False(t, h.Classify(context.Background(), doc))
}

func TestClassifyRejectsEmptyDocument(t *testing.T) {
	h := NewHeuristic(zap.NewNop())
	assert.False(t, h.Classify(context.Background(), classifier.Document{}))
}

func TestName(t *testing.T) {
	assert.Equal(t, "keyword", NewHeuristic(zap.NewNop()).Name())
}
