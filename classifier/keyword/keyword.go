package keyword

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"paper-vault/classifier"
)

// keywords sind die Begriffe, die auf ein echtes Prüfungspapier hindeuten.
var keywords = []string{
	"time",
	"full marks",
	"maximum marks",
	"duration",
	"semester",
	"examination",
	"exam",
	"question paper",
	"paper code",
	"university",
	"instructions",
}

const (
	// textWindow begrenzt die Analyse auf den Anfang des Dokuments.
	textWindow = 1500
	// minMatches ist die Schwelle für eine positive Klassifikation.
	minMatches = 2
)

// Heuristic klassifiziert Einreichungen offline über eine Keyword-Suche im PDF-Text.
type Heuristic struct {
	Logger *zap.Logger
}

// NewHeuristic erstellt einen neuen Keyword-Classifier.
func NewHeuristic(logger *zap.Logger) *Heuristic {
	return &Heuristic{Logger: logger}
}

// Name gibt den eindeutigen Namen der Strategie zurück.
func (h *Heuristic) Name() string {
	return "keyword"
}

// Classify liefert true, wenn mindestens zwei verschiedene Keywords im
// Dokumentanfang vorkommen. Parse-Fehler ergeben false, nie einen Fehler.
func (h *Heuristic) Classify(ctx context.Context, doc classifier.Document) bool {
	text, err := classifier.ExtractText(doc.Data)
	if err != nil {
		h.Logger.Debug("PDF-Extraktion fehlgeschlagen, keine Auto-Freigabe", zap.Error(err))
		return false
	}
	matches := MatchCount(text)
	h.Logger.Debug("Keyword-Klassifikation abgeschlossen",
		zap.Int("matches", matches),
		zap.Bool("approve", matches >= minMatches))
	return matches >= minMatches
}

// MatchCount zählt, wie viele verschiedene Keywords im Textfenster vorkommen.
func MatchCount(text string) int {
	t := strings.ToLower(text)
	if len(t) > textWindow {
		t = t[:textWindow]
	}
	matches := 0
	for _, word := range keywords {
		if strings.Contains(t, word) {
			matches++
		}
	}
	return matches
}
