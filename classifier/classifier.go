package classifier

import "context"

// Document bündelt die Daten einer Einreichung, die eine Strategie sehen darf.
type Document struct {
	Category string
	Subject  string
	Semester string
	Year     string
	Data     []byte
}

// Classifier ist das Interface, das jede Auto-Approval-Strategie (z.B. Keyword, Inference) implementieren muss.
type Classifier interface {
	// Classify liefert true, wenn die Einreichung automatisch freigegeben werden darf.
	// Die Implementierungen behandeln Fehler intern; im Zweifel ist das Ergebnis false.
	Classify(ctx context.Context, doc Document) bool

	// Name gibt den eindeutigen Namen der Strategie zurück (z.B. "keyword").
	Name() string
}
