package classifier

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extrahiert den Klartext aus PDF-Bytes.
// Alles ohne %PDF-Header wird sofort abgewiesen, ohne den Parser anzufassen.
func ExtractText(data []byte) (text string, err error) {
	if len(data) < 5 || string(data[:5]) != "%PDF-" {
		return "", fmt.Errorf("missing %%PDF header")
	}

	// ledongthuc/pdf kann bei beschädigten Dateien panicen.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return collapseWhitespace(string(b)), nil
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
