package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"paper-vault/classifier"
	"paper-vault/config"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

const systemPrompt = "You review submissions to an archive of university exam question papers. " +
	"Based on the metadata and the extracted text, decide whether the document is a genuine exam question paper. " +
	"Answer with exactly one word: APPROVE if you are confident it is, PENDING otherwise. " +
	"Never reject a submission outright; when in doubt answer PENDING."

// chatRequest ist der Payload für einen Chat-Completions-Aufruf.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse repräsentiert die JSON-Antwort der Inference-API.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Remote klassifiziert Einreichungen über eine externe Text-Klassifikations-API.
type Remote struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewRemote erstellt einen neuen Inference-Classifier.
func NewRemote(cfg *config.Config, logger *zap.Logger) *Remote {
	return &Remote{Config: cfg, Logger: logger}
}

// Name gibt den eindeutigen Namen der Strategie zurück.
func (r *Remote) Name() string {
	return "inference"
}

// Classify fragt die externe API nach einem APPROVE/PENDING-Urteil.
// Jeder Netzwerk- oder API-Fehler ergibt false, nie einen Fehler.
func (r *Remote) Classify(ctx context.Context, doc classifier.Document) bool {
	if r.Config.InferenceAPIKey == "" {
		r.Logger.Warn("Inference-API-Key nicht konfiguriert, keine Auto-Freigabe")
		return false
	}

	verdict, err := r.ask(ctx, doc)
	if err != nil {
		r.Logger.Warn("Inference-Aufruf fehlgeschlagen, keine Auto-Freigabe", zap.Error(err))
		return false
	}
	r.Logger.Debug("Inference-Klassifikation abgeschlossen", zap.String("verdict", verdict))
	return verdict == "APPROVE"
}

func (r *Remote) ask(ctx context.Context, doc classifier.Document) (string, error) {
	payload := chatRequest{
		Model: r.Config.InferenceModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(doc)},
		},
		Temperature: 0,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(r.Config.InferenceBaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.Config.InferenceAPIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference request failed with status: %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("inference response contained no choices")
	}
	return strings.ToUpper(strings.TrimSpace(cr.Choices[0].Message.Content)), nil
}

// buildPrompt baut die User-Nachricht aus Metadaten und (falls lesbar) dem Dokumentanfang.
func buildPrompt(doc classifier.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\nSubject: %s\nSemester: %s\nYear: %s\n",
		doc.Category, doc.Subject, doc.Semester, doc.Year)

	if text, err := classifier.ExtractText(doc.Data); err == nil {
		if len(text) > 1500 {
			text = text[:1500]
		}
		fmt.Fprintf(&b, "\nExtracted text:\n%s\n", text)
	}
	return b.String()
}
