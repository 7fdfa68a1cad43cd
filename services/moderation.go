package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-vault/classifier"
	"paper-vault/config"
	"paper-vault/models"
)

// Fehler, die die Moderation an den HTTP-Adapter meldet.
var (
	ErrDuplicate        = errors.New("a non-rejected paper with the same metadata already exists")
	ErrAlreadyProcessed = errors.New("paper has already been processed")
	ErrNotFound         = errors.New("paper not found")
)

// BlobStore ist der Vertrag zum Objektspeicher für die Paper-PDFs.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// SubmitInput sind die Metadaten einer Einreichung.
type SubmitInput struct {
	Category string
	Subject  string
	Semester string
	Year     string
}

// ModerationService besitzt den Paper-Lebenszyklus: Einreichung,
// Duplikatsprüfung, Auto-Approval und die Statusübergänge.
type ModerationService struct {
	Config     *config.Config
	DB         *gorm.DB
	Blobs      BlobStore
	Classifier classifier.Classifier
	Logger     *zap.Logger
}

// NewModerationService erstellt eine neue Instanz des ModerationService.
func NewModerationService(cfg *config.Config, db *gorm.DB, blobs BlobStore, cls classifier.Classifier, logger *zap.Logger) *ModerationService {
	return &ModerationService{
		Config:     cfg,
		DB:         db,
		Blobs:      blobs,
		Classifier: cls,
		Logger:     logger,
	}
}

// Submit prüft auf Duplikate, klassifiziert die Datei und legt Blob und
// Datensatz an. Der zurückgegebene Paper-Status ist "approved", wenn der
// Classifier positiv war, sonst "pending".
func (m *ModerationService) Submit(ctx context.Context, in SubmitInput, data []byte) (*models.Paper, error) {
	log := m.Logger.With(
		zap.String("category", in.Category),
		zap.String("subject", in.Subject),
		zap.String("semester", in.Semester),
		zap.String("year", in.Year),
	)

	// Duplikatsprüfung VOR dem Blob-Upload, damit bei einem Duplikat kein
	// verwaistes Objekt liegen bleibt. Read-then-write ohne Sperre: zwei
	// parallele identische Einreichungen können beide passieren.
	var count int64
	if err := m.DB.WithContext(ctx).Model(&models.Paper{}).
		Where("category = ? AND subject = ? AND semester = ? AND year = ? AND status <> ?",
			in.Category, in.Subject, in.Semester, in.Year, models.StatusRejected).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicate
	}

	// Classifier-Fehler werden in der Strategie geschluckt; im Zweifel pending.
	autoApproved := m.Classifier.Classify(ctx, classifier.Document{
		Category: in.Category,
		Subject:  in.Subject,
		Semester: in.Semester,
		Year:     in.Year,
		Data:     data,
	})

	// Objektname wird generiert, nie aus Nutzereingaben abgeleitet.
	key := uuid.NewString() + ".pdf"
	fileURL, err := m.Blobs.Upload(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("blob upload: %w", err)
	}

	status := models.StatusPending
	if autoApproved {
		status = models.StatusApproved
	}
	paper := &models.Paper{
		ID:         uuid.NewString(),
		Category:   in.Category,
		Subject:    in.Subject,
		Semester:   in.Semester,
		Year:       in.Year,
		StorageKey: key,
		FileURL:    fileURL,
		Status:     status,
		Approved:   autoApproved,
	}
	if err := m.DB.WithContext(ctx).Create(paper).Error; err != nil {
		// Blob wieder aufräumen, sonst bleibt ein Objekt ohne Datensatz zurück.
		if derr := m.Blobs.Delete(ctx, key); derr != nil {
			log.Warn("Aufräumen des Blobs nach Insert-Fehler fehlgeschlagen",
				zap.String("key", key), zap.Error(derr))
		}
		return nil, fmt.Errorf("insert paper: %w", err)
	}

	log.Info("Paper eingereicht",
		zap.String("id", paper.ID),
		zap.String("classifier", m.Classifier.Name()),
		zap.Bool("auto_approved", autoApproved))
	return paper, nil
}

// ListPending gibt alle Paper in der Moderations-Warteschlange zurück, neueste zuerst.
func (m *ModerationService) ListPending(ctx context.Context) ([]models.Paper, error) {
	var papers []models.Paper
	if err := m.DB.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at desc").
		Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return papers, nil
}

// ListApproved gibt alle freigegebenen Paper zurück, neueste zuerst.
func (m *ModerationService) ListApproved(ctx context.Context) ([]models.Paper, error) {
	var papers []models.Paper
	if err := m.DB.WithContext(ctx).
		Where("status = ?", models.StatusApproved).
		Order("created_at desc").
		Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("list approved: %w", err)
	}
	return papers, nil
}

// Approve gibt ein wartendes Paper frei.
func (m *ModerationService) Approve(ctx context.Context, id string) error {
	return m.transition(ctx, id, models.StatusApproved)
}

// Reject lehnt ein wartendes Paper ab. Der Datensatz bleibt erhalten, damit
// dieselben Metadaten später erneut eingereicht werden können.
func (m *ModerationService) Reject(ctx context.Context, id string) error {
	return m.transition(ctx, id, models.StatusRejected)
}

// transition ist der bedingte Statuswechsel von pending aus. Das Update greift
// nur, wenn der Status noch pending ist; von zwei parallelen Aufrufen gewinnt
// genau einer.
func (m *ModerationService) transition(ctx context.Context, id, to string) error {
	res := m.DB.WithContext(ctx).Model(&models.Paper{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("transition to %s: %w", to, res.Error)
	}
	if res.RowsAffected == 0 {
		// Unbekannte ID von bereits verarbeitetem Paper unterscheiden.
		var count int64
		if err := m.DB.WithContext(ctx).Model(&models.Paper{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("transition probe: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrAlreadyProcessed
	}

	m.Logger.Info("Paper-Status geändert", zap.String("id", id), zap.String("status", to))
	return nil
}

// Delete entfernt ein Paper samt Blob, unabhängig vom Status. Die Blob-Löschung
// ist best-effort; maßgeblich ist die Löschung des Datensatzes.
func (m *ModerationService) Delete(ctx context.Context, id string) error {
	var paper models.Paper
	if err := m.DB.WithContext(ctx).First(&paper, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load paper: %w", err)
	}

	if paper.StorageKey != "" {
		if err := m.Blobs.Delete(ctx, paper.StorageKey); err != nil {
			m.Logger.Warn("Blob-Löschung fehlgeschlagen, Datensatz wird trotzdem entfernt",
				zap.String("id", id), zap.String("key", paper.StorageKey), zap.Error(err))
		}
	}

	if err := m.DB.WithContext(ctx).Delete(&models.Paper{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}

	m.Logger.Info("Paper gelöscht", zap.String("id", id))
	return nil
}
