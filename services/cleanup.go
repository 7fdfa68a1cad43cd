package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"paper-vault/models"
)

// PurgeRejected entfernt abgelehnte Paper, die älter als die konfigurierte
// Retention sind, samt Blob. Gibt die Anzahl der entfernten Paper zurück.
// Bei Retention 0 ist der Purge deaktiviert.
func (m *ModerationService) PurgeRejected(ctx context.Context) (int, error) {
	days := m.Config.RejectedRetentionDays
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var papers []models.Paper
	if err := m.DB.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.StatusRejected, cutoff).
		Find(&papers).Error; err != nil {
		return 0, fmt.Errorf("find rejected papers: %w", err)
	}

	purged := 0
	for _, paper := range papers {
		if paper.StorageKey != "" {
			if err := m.Blobs.Delete(ctx, paper.StorageKey); err != nil {
				m.Logger.Warn("Blob-Löschung beim Purge fehlgeschlagen",
					zap.String("id", paper.ID), zap.String("key", paper.StorageKey), zap.Error(err))
			}
		}
		if err := m.DB.WithContext(ctx).Delete(&models.Paper{}, "id = ?", paper.ID).Error; err != nil {
			m.Logger.Error("Datensatz-Löschung beim Purge fehlgeschlagen",
				zap.String("id", paper.ID), zap.Error(err))
			continue
		}
		purged++
	}

	if purged > 0 {
		m.Logger.Info("Abgelehnte Paper entfernt",
			zap.Int("purged", purged), zap.Time("cutoff", cutoff))
	}
	return purged, nil
}
