package models

import (
	"time"

	"gorm.io/gorm"
)

// Status-Werte für den Moderations-Lebenszyklus eines Papers.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Paper repräsentiert ein eingereichtes Fragenpapier und dessen Moderationszustand.
type Paper struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Fachliche Metadaten, zusammen der natürliche Duplikat-Schlüssel.
	Category string `json:"category" gorm:"index:idx_papers_tuple"`
	Subject  string `json:"subject" gorm:"index:idx_papers_tuple"`
	Semester string `json:"semester" gorm:"index:idx_papers_tuple"`
	Year     string `json:"year" gorm:"index:idx_papers_tuple"`

	// StorageKey ist der generierte Objektname im Blob-Store, FileURL der
	// daraus abgeleitete öffentliche Link. Beide werden einmalig gesetzt.
	StorageKey string `json:"-"`
	FileURL    string `json:"fileUrl"`

	Status string `json:"status" gorm:"index;default:pending"`

	// Approved ist eine abgeleitete Sicht auf Status, wird nie gespeichert.
	Approved bool `json:"approved" gorm:"-"`
}

// AfterFind leitet das Boolean-Feld aus dem kanonischen Status ab.
func (p *Paper) AfterFind(tx *gorm.DB) error {
	p.Approved = p.Status == StatusApproved
	return nil
}
