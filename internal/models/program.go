package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Program is a stored compiled artifact. Rows are written once and never
// updated.
type Program struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Hash      string         `json:"hash" gorm:"not null;uniqueIndex"`
	Code      []byte         `json:"-" gorm:"type:bytea"`
	ObjectKey string         `json:"-" gorm:"column:object_key"` // S3 key when the code is offloaded
	Version   int            `json:"version" gorm:"not null"`
	Builtins  pq.StringArray `json:"builtins" gorm:"type:text[];not null"`
	Layout    string         `json:"layout" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
}
