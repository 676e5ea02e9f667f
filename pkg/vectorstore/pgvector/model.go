package pgvector

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type VectorCollection struct {
	Name              string    `gorm:"type:varchar(255);primaryKey"`
	Dimension         int       `gorm:"not null"`
	Distance          string    `gorm:"type:varchar(16);not null"`
	IndexingThreshold int       `gorm:"default:0"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (VectorCollection) TableName() string {
	return "vector_collections"
}

type VectorRecord struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CollectionName string          `gorm:"type:varchar(255);not null;index"`
	Context        string          `gorm:"type:text"`
	Source         string          `gorm:"type:text"`
	Embedding      pgvector.Vector `gorm:"type:vector"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (VectorRecord) TableName() string {
	return "vector_records"
}
