package model

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"size:100;not null;index"`
	Extension   string    `gorm:"size:30;not null"`
	ProcType    string    `gorm:"size:30;not null"`
	StoragePath string    `gorm:"type:text"`
	Progress    int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}
