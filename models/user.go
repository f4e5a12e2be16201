package models

import (
	"time"
)

// User owns tasks, accounts and expenses. Email is unique and stored lower-cased.
type User struct {
	ID           string    `gorm:"primaryKey;size:24" json:"_id"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Name         string    `gorm:"size:50;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash []byte    `gorm:"not null" json:"-"`
}
