package models

import (
	"time"
)

// Comment is a visitor comment shown on the portfolio page.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Author    string    `json:"author"`
	Body      string    `json:"body" gorm:"type:text"`
	Approved  bool      `json:"approved" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
