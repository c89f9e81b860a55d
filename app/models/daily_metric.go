package models

import "time"

// DailyMetric aggregates checkout funnel counters per calendar day.
// Rows are written by the counter flush job, not by request handlers.
type DailyMetric struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        string    `gorm:"type:char(10);uniqueIndex" json:"date"`
	Checkouts   int64     `gorm:"default:0" json:"checkouts"`
	Webhooks    int64     `gorm:"default:0" json:"webhooks"`
	Activations int64     `gorm:"default:0" json:"activations"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
