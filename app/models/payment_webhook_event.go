package models

import "time"

// PaymentWebhookEvent stores provider webhook notifications with
// deduplication metadata so a redelivered event never re-runs the
// reconciliation that already happened.
type PaymentWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;default:'';uniqueIndex" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PaymentID       string     `gorm:"type:varchar(191);default:'';index" json:"payment_id"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	SignatureValid  bool       `gorm:"not null;default:true" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
