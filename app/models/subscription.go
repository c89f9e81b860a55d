package models

import "time"

const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

const (
	PaymentMethodPix  = "pix"
	PaymentMethodCard = "card"
)

// SubscriptionPrice is the fixed monthly price in BRL.
const SubscriptionPrice = 9.90

// SubscriptionPeriod is the paid-access window granted per approved payment.
const SubscriptionPeriod = 30 * 24 * time.Hour

// Subscription represents one buyer's paid-access period. Rows are created in
// pending state by the checkout flow and resolved by the payment webhook.
type Subscription struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;index:idx_subscriptions_user_status,priority:1" json:"user_id"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_subscriptions_user_status,priority:2" json:"status"`
	Amount            float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod     string     `gorm:"type:varchar(20);default:''" json:"payment_method,omitempty"`
	PreferenceID      string     `gorm:"type:varchar(191);default:'';index" json:"preference_id,omitempty"`
	PaymentID         string     `gorm:"type:varchar(191);default:'';index" json:"payment_id,omitempty"`
	ExternalReference string     `gorm:"type:varchar(191);default:'';index" json:"external_reference,omitempty"`
	IdempotencyKey    *string    `gorm:"type:varchar(191);uniqueIndex;default:null" json:"-"`
	InitPoint         string     `gorm:"type:varchar(500);default:''" json:"init_point,omitempty"`
	PixQRCode         string     `gorm:"type:text" json:"-"`
	ExpiresAt         *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsPaidUp reports whether the subscription currently grants access.
func (s *Subscription) IsPaidUp(now time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}
