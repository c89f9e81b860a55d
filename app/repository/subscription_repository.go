package repository

import (
	"fmt"
	"time"

	"github.com/qaura-app/qaura/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create creates a new subscription in the database
func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByID retrieves a subscription by its ID
func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByUserID retrieves all subscriptions for a user, newest first
func (r *subscriptionRepository) GetByUserID(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// GetLatestByUser retrieves the most recent subscription for a user
func (r *subscriptionRepository) GetLatestByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveByUser retrieves the active, unexpired subscription for a user
func (r *subscriptionRepository) GetActiveByUser(userID uint, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
		userID, models.SubscriptionStatusActive, now).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Update updates an existing subscription
func (r *subscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// List retrieves a paginated list of subscriptions, newest first
func (r *subscriptionRepository) List(offset, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, err
}

// ListByStatus retrieves a paginated list of subscriptions in a given status
func (r *subscriptionRepository) ListByStatus(status string, offset, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("status = ?", status).Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, err
}

// Count returns the total number of subscriptions
func (r *subscriptionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of subscriptions in a given status
func (r *subscriptionRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// TotalRevenue sums the amount of all activated subscriptions
func (r *subscriptionRepository) TotalRevenue() (float64, error) {
	var total float64
	err := r.db.Model(&models.Subscription{}).
		Where("status = ?", models.SubscriptionStatusActive).
		Select("COALESCE(SUM(amount), 0)").Row().Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate revenue: %w", err)
	}
	return total, nil
}

// GetDailyActivations returns daily activation counts for a date range
func (r *subscriptionRepository) GetDailyActivations(startDate, endDate time.Time) ([]DailyStat, error) {
	var results []struct {
		Date  string
		Count int64
	}

	err := r.db.Model(&models.Subscription{}).
		Select("DATE_FORMAT(updated_at, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("status = ? AND updated_at BETWEEN ? AND ?", models.SubscriptionStatusActive, startDate, endDate).
		Group("DATE_FORMAT(updated_at, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily activation stats: %w", err)
	}

	stats := make([]DailyStat, len(results))
	for i, result := range results {
		stats[i] = DailyStat{Date: result.Date, Count: int(result.Count)}
	}
	return stats, nil
}
