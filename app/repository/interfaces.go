package repository

import (
	"time"

	"github.com/qaura-app/qaura/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	CountByRole(role string) (int64, error)
	Search(query string) ([]models.User, error)
	GetWithSubscription(offset, limit int) ([]UserWithSubscription, error)
	SearchWithSubscription(query string) ([]UserWithSubscription, error)
	GetDailySignups(startDate, endDate time.Time) ([]DailyStat, error)
}

// SubscriptionRepository defines the interface for subscription database operations
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id uint) (*models.Subscription, error)
	GetByUserID(userID uint) ([]models.Subscription, error)
	GetLatestByUser(userID uint) (*models.Subscription, error)
	GetActiveByUser(userID uint, now time.Time) (*models.Subscription, error)
	Update(sub *models.Subscription) error
	List(offset, limit int) ([]models.Subscription, error)
	ListByStatus(status string, offset, limit int) ([]models.Subscription, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	TotalRevenue() (float64, error)
	GetDailyActivations(startDate, endDate time.Time) ([]DailyStat, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// UserWithSubscription pairs a user with their most recent subscription, if any.
type UserWithSubscription struct {
	User         models.User
	Subscription *models.Subscription
}

// DailyStat is a per-day count used by the admin dashboard charts.
type DailyStat struct {
	Date  string
	Count int
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Subscription SubscriptionRepository
	Setting      SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Setting:      NewSettingRepository(db),
	}
}
