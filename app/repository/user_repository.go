package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/qaura-app/qaura/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByActivationToken retrieves a user by their activation token
func (r *userRepository) GetByActivationToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("activation_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash resolves an API key hash to its owning user.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	err := r.db.Where("api_key_hash = ? AND api_key_hash <> ''", trimmed).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves a paginated list of users
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) CountByRole(role string) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// Search searches for users by name or email
func (r *userRepository) Search(query string) ([]models.User, error) {
	var users []models.User
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", searchPattern, searchPattern).Find(&users).Error
	return users, err
}

// GetWithSubscription retrieves users together with their most recent subscription
func (r *userRepository) GetWithSubscription(offset, limit int) ([]UserWithSubscription, error) {
	users, err := r.List(offset, limit)
	if err != nil {
		return nil, err
	}
	return r.attachSubscriptions(users)
}

// SearchWithSubscription searches for users together with their most recent subscription
func (r *userRepository) SearchWithSubscription(query string) ([]UserWithSubscription, error) {
	users, err := r.Search(query)
	if err != nil {
		return nil, err
	}
	return r.attachSubscriptions(users)
}

func (r *userRepository) attachSubscriptions(users []models.User) ([]UserWithSubscription, error) {
	result := make([]UserWithSubscription, 0, len(users))
	for _, user := range users {
		var sub models.Subscription
		err := r.db.Where("user_id = ?", user.ID).Order("created_at DESC").First(&sub).Error
		entry := UserWithSubscription{User: user}
		if err == nil {
			entry.Subscription = &sub
		} else if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to load subscription for user %d: %w", user.ID, err)
		}
		result = append(result, entry)
	}
	return result, nil
}

// GetDailySignups returns daily user registration counts for a date range
func (r *userRepository) GetDailySignups(startDate, endDate time.Time) ([]DailyStat, error) {
	var results []struct {
		Date  string
		Count int64
	}

	// DATE_FORMAT keeps the grouping MySQL-side
	err := r.db.Model(&models.User{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE_FORMAT(created_at, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily signup stats: %w", err)
	}

	stats := make([]DailyStat, len(results))
	for i, result := range results {
		stats[i] = DailyStat{Date: result.Date, Count: int(result.Count)}
	}
	return stats, nil
}
