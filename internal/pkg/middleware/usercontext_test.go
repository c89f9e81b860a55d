package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/app/repository"
)

type stubSubscriptionRepo struct {
	repository.SubscriptionRepository

	latest *models.Subscription
	err    error
}

func (s *stubSubscriptionRepo) GetLatestByUser(userID uint) (*models.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.latest, nil
}

func TestSubscriptionStatusReflectsLatestRow(t *testing.T) {
	repo := &stubSubscriptionRepo{latest: &models.Subscription{
		UserID: 7,
		Status: models.SubscriptionStatusPending,
	}}

	assert.Equal(t, models.SubscriptionStatusPending, subscriptionStatus(repo, 7))

	// A webhook activating the row must be visible on the very next request.
	repo.latest.Status = models.SubscriptionStatusActive
	assert.Equal(t, models.SubscriptionStatusActive, subscriptionStatus(repo, 7))
}

func TestSubscriptionStatusNoSubscription(t *testing.T) {
	repo := &stubSubscriptionRepo{err: gorm.ErrRecordNotFound}
	assert.Equal(t, "none", subscriptionStatus(repo, 7))
}

func TestSubscriptionStatusLookupFailure(t *testing.T) {
	repo := &stubSubscriptionRepo{err: gorm.ErrInvalidDB}
	assert.Equal(t, "", subscriptionStatus(repo, 7))
}
