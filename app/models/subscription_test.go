package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPaidUp(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active with future expiry", Subscription{Status: SubscriptionStatusActive, ExpiresAt: &future}, true},
		{"active without expiry", Subscription{Status: SubscriptionStatusActive}, true},
		{"active but expired", Subscription{Status: SubscriptionStatusActive, ExpiresAt: &past}, false},
		{"pending", Subscription{Status: SubscriptionStatusPending, ExpiresAt: &future}, false},
		{"cancelled", Subscription{Status: SubscriptionStatusCancelled, ExpiresAt: &future}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.sub.IsPaidUp(now))
		})
	}
}
