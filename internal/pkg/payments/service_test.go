package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/internal/pkg/mercadopago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepository struct {
	settings      map[string]string
	subscriptions []*models.Subscription
	events        []*models.PaymentWebhookEvent

	createErr  error
	settingErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{settings: map[string]string{
		models.SettingKeyMPAccessToken: "TEST-token-123",
	}}
}

func (f *fakeRepository) GetSettingValue(key string) (string, error) {
	if f.settingErr != nil {
		return "", f.settingErr
	}
	return f.settings[key], nil
}

func (f *fakeRepository) CreateSubscription(sub *models.Subscription) error {
	if f.createErr != nil {
		return f.createErr
	}
	sub.ID = uint(len(f.subscriptions) + 1)
	sub.CreatedAt = time.Now()
	f.subscriptions = append(f.subscriptions, sub)
	return nil
}

func (f *fakeRepository) SaveSubscription(sub *models.Subscription) error {
	for i, s := range f.subscriptions {
		if s.ID == sub.ID {
			f.subscriptions[i] = sub
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetPendingByIdempotencyKey(key string) (*models.Subscription, error) {
	for _, s := range f.subscriptions {
		if s.IdempotencyKey != nil && *s.IdempotencyKey == key && s.Status == models.SubscriptionStatusPending {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetByPaymentID(paymentID string) (*models.Subscription, error) {
	for _, s := range f.subscriptions {
		if s.PaymentID == paymentID && paymentID != "" {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetLatestPendingByUser(userID uint) (*models.Subscription, error) {
	var latest *models.Subscription
	for _, s := range f.subscriptions {
		if s.UserID == userID && s.Status == models.SubscriptionStatusPending {
			if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	for _, e := range f.events {
		if e.ProviderEventID == event.ProviderEventID {
			return false, e, nil
		}
	}
	event.ID = uint(len(f.events) + 1)
	f.events = append(f.events, event)
	return true, event, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeProvider struct {
	preference    *mercadopago.Preference
	preferenceErr error
	payment       *mercadopago.Payment
	paymentErr    error

	lastPreference *mercadopago.PreferenceRequest
	lastToken      string
}

func (f *fakeProvider) CreatePreference(ctx context.Context, pref *mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	f.lastPreference = pref
	if f.preferenceErr != nil {
		return nil, f.preferenceErr
	}
	return f.preference, nil
}

func (f *fakeProvider) GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return f.payment, nil
}

func newTestService(repo *fakeRepository, provider *fakeProvider) *Service {
	return NewService(repo, func(token string) ProviderClient {
		provider.lastToken = token
		return provider
	}, "https://qaura.app", "https://qaura.app")
}

func validInput() CheckoutInput {
	return CheckoutInput{
		UserID:        7,
		Name:          "Ana Silva",
		Email:         "ana@example.com",
		Phone:         "11988887777",
		Whatsapp:      "11988887777",
		CPF:           "12345678901",
		PaymentMethod: models.PaymentMethodPix,
	}
}

func TestCreateCheckoutSuccess(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{preference: &mercadopago.Preference{
		ID:        "pref-123",
		InitPoint: "https://mp.example/init/pref-123",
	}}
	svc := newTestService(repo, provider)

	res, err := svc.CreateCheckout(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "pref-123", res.PreferenceID)
	assert.Equal(t, "https://mp.example/init/pref-123", res.InitPoint)
	assert.False(t, res.Reused)

	require.Len(t, repo.subscriptions, 1)
	sub := repo.subscriptions[0]
	assert.Equal(t, uint(7), sub.UserID)
	assert.Equal(t, models.SubscriptionStatusPending, sub.Status)
	assert.Equal(t, models.SubscriptionPrice, sub.Amount)
	assert.Equal(t, "7", sub.ExternalReference)
	assert.Nil(t, sub.ExpiresAt)
	// a key is generated when the caller supplies none
	require.NotNil(t, sub.IdempotencyKey)
	assert.NotEmpty(t, *sub.IdempotencyKey)

	assert.Equal(t, "TEST-token-123", provider.lastToken)
	req := provider.lastPreference
	require.NotNil(t, req)
	require.Len(t, req.Items, 1)
	assert.Equal(t, "Assinatura Q-aura - Mensal", req.Items[0].Title)
	assert.Equal(t, "Acesso completo ao sistema Q-aura", req.Items[0].Description)
	assert.Equal(t, 1, req.Items[0].Quantity)
	assert.Equal(t, "BRL", req.Items[0].CurrencyID)
	assert.Equal(t, 9.90, req.Items[0].UnitPrice)
	assert.Equal(t, "7", req.ExternalReference)
	assert.Equal(t, "https://qaura.app/webhooks/mercadopago", req.NotificationURL)
	assert.Equal(t, "approved", req.AutoReturn)
}

func TestCreateCheckoutValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CheckoutInput)
		field  string
	}{
		{"missing name", func(in *CheckoutInput) { in.Name = " " }, "name"},
		{"missing email", func(in *CheckoutInput) { in.Email = "" }, "email"},
		{"malformed email", func(in *CheckoutInput) { in.Email = "not-an-email" }, "email"},
		{"missing phone", func(in *CheckoutInput) { in.Phone = "" }, "phone"},
		{"missing whatsapp", func(in *CheckoutInput) { in.Whatsapp = "" }, "whatsapp"},
		{"short cpf", func(in *CheckoutInput) { in.CPF = "123" }, "cpf"},
		{"cpf with punctuation", func(in *CheckoutInput) { in.CPF = "123.456.789-01" }, "cpf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			provider := &fakeProvider{}
			svc := newTestService(repo, provider)

			in := validInput()
			tt.mutate(&in)

			_, err := svc.CreateCheckout(context.Background(), in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, repo.subscriptions)
			assert.Nil(t, provider.lastPreference)
		})
	}
}

func TestCreateCheckoutEmptyCPFAllowed(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{preference: &mercadopago.Preference{ID: "p1", InitPoint: "https://x"}}
	svc := newTestService(repo, provider)

	in := validInput()
	in.CPF = ""
	_, err := svc.CreateCheckout(context.Background(), in)
	assert.NoError(t, err)
}

func TestCreateCheckoutRequiresIdentity(t *testing.T) {
	svc := newTestService(newFakeRepository(), &fakeProvider{})

	in := validInput()
	in.UserID = 0
	_, err := svc.CreateCheckout(context.Background(), in)

	var aerr *AuthError
	assert.ErrorAs(t, err, &aerr)
}

func TestCreateCheckoutMissingToken(t *testing.T) {
	repo := newFakeRepository()
	repo.settings[models.SettingKeyMPAccessToken] = ""
	provider := &fakeProvider{}
	svc := newTestService(repo, provider)

	_, err := svc.CreateCheckout(context.Background(), validInput())

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, models.SettingKeyMPAccessToken, cerr.Key)
	assert.Empty(t, repo.subscriptions)
	assert.Nil(t, provider.lastPreference)
}

func TestCreateCheckoutPlaceholderToken(t *testing.T) {
	repo := newFakeRepository()
	repo.settings[models.SettingKeyMPAccessToken] = "YOUR_ACCESS_TOKEN"
	svc := newTestService(repo, &fakeProvider{})

	_, err := svc.CreateCheckout(context.Background(), validInput())

	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestCreateCheckoutProviderFailureInsertsNothing(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{preferenceErr: &mercadopago.APIError{StatusCode: 500, Body: "boom"}}
	svc := newTestService(repo, provider)

	_, err := svc.CreateCheckout(context.Background(), validInput())

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, repo.subscriptions)
}

func TestCreateCheckoutIdempotencyReplay(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{preference: &mercadopago.Preference{
		ID:        "pref-abc",
		InitPoint: "https://mp.example/init/pref-abc",
	}}
	svc := newTestService(repo, provider)

	in := validInput()
	in.IdempotencyKey = "key-1"

	first, err := svc.CreateCheckout(context.Background(), in)
	require.NoError(t, err)

	second, err := svc.CreateCheckout(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, second.Reused)
	assert.Equal(t, first.SubscriptionID, second.SubscriptionID)
	assert.Equal(t, first.InitPoint, second.InitPoint)
	assert.Len(t, repo.subscriptions, 1)
}

func TestCreateCheckoutIdempotencyKeyOtherUser(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{preference: &mercadopago.Preference{
		ID:        "pref-abc",
		InitPoint: "https://mp.example/init/pref-abc",
	}}
	svc := newTestService(repo, provider)

	in := validInput()
	in.IdempotencyKey = "key-1"
	_, err := svc.CreateCheckout(context.Background(), in)
	require.NoError(t, err)

	// A different caller replaying the same key is rejected up front instead
	// of surfacing the unique index violation as a persistence failure.
	other := validInput()
	other.UserID = 8
	other.IdempotencyKey = "key-1"
	_, err = svc.CreateCheckout(context.Background(), other)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "idempotency_key", verr.Field)
	assert.Len(t, repo.subscriptions, 1)
}

func TestCreateCheckoutSandboxInitPointFallback(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{preference: &mercadopago.Preference{
		ID:               "pref-sandbox",
		SandboxInitPoint: "https://sandbox.mp.example/init",
	}}
	svc := newTestService(repo, provider)

	res, err := svc.CreateCheckout(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.mp.example/init", res.InitPoint)
}

func TestMapPaymentStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"approved", models.SubscriptionStatusActive},
		{"APPROVED", models.SubscriptionStatusActive},
		{"rejected", models.SubscriptionStatusCancelled},
		{"pending", models.SubscriptionStatusPending},
		{"in_process", models.SubscriptionStatusPending},
		{"cancelled", models.SubscriptionStatusPending},
		{"", models.SubscriptionStatusPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapPaymentStatus(tt.provider), "status %q", tt.provider)
	}
}

func paymentWebhookBody(eventID, paymentID string) []byte {
	return []byte(fmt.Sprintf(`{"id":%s,"type":"payment","action":"payment.updated","data":{"id":"%s"}}`, eventID, paymentID))
}

// unsignedDelivery builds a delivery without signature headers; verification
// only kicks in when a webhook secret is configured.
func unsignedDelivery(body []byte) WebhookDelivery {
	return WebhookDelivery{Body: body}
}

func signedDelivery(body []byte, dataID, requestID, secret string) WebhookDelivery {
	ts := "1700000000"
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return WebhookDelivery{
		Body:      body,
		Signature: fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))),
		RequestID: requestID,
		DataID:    dataID,
	}
}

func pendingSubscription(repo *fakeRepository, userID uint) *models.Subscription {
	sub := &models.Subscription{
		UserID:            userID,
		Status:            models.SubscriptionStatusPending,
		Amount:            models.SubscriptionPrice,
		ExternalReference: fmt.Sprintf("%d", userID),
		PreferenceID:      "pref-x",
	}
	_ = repo.CreateSubscription(sub)
	return sub
}

func TestReconcileApprovedActivates(t *testing.T) {
	repo := newFakeRepository()
	sub := pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
		PaymentMethodID:   "pix",
	}}
	svc := newTestService(repo, provider)

	before := time.Now()
	res, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))
	require.NoError(t, err)

	assert.Equal(t, sub.ID, res.SubscriptionID)
	assert.Equal(t, models.SubscriptionStatusActive, res.Status)

	got := repo.subscriptions[0]
	assert.Equal(t, models.SubscriptionStatusActive, got.Status)
	assert.Equal(t, "42", got.PaymentID)
	assert.Equal(t, "pix", got.PaymentMethod)
	require.NotNil(t, got.ExpiresAt)
	expected := before.Add(models.SubscriptionPeriod)
	assert.WithinDuration(t, expected, *got.ExpiresAt, 5*time.Second)

	require.Len(t, repo.events, 1)
	assert.NotNil(t, repo.events[0].ProcessedAt)
	assert.Empty(t, repo.events[0].ProcessingError)
}

func TestReconcileRejectedCancels(t *testing.T) {
	repo := newFakeRepository()
	pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "rejected",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	res, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusCancelled, res.Status)
	got := repo.subscriptions[0]
	assert.Equal(t, models.SubscriptionStatusCancelled, got.Status)
	assert.Nil(t, got.ExpiresAt)
}

func TestReconcilePendingLeavesRowUntouched(t *testing.T) {
	repo := newFakeRepository()
	pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "in_process",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	res, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusPending, res.Status)
	assert.Empty(t, repo.subscriptions[0].PaymentID)
}

func TestReconcileNonPaymentIgnored(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{}
	svc := newTestService(repo, provider)

	body := []byte(`{"id":55,"type":"merchant_order","data":{"id":"999"}}`)
	res, err := svc.Reconcile(context.Background(), unsignedDelivery(body))
	require.NoError(t, err)

	assert.True(t, res.Ignored)
	require.Len(t, repo.events, 1)
	assert.NotNil(t, repo.events[0].ProcessedAt)
}

func TestReconcileDuplicateDelivery(t *testing.T) {
	repo := newFakeRepository()
	pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	body := paymentWebhookBody("100", "42")
	first, err := svc.Reconcile(context.Background(), unsignedDelivery(body))
	require.NoError(t, err)
	require.NotNil(t, first.SubscriptionID)
	firstExpiry := *repo.subscriptions[0].ExpiresAt

	second, err := svc.Reconcile(context.Background(), unsignedDelivery(body))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	assert.Equal(t, models.SubscriptionStatusActive, repo.subscriptions[0].Status)
	assert.Equal(t, firstExpiry, *repo.subscriptions[0].ExpiresAt)
	assert.Len(t, repo.events, 1)
}

func TestReconcileRedeliveredWithNewEventID(t *testing.T) {
	repo := newFakeRepository()
	pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	_, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))
	require.NoError(t, err)
	firstExpiry := *repo.subscriptions[0].ExpiresAt

	// Same payment under a fresh notification id resolves to the already
	// activated row and never re-stamps the expiry.
	res, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("101", "42")))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, firstExpiry, *repo.subscriptions[0].ExpiresAt)
}

func TestReconcileMissingExternalReferenceFailsClosed(t *testing.T) {
	repo := newFakeRepository()
	pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:     42,
		Status: "approved",
	}}
	svc := newTestService(repo, provider)

	_, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))
	require.Error(t, err)

	assert.Equal(t, models.SubscriptionStatusPending, repo.subscriptions[0].Status)
	require.Len(t, repo.events, 1)
	assert.NotEmpty(t, repo.events[0].ProcessingError)
}

func TestReconcileNoPendingSubscription(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	_, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))
	assert.Error(t, err)
}

func TestReconcilePicksMostRecentPending(t *testing.T) {
	repo := newFakeRepository()
	older := pendingSubscription(repo, 7)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	res, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))
	require.NoError(t, err)

	assert.Equal(t, newer.ID, res.SubscriptionID)
	assert.Equal(t, models.SubscriptionStatusActive, repo.subscriptions[1].Status)
	assert.Equal(t, models.SubscriptionStatusPending, repo.subscriptions[0].Status)
	_ = older
}

func TestReconcileProviderLookupFailure(t *testing.T) {
	repo := newFakeRepository()
	pendingSubscription(repo, 7)
	provider := &fakeProvider{paymentErr: errors.New("timeout")}
	svc := newTestService(repo, provider)

	_, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, models.SubscriptionStatusPending, repo.subscriptions[0].Status)
	assert.NotEmpty(t, repo.events[0].ProcessingError)
}

func TestReconcileMalformedPayload(t *testing.T) {
	svc := newTestService(newFakeRepository(), &fakeProvider{})

	_, err := svc.Reconcile(context.Background(), unsignedDelivery([]byte("not json")))
	assert.Error(t, err)
}

func TestReconcileValidSignatureActivates(t *testing.T) {
	repo := newFakeRepository()
	repo.settings[models.SettingKeyMPWebhookSecret] = "whsec-1"
	sub := pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	delivery := signedDelivery(paymentWebhookBody("100", "42"), "42", "req-1", "whsec-1")
	res, err := svc.Reconcile(context.Background(), delivery)
	require.NoError(t, err)

	assert.Equal(t, sub.ID, res.SubscriptionID)
	assert.Equal(t, models.SubscriptionStatusActive, res.Status)
	require.Len(t, repo.events, 1)
	assert.True(t, repo.events[0].SignatureValid)
}

func TestReconcileInvalidSignatureRecordedNotActedOn(t *testing.T) {
	repo := newFakeRepository()
	repo.settings[models.SettingKeyMPWebhookSecret] = "whsec-1"
	pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	delivery := signedDelivery(paymentWebhookBody("100", "42"), "42", "req-1", "wrong-secret")
	res, err := svc.Reconcile(context.Background(), delivery)
	require.Error(t, err)

	assert.True(t, res.Ignored)
	assert.Equal(t, models.SubscriptionStatusPending, repo.subscriptions[0].Status)
	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].SignatureValid)
	assert.Equal(t, "invalid webhook signature", repo.events[0].ProcessingError)
}

func TestReconcileMissingSignatureWithSecretConfigured(t *testing.T) {
	repo := newFakeRepository()
	repo.settings[models.SettingKeyMPWebhookSecret] = "whsec-1"
	pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	_, err := svc.Reconcile(context.Background(), unsignedDelivery(paymentWebhookBody("100", "42")))
	require.Error(t, err)
	assert.Equal(t, models.SubscriptionStatusPending, repo.subscriptions[0].Status)
}

func TestReconcileRetriesAfterInvalidSignature(t *testing.T) {
	repo := newFakeRepository()
	repo.settings[models.SettingKeyMPWebhookSecret] = "whsec-1"
	pendingSubscription(repo, 7)
	provider := &fakeProvider{payment: &mercadopago.Payment{
		ID:                42,
		Status:            "approved",
		ExternalReference: "7",
	}}
	svc := newTestService(repo, provider)

	body := paymentWebhookBody("100", "42")
	_, err := svc.Reconcile(context.Background(), signedDelivery(body, "42", "req-1", "wrong-secret"))
	require.Error(t, err)

	// A properly signed redelivery of the same event is not treated as a
	// duplicate and completes the activation.
	res, err := svc.Reconcile(context.Background(), signedDelivery(body, "42", "req-2", "whsec-1"))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, models.SubscriptionStatusActive, repo.subscriptions[0].Status)
}
