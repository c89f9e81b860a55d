package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/internal/pkg/cache"
	"github.com/qaura-app/qaura/internal/pkg/env"
	"github.com/qaura-app/qaura/internal/pkg/mercadopago"
	"gorm.io/gorm"
)

// nowFunc is overridable in tests.
var nowFunc = time.Now

// Placeholder token values an admin may leave in the settings screen. They
// are treated the same as a missing credential.
var placeholderTokens = map[string]struct{}{
	"":                  {},
	"your_access_token": {},
	"changeme":          {},
}

const (
	itemTitle       = "Assinatura Q-aura - Mensal"
	itemDescription = "Acesso completo ao sistema Q-aura"
	itemCurrency    = "BRL"
)

// Service implements preference creation and webhook reconciliation on top
// of an injected repository and provider client factory.
type Service struct {
	repo        Repository
	newProvider ProviderFactory

	// PublicBaseURL is this server's externally reachable base URL, used
	// for the provider notification URL and back-URL landings.
	PublicBaseURL string
	// StorefrontURL is the SPA the buyer is sent back to after checkout.
	StorefrontURL string

	// credentialCacheTTL enables a short Redis cache for the access token
	// when positive. Zero keeps every read on the settings table.
	credentialCacheTTL time.Duration
}

// NewService creates a payments service from injected dependencies.
func NewService(repo Repository, factory ProviderFactory, publicBaseURL, storefrontURL string) *Service {
	return &Service{
		repo:          repo,
		newProvider:   factory,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		StorefrontURL: strings.TrimRight(storefrontURL, "/"),
	}
}

// NewServiceFromDB creates a payments service wired to GORM, the real
// Mercado Pago client and env-based URLs.
func NewServiceFromDB(db *gorm.DB) *Service {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	front := strings.TrimRight(env.GetEnv("STOREFRONT_URL", base), "/")
	svc := NewService(
		NewRepository(db),
		func(token string) ProviderClient { return mercadopago.NewClient(token) },
		base,
		front,
	)
	svc.credentialCacheTTL = 30 * time.Second
	return svc
}

// credentialCacheKey is invalidated by the admin settings screen on rotation.
const credentialCacheKey = "settings:" + models.SettingKeyMPAccessToken

// accessToken loads the provider credential from settings, optionally
// through a short Redis cache. Admins may rotate it at any time; rotation
// drops the cached value.
func (s *Service) accessToken() (string, error) {
	if s.credentialCacheTTL > 0 {
		if cached, err := cache.Get(credentialCacheKey); err == nil && cached != "" {
			return cached, nil
		}
	}

	token, err := s.repo.GetSettingValue(models.SettingKeyMPAccessToken)
	if err != nil {
		return "", &PersistenceError{Op: "settings read", Err: err}
	}
	token = strings.TrimSpace(token)
	if _, bad := placeholderTokens[strings.ToLower(token)]; bad {
		return "", &ConfigError{Key: models.SettingKeyMPAccessToken}
	}

	if s.credentialCacheTTL > 0 {
		if err := cache.Set(credentialCacheKey, token, s.credentialCacheTTL); err != nil {
			log.Printf("credential cache write failed: %v", err)
		}
	}
	return token, nil
}

// CreateCheckout validates buyer input, creates a payment preference at the
// provider and records a pending subscription. Exactly one pending row is
// created per successful call; a provider failure inserts nothing.
func (s *Service) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.UserID == 0 {
		return nil, &AuthError{Reason: "caller identity missing"}
	}
	if err := validateCheckoutInput(in); err != nil {
		return nil, err
	}

	// Replaying an idempotency key returns the stored preference instead of
	// creating a duplicate pending row.
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		existing, err := s.repo.GetPendingByIdempotencyKey(key)
		switch {
		case err == nil && existing.UserID == in.UserID:
			return &CheckoutResult{
				SubscriptionID: existing.ID,
				PreferenceID:   existing.PreferenceID,
				InitPoint:      existing.InitPoint,
				Reused:         true,
			}, nil
		case err == nil:
			// The key is taken by another buyer's pending row; inserting
			// would trip the unique index anyway.
			return nil, &ValidationError{Field: "idempotency_key", Reason: "already in use"}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, &PersistenceError{Op: "idempotency lookup", Err: err}
		}
	}

	token, err := s.accessToken()
	if err != nil {
		return nil, err
	}

	pref := &mercadopago.PreferenceRequest{
		Items: []mercadopago.PreferenceItem{{
			Title:       itemTitle,
			Description: itemDescription,
			Quantity:    1,
			CurrencyID:  itemCurrency,
			UnitPrice:   models.SubscriptionPrice,
		}},
		BackURLs: mercadopago.PreferenceBackURLs{
			Success: s.PublicBaseURL + "/checkout/success",
			Failure: s.PublicBaseURL + "/checkout/failure",
			Pending: s.PublicBaseURL + "/checkout/pending",
		},
		AutoReturn:      "approved",
		NotificationURL: s.PublicBaseURL + "/webhooks/mercadopago",
		// The user id is the single canonical buyer-identity carrier; the
		// webhook reconciler validates it before touching any row.
		ExternalReference: strconv.FormatUint(uint64(in.UserID), 10),
		Metadata: map[string]any{
			"whatsapp": strings.TrimSpace(in.Whatsapp),
		},
	}
	pref.Payer.Name = strings.TrimSpace(in.Name)
	pref.Payer.Email = strings.TrimSpace(in.Email)
	pref.Payer.Phone.Number = strings.TrimSpace(in.Phone)

	created, err := s.newProvider(token).CreatePreference(ctx, pref)
	if err != nil {
		return nil, &ProviderError{Op: "preference creation", Err: err}
	}

	initPoint := created.InitPoint
	if initPoint == "" {
		initPoint = created.SandboxInitPoint
	}

	sub := &models.Subscription{
		UserID:            in.UserID,
		Status:            models.SubscriptionStatusPending,
		Amount:            models.SubscriptionPrice,
		PaymentMethod:     strings.TrimSpace(in.PaymentMethod),
		PreferenceID:      created.ID,
		ExternalReference: pref.ExternalReference,
		InitPoint:         initPoint,
	}
	// Without a client key, generate one so every pending row carries a
	// unique idempotency key.
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}
	sub.IdempotencyKey = &key
	if err := s.repo.CreateSubscription(sub); err != nil {
		return nil, &PersistenceError{Op: "subscription insert", Err: err}
	}

	return &CheckoutResult{
		SubscriptionID: sub.ID,
		PreferenceID:   created.ID,
		InitPoint:      initPoint,
	}, nil
}

// MapPaymentStatus translates a provider payment status into the local
// subscription status.
func MapPaymentStatus(providerStatus string) string {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case mercadopago.PaymentStatusApproved:
		return models.SubscriptionStatusActive
	case mercadopago.PaymentStatusRejected:
		return models.SubscriptionStatusCancelled
	default:
		return models.SubscriptionStatusPending
	}
}

// Reconcile processes one webhook delivery. Every failure is returned to the
// caller for logging only; the HTTP handler acknowledges receipt regardless
// so the provider does not retry-storm the endpoint.
func (s *Service) Reconcile(ctx context.Context, delivery WebhookDelivery) (*ReconcileResult, error) {
	notif, err := mercadopago.ParseWebhookNotification(delivery.Body)
	if err != nil {
		return nil, fmt.Errorf("webhook payload parse failed: %w", err)
	}

	sigValid, err := s.verifySignature(delivery, notif)
	if err != nil {
		return nil, err
	}

	event := &models.PaymentWebhookEvent{
		ProviderEventID: notificationEventID(notif, delivery.Body),
		EventType:       notif.Type,
		PaymentID:       notif.PaymentID(),
		PayloadJSON:     string(delivery.Body),
		SignatureValid:  sigValid,
	}
	created, stored, err := s.repo.CreateWebhookEventIfNotExists(event)
	if err != nil {
		return nil, &PersistenceError{Op: "webhook event insert", Err: err}
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		return &ReconcileResult{Duplicate: true}, nil
	}

	// An unauthenticated delivery is recorded for audit but never acted on.
	if !sigValid {
		_ = s.repo.MarkWebhookProcessed(stored.ID, "invalid webhook signature")
		return &ReconcileResult{Ignored: true}, errors.New("invalid webhook signature")
	}

	// Non-payment notifications are acknowledged and ignored.
	if !notif.IsPayment() {
		_ = s.repo.MarkWebhookProcessed(stored.ID, "")
		return &ReconcileResult{Ignored: true}, nil
	}

	res, procErr := s.reconcilePayment(ctx, notif)
	errMsg := ""
	if procErr != nil {
		errMsg = procErr.Error()
	}
	if markErr := s.repo.MarkWebhookProcessed(stored.ID, errMsg); markErr != nil && procErr == nil {
		procErr = &PersistenceError{Op: "webhook event update", Err: markErr}
	}
	return res, procErr
}

// verifySignature checks the delivery's x-signature header against the
// configured webhook secret. An empty secret setting disables verification
// so installs that never rotated it keep accepting notifications.
func (s *Service) verifySignature(delivery WebhookDelivery, notif *mercadopago.WebhookNotification) (bool, error) {
	secret, err := s.repo.GetSettingValue(models.SettingKeyMPWebhookSecret)
	if err != nil {
		return false, &PersistenceError{Op: "settings read", Err: err}
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return true, nil
	}

	dataID := strings.TrimSpace(delivery.DataID)
	if dataID == "" {
		dataID = notif.PaymentID()
	}
	return mercadopago.VerifyWebhookSignature(delivery.Signature, delivery.RequestID, dataID, secret), nil
}

func (s *Service) reconcilePayment(ctx context.Context, notif *mercadopago.WebhookNotification) (*ReconcileResult, error) {
	paymentID := notif.PaymentID()
	if paymentID == "" {
		return nil, errors.New("payment notification missing data.id")
	}

	token, err := s.accessToken()
	if err != nil {
		return nil, err
	}

	payment, err := s.newProvider(token).GetPayment(ctx, paymentID)
	if err != nil {
		return nil, &ProviderError{Op: "payment lookup", Err: err}
	}

	target := MapPaymentStatus(payment.Status)

	sub, err := s.matchSubscription(paymentID, payment)
	if err != nil {
		return nil, err
	}

	if sub.Status != models.SubscriptionStatusPending {
		// Already resolved, e.g. a redelivered approval. Never re-stamp.
		return &ReconcileResult{SubscriptionID: sub.ID, Status: sub.Status, Duplicate: true}, nil
	}
	if target == models.SubscriptionStatusPending {
		return &ReconcileResult{SubscriptionID: sub.ID, Status: sub.Status}, nil
	}

	sub.Status = target
	sub.PaymentID = paymentID
	if payment.PaymentMethodID != "" {
		sub.PaymentMethod = payment.PaymentMethodID
	}
	if qr := payment.PointOfInteraction.TransactionData.QRCode; qr != "" {
		sub.PixQRCode = qr
	}
	if target == models.SubscriptionStatusActive {
		expires := nowFunc().Add(models.SubscriptionPeriod)
		sub.ExpiresAt = &expires
	}
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, &PersistenceError{Op: "subscription update", Err: err}
	}
	return &ReconcileResult{SubscriptionID: sub.ID, Status: sub.Status}, nil
}

// matchSubscription prefers the exact provider reference; the most recent
// pending row for the buyer is a documented best-effort fallback only.
func (s *Service) matchSubscription(paymentID string, payment *mercadopago.Payment) (*models.Subscription, error) {
	sub, err := s.repo.GetByPaymentID(paymentID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &PersistenceError{Op: "subscription lookup", Err: err}
	}

	// external_reference is the canonical buyer-identity carrier. Fail
	// closed when it is absent instead of guessing from metadata.
	ref := strings.TrimSpace(payment.ExternalReference)
	if ref == "" {
		return nil, errors.New("payment missing external_reference, skipping reconciliation")
	}
	userID, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("payment external_reference %q is not a user id", ref)
	}

	sub, err = s.repo.GetLatestPendingByUser(uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no pending subscription for user %d", userID)
		}
		return nil, &PersistenceError{Op: "subscription lookup", Err: err}
	}
	return sub, nil
}

// notificationEventID derives a stable dedup id for a delivery. Mercado Pago
// sends a notification id on most events; hash the payload when it is absent.
func notificationEventID(n *mercadopago.WebhookNotification, rawBody []byte) string {
	if id := strings.TrimSpace(n.ID.String()); id != "" {
		return id
	}
	sum := sha256.Sum256(rawBody)
	return "hash:" + hex.EncodeToString(sum[:])
}

func validateCheckoutInput(in CheckoutInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return &ValidationError{Field: "email", Reason: "required"}
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return &ValidationError{Field: "email", Reason: "malformed"}
	}
	if strings.TrimSpace(in.Phone) == "" {
		return &ValidationError{Field: "phone", Reason: "required"}
	}
	if strings.TrimSpace(in.Whatsapp) == "" {
		return &ValidationError{Field: "whatsapp", Reason: "required"}
	}
	if cpf := strings.TrimSpace(in.CPF); cpf != "" {
		if len(cpf) != 11 || strings.IndexFunc(cpf, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return &ValidationError{Field: "cpf", Reason: "must be exactly 11 digits"}
		}
	}
	return nil
}
