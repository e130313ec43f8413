package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"marketplace-api/internal/client"
	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"
	"marketplace-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStripe struct {
	intents map[string]*client.PaymentIntent
	created []*client.PaymentIntent
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{intents: make(map[string]*client.PaymentIntent)}
}

func (f *fakeStripe) CreatePaymentIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*client.PaymentIntent, error) {
	intent := &client.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", len(f.created)+1),
		ClientSecret: fmt.Sprintf("pi_%d_secret", len(f.created)+1),
		Amount:       amount,
		Currency:     currency,
		Status:       "requires_payment_method",
		Metadata:     metadata,
	}
	f.intents[intent.ID] = intent
	f.created = append(f.created, intent)
	return intent, nil
}

func (f *fakeStripe) GetPaymentIntent(_ context.Context, intentID string) (*client.PaymentIntent, error) {
	intent, ok := f.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("no such payment intent %s", intentID)
	}
	return intent, nil
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (f *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	if f.fail {
		return errors.New("mail provider down")
	}
	f.sent = append(f.sent, to)
	return nil
}

type checkoutFixture struct {
	db      *gorm.DB
	stripe  *fakeStripe
	mailer  *fakeMailer
	service CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	return newCheckoutFixtureWith(t, "", nil)
}

// newCheckoutFixtureWith lets a test turn on webhook signature checks and
// interpose on payment lookups.
func newCheckoutFixtureWith(t *testing.T, webhookSecret string, wrapPayments func(repository.PaymentRepository) repository.PaymentRepository) *checkoutFixture {
	t.Helper()

	db := testutil.NewDB(t)
	stripe := newFakeStripe()
	mailer := &fakeMailer{}

	paymentRepo := repository.NewPaymentRepository(db)
	if wrapPayments != nil {
		paymentRepo = wrapPayments(paymentRepo)
	}

	svc := NewCheckoutService(
		db, stripe, mailer, webhookSecret,
		repository.NewProductRepository(db),
		repository.NewMerchantRepository(db),
		repository.NewOrderRepository(db),
		paymentRepo,
		repository.NewPayoutRepository(db),
		repository.NewAddressRepository(db),
		repository.NewUserRepository(db),
		repository.NewTermsRepository(db),
		repository.NewNotificationRepository(db),
		repository.NewWebhookEventRepository(db),
		repository.NewSettingRepository(db),
	)

	return &checkoutFixture{db: db, stripe: stripe, mailer: mailer, service: svc}
}

func (f *checkoutFixture) seedUser(t *testing.T, id string) *model.User {
	t.Helper()
	user := &model.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		Name:         "Test " + id,
		Role:         model.RoleCustomer,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *checkoutFixture) seedMerchant(t *testing.T, id, ownerID string) *model.Merchant {
	t.Helper()
	merchant := &model.Merchant{
		ID:             id,
		OwnerUserID:    ownerID,
		StoreName:      "Store " + id,
		Slug:           "store-" + id,
		Status:         model.MerchantApproved,
		CommissionRate: 0.20,
	}
	require.NoError(t, f.db.Create(merchant).Error)
	return merchant
}

func (f *checkoutFixture) seedProduct(t *testing.T, id, merchantID string, price float64) *model.Product {
	t.Helper()
	product := &model.Product{
		ID:         id,
		MerchantID: merchantID,
		Title:      "Product " + id,
		Price:      price,
		Currency:   "USD",
		Stock:      100,
		Status:     model.ProductPublished,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

// seedIntent registers a gateway intent carrying the given split plan, in the
// state the confirm endpoint sees after the client paid.
func (f *checkoutFixture) seedIntent(t *testing.T, id, userID, status string, split *dto.SplitData) *client.PaymentIntent {
	t.Helper()

	metadata := map[string]string{"userId": userID}
	if split != nil {
		raw, err := json.Marshal(split)
		require.NoError(t, err)
		metadata["splitData"] = string(raw)
	}

	intent := &client.PaymentIntent{
		ID:       id,
		Currency: "usd",
		Status:   status,
		Metadata: metadata,
	}
	f.stripe.intents[id] = intent
	return intent
}

func singleMerchantSplit() *dto.SplitData {
	return &dto.SplitData{
		SubOrders: []*dto.SplitSubOrder{
			{
				MerchantID:   "m1",
				Subtotal:     40,
				Commission:   8,
				PayoutAmount: 32,
				Items: []*dto.SplitItem{
					{ProductID: "p1", Quantity: 2, Price: 20},
				},
			},
		},
		Subtotal:   40,
		GrandTotal: 48.5,
		Currency:   "USD",
	}
}

func (f *checkoutFixture) countRows(t *testing.T, value interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(value).Count(&count).Error)
	return count
}

func TestConfirmOrderMaterializesOrderGraph(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_test", customer.ID, "succeeded", singleMerchantSplit())

	resp, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_test", "203.0.113.7")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Order)
	require.NotNil(t, resp.Payment)

	assert.Equal(t, 48.5, resp.Order.GrandTotal)
	assert.Equal(t, model.OrderPending, resp.Order.Status)
	assert.True(t, resp.Order.EmailNotificationsSent)

	require.Len(t, resp.Order.SubOrders, 1)
	subOrder := resp.Order.SubOrders[0]
	assert.Equal(t, "m1", subOrder.MerchantID)
	assert.Equal(t, 40.0, subOrder.Subtotal)
	assert.Equal(t, 8.0, subOrder.Commission)
	assert.Equal(t, 32.0, subOrder.PayoutAmount)
	assert.Equal(t, model.OrderPending, subOrder.Status)

	require.Len(t, subOrder.Items, 1)
	assert.Equal(t, "p1", subOrder.Items[0].ProductID)
	assert.Equal(t, int32(2), subOrder.Items[0].Quantity)
	assert.Equal(t, 20.0, subOrder.Items[0].UnitPrice)

	assert.Equal(t, "pi_test", resp.Payment.TransactionID)
	assert.Equal(t, resp.Order.ID, resp.Payment.OrderID)

	var balance model.PayoutBalance
	require.NoError(t, f.db.Where("merchant_id = ?", "m1").First(&balance).Error)
	assert.Equal(t, 32.0, balance.Available)

	assert.Equal(t, int64(1), f.countRows(t, &model.PayoutTransaction{}))
	assert.Equal(t, []string{customer.Email}, f.mailer.sent)

	var notification model.Notification
	require.NoError(t, f.db.Where("recipient_user_id = ?", owner.ID).First(&notification).Error)
	assert.Equal(t, "NEW_ORDER", notification.Type)
}

func TestConfirmOrderIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_dup", customer.ID, "succeeded", singleMerchantSplit())

	first, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_dup", "")
	require.NoError(t, err)

	second, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_dup", "")
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, int64(1), f.countRows(t, &model.Payment{}))
	assert.Equal(t, int64(1), f.countRows(t, &model.Order{}))
	assert.Len(t, f.mailer.sent, 1)

	var balance model.PayoutBalance
	require.NoError(t, f.db.Where("merchant_id = ?", "m1").First(&balance).Error)
	assert.Equal(t, 32.0, balance.Available)
}

func TestConfirmOrderRejectsUnpaidIntent(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_unpaid", customer.ID, "requires_payment_method", singleMerchantSplit())

	_, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_unpaid", "")
	require.ErrorIs(t, err, ErrPaymentNotSucceeded)

	assert.Equal(t, int64(0), f.countRows(t, &model.Order{}))
	assert.Equal(t, int64(0), f.countRows(t, &model.Payment{}))
}

func TestConfirmOrderRejectsMissingSplitData(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_nosplit", customer.ID, "succeeded", nil)

	_, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_nosplit", "")
	require.ErrorIs(t, err, ErrMissingSplitData)

	assert.Equal(t, int64(0), f.countRows(t, &model.Order{}))
	assert.Equal(t, int64(0), f.countRows(t, &model.Payment{}))
}

func TestConfirmOrderRejectsEmptyIntentID(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.ConfirmOrder(context.Background(), "cust-1", "", "")
	require.ErrorIs(t, err, ErrMissingPaymentIntent)
}

func TestConfirmOrderIncrementsExistingPayoutBalance(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_credit", customer.ID, "succeeded", singleMerchantSplit())

	require.NoError(t, f.db.Create(&model.PayoutBalance{
		MerchantID: "m1",
		Available:  10,
		Currency:   "USD",
	}).Error)

	_, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_credit", "")
	require.NoError(t, err)

	var balance model.PayoutBalance
	require.NoError(t, f.db.Where("merchant_id = ?", "m1").First(&balance).Error)
	assert.Equal(t, 42.0, balance.Available)
}

func TestConfirmOrderFansOutPerMerchant(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	ownerA := f.seedUser(t, "owner-a")
	ownerB := f.seedUser(t, "owner-b")
	f.seedMerchant(t, "m1", ownerA.ID)
	f.seedMerchant(t, "m2", ownerB.ID)
	f.seedProduct(t, "p1", "m1", 20)
	f.seedProduct(t, "p2", "m2", 15)
	customer := f.seedUser(t, "cust-1")

	split := &dto.SplitData{
		SubOrders: []*dto.SplitSubOrder{
			{
				MerchantID: "m1", Subtotal: 40, Commission: 8, PayoutAmount: 32,
				Items: []*dto.SplitItem{{ProductID: "p1", Quantity: 2, Price: 20}},
			},
			{
				MerchantID: "m2", Subtotal: 15, Commission: 3, PayoutAmount: 12,
				Items: []*dto.SplitItem{{ProductID: "p2", Quantity: 1, Price: 15}},
			},
		},
		Subtotal:   55,
		GrandTotal: 55,
		Currency:   "USD",
	}
	f.seedIntent(t, "pi_multi", customer.ID, "succeeded", split)

	resp, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_multi", "")
	require.NoError(t, err)
	require.Len(t, resp.Order.SubOrders, 2)

	total := 0.0
	for _, subOrder := range resp.Order.SubOrders {
		total += subOrder.Subtotal
	}
	assert.Equal(t, split.Subtotal, total)

	assert.Equal(t, int64(2), f.countRows(t, &model.PayoutBalance{}))
	assert.Equal(t, int64(2), f.countRows(t, &model.PayoutTransaction{}))
}

func TestConfirmOrderRecordsTermsAcceptance(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_terms", customer.ID, "succeeded", singleMerchantSplit())

	require.NoError(t, f.db.Create(&model.TermsVersion{
		ID:      "tv-1",
		Version: "2026-01",
		Active:  true,
	}).Error)

	_, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_terms", "198.51.100.9")
	require.NoError(t, err)

	var acceptance model.TermsAcceptance
	require.NoError(t, f.db.Where("user_id = ?", customer.ID).First(&acceptance).Error)
	assert.Equal(t, "tv-1", acceptance.TermsVersionID)
	assert.Equal(t, "198.51.100.9", acceptance.IP)

	// Confirming again must not duplicate the acceptance.
	_, err = f.service.ConfirmOrder(ctx, customer.ID, "pi_terms", "198.51.100.9")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.countRows(t, &model.TermsAcceptance{}))
}

func TestConfirmOrderSurvivesMailerOutage(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_mail", customer.ID, "succeeded", singleMerchantSplit())

	f.mailer.fail = true
	resp, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_mail", "")
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.False(t, resp.Order.EmailNotificationsSent)

	// Mailer recovers; the retry path on the fast path sends exactly once.
	f.mailer.fail = false
	resp, err = f.service.ConfirmOrder(ctx, customer.ID, "pi_mail", "")
	require.NoError(t, err)
	assert.True(t, resp.Order.EmailNotificationsSent)
	assert.Len(t, f.mailer.sent, 1)

	assert.Equal(t, int64(1), f.countRows(t, &model.Order{}))
}

func TestHandleWebhookConfirmsAndDedups(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_hook", customer.ID, "succeeded", singleMerchantSplit())

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_hook"}}}`)
	require.NoError(t, f.service.HandleWebhook(ctx, body, ""))
	assert.Equal(t, int64(1), f.countRows(t, &model.Order{}))

	// Redelivery of the same event is a no-op.
	require.NoError(t, f.service.HandleWebhook(ctx, body, ""))
	assert.Equal(t, int64(1), f.countRows(t, &model.Order{}))
	assert.Equal(t, int64(1), f.countRows(t, &model.Payment{}))
}

func TestCreateSplitBuildsPlanAndIntent(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 19.99)
	customer := f.seedUser(t, "cust-1")

	require.NoError(t, f.db.Create(&model.Setting{Key: "shipping_flat", Value: "5"}).Error)
	require.NoError(t, f.db.Create(&model.Setting{Key: "tax_rate", Value: "0.1"}).Error)

	resp, err := f.service.CreateSplit(ctx, customer.ID, &dto.SplitRequest{
		Items: []*dto.CheckoutItem{{ProductID: "p1", Quantity: 3}},
	})
	require.NoError(t, err)

	require.Len(t, resp.SplitData.SubOrders, 1)
	plan := resp.SplitData.SubOrders[0]
	assert.Equal(t, "m1", plan.MerchantID)
	assert.Equal(t, 59.97, plan.Subtotal)
	assert.Equal(t, 11.99, plan.Commission)
	assert.Equal(t, 47.98, plan.PayoutAmount)

	assert.Equal(t, 59.97, resp.SplitData.Subtotal)
	assert.Equal(t, 5.0, resp.SplitData.Shipping)
	assert.Equal(t, 6.0, resp.SplitData.Tax)
	assert.Equal(t, 70.97, resp.SplitData.GrandTotal)

	require.Len(t, f.stripe.created, 1)
	intent := f.stripe.created[0]
	assert.Equal(t, int64(7097), intent.Amount)
	assert.Equal(t, customer.ID, intent.Metadata["userId"])

	var echoed dto.SplitData
	require.NoError(t, json.Unmarshal([]byte(intent.Metadata["splitData"]), &echoed))
	assert.Equal(t, resp.SplitData.GrandTotal, echoed.GrandTotal)
	assert.Equal(t, resp.PaymentIntentID, intent.ID)
}

func TestCreateSplitRejectsEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.CreateSplit(context.Background(), "cust-1", &dto.SplitRequest{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSplitRejectsUnapprovedMerchant(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	merchant := f.seedMerchant(t, "m1", owner.ID)
	require.NoError(t, f.db.Model(merchant).Update("status", model.MerchantPending).Error)
	f.seedProduct(t, "p1", "m1", 10)
	customer := f.seedUser(t, "cust-1")

	_, err := f.service.CreateSplit(ctx, customer.ID, &dto.SplitRequest{
		Items: []*dto.CheckoutItem{{ProductID: "p1", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrMerchantNotApproved)
}

func TestCreateSplitRejectsMixedCurrencyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	euro := f.seedProduct(t, "p2", "m1", 18)
	require.NoError(t, f.db.Model(euro).Update("currency", "EUR").Error)
	customer := f.seedUser(t, "cust-1")

	_, err := f.service.CreateSplit(ctx, customer.ID, &dto.SplitRequest{
		Items: []*dto.CheckoutItem{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
		},
	})
	require.ErrorIs(t, err, ErrMixedCurrencyCart)
	assert.Empty(t, f.stripe.created)
}

// staleReadPaymentRepo simulates a confirm racing a concurrent winner: its
// first lookups miss, like a reader that has not yet observed the winner's
// committed payment row.
type staleReadPaymentRepo struct {
	repository.PaymentRepository
	misses int
}

func (r *staleReadPaymentRepo) FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*model.Payment, error) {
	if r.misses > 0 {
		r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.PaymentRepository.FindByTransactionID(ctx, db, transactionID)
}

// seedWinner persists the order graph a concurrent confirm already committed
// for the given intent id.
func (f *checkoutFixture) seedWinner(t *testing.T, intentID, userID string) *model.Order {
	t.Helper()

	order := &model.Order{
		ID:                     "ord-winner",
		UserID:                 userID,
		GrandTotal:             48.5,
		Currency:               "USD",
		Status:                 model.OrderPending,
		PaymentStatus:          "succeeded",
		EmailNotificationsSent: true,
	}
	require.NoError(t, f.db.Create(order).Error)
	require.NoError(t, f.db.Create(&model.SubOrder{
		ID:           "so-winner",
		OrderID:      order.ID,
		MerchantID:   "m1",
		Subtotal:     40,
		Commission:   8,
		PayoutAmount: 32,
		Status:       model.OrderPending,
	}).Error)
	require.NoError(t, f.db.Create(&model.Payment{
		ID:            "pay-winner",
		OrderID:       order.ID,
		TransactionID: intentID,
		Provider:      "stripe",
		Amount:        48.5,
		Currency:      "USD",
		Status:        "succeeded",
	}).Error)
	return order
}

func TestConfirmOrderInTxRecheckReturnsWinner(t *testing.T) {
	racer := &staleReadPaymentRepo{misses: 1}
	f := newCheckoutFixtureWith(t, "", func(inner repository.PaymentRepository) repository.PaymentRepository {
		racer.PaymentRepository = inner
		return racer
	})
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_race", customer.ID, "succeeded", singleMerchantSplit())
	winner := f.seedWinner(t, "pi_race", customer.ID)

	// Fast path misses, so the confirm enters its transaction; the recheck
	// inside it must find the winner and stop before creating anything.
	resp, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_race", "")
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, winner.ID, resp.Order.ID)
	assert.Equal(t, "pay-winner", resp.Payment.ID)

	assert.Equal(t, int64(1), f.countRows(t, &model.Order{}))
	assert.Equal(t, int64(1), f.countRows(t, &model.Payment{}))
	assert.Equal(t, int64(0), f.countRows(t, &model.PayoutBalance{}))
	assert.Empty(t, f.mailer.sent)
}

func TestConfirmOrderDuplicateKeyLoserReturnsWinner(t *testing.T) {
	racer := &staleReadPaymentRepo{misses: 2}
	f := newCheckoutFixtureWith(t, "", func(inner repository.PaymentRepository) repository.PaymentRepository {
		racer.PaymentRepository = inner
		return racer
	})
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_race", customer.ID, "succeeded", singleMerchantSplit())
	winner := f.seedWinner(t, "pi_race", customer.ID)

	// Both the fast path and the in-tx recheck miss, so the confirm builds the
	// whole graph and collides with the winner on payments.transaction_id. The
	// transaction must roll back and the winner's order come back instead.
	resp, err := f.service.ConfirmOrder(ctx, customer.ID, "pi_race", "")
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, winner.ID, resp.Order.ID)
	assert.Equal(t, "pi_race", resp.Payment.TransactionID)

	assert.Equal(t, int64(1), f.countRows(t, &model.Order{}))
	assert.Equal(t, int64(1), f.countRows(t, &model.SubOrder{}))
	assert.Equal(t, int64(1), f.countRows(t, &model.Payment{}))
	assert.Equal(t, int64(0), f.countRows(t, &model.PayoutBalance{}))
	assert.Equal(t, int64(0), f.countRows(t, &model.Address{}))
}

func signWebhookBody(secret string, body []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestHandleWebhookAcceptsSignedDelivery(t *testing.T) {
	const secret = "whsec_test"
	f := newCheckoutFixtureWith(t, secret, nil)
	ctx := context.Background()

	owner := f.seedUser(t, "owner-1")
	f.seedMerchant(t, "m1", owner.ID)
	f.seedProduct(t, "p1", "m1", 20)
	customer := f.seedUser(t, "cust-1")
	f.seedIntent(t, "pi_signed", customer.ID, "succeeded", singleMerchantSplit())

	body := []byte(`{"id":"evt_s1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_signed"}}}`)
	err := f.service.HandleWebhook(ctx, body, signWebhookBody(secret, body, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.countRows(t, &model.Order{}))
}

func TestHandleWebhookRejectsUnsignedOrForgedDelivery(t *testing.T) {
	const secret = "whsec_test"
	f := newCheckoutFixtureWith(t, secret, nil)
	ctx := context.Background()

	body := []byte(`{"id":"evt_s2","type":"payment_intent.succeeded","data":{"object":{"id":"pi_forged"}}}`)

	err := f.service.HandleWebhook(ctx, body, "")
	require.ErrorIs(t, err, ErrInvalidWebhookSignature)

	err = f.service.HandleWebhook(ctx, body, signWebhookBody("wrong-secret", body, time.Now()))
	require.ErrorIs(t, err, ErrInvalidWebhookSignature)

	// A correct signature over a stale timestamp is a replay.
	err = f.service.HandleWebhook(ctx, body, signWebhookBody(secret, body, time.Now().Add(-time.Hour)))
	require.ErrorIs(t, err, ErrInvalidWebhookSignature)

	// Rejected deliveries leave no trace: no dedup rows, no orders.
	assert.Equal(t, int64(0), f.countRows(t, &model.WebhookEvent{}))
	assert.Equal(t, int64(0), f.countRows(t, &model.Order{}))
}
