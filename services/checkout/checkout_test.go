package checkout

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/database/dbtest"
	"github.com/Mouuuuu1/valoria/models"
	cartsvc "github.com/Mouuuuu1/valoria/services/cart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	orders []string
	err    error
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.OrderNumber)
	return n.err
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	carts    *cartsvc.Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	n := &recordingNotifier{}
	return &fixture{
		db:       db,
		svc:      NewService(db, NewNumberGenerator("VAL"), n, zap.NewNop()),
		carts:    cartsvc.NewService(db, zap.NewNop()),
		notifier: n,
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: models.CategoryHandbag,
		Images:   []string{"/img/" + name + ".jpg", "/img/" + name + "-2.jpg"},
		Stock:    stock,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Member", Email: email, PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.Unscoped().First(&p, id).Error)
	return p.Stock
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func address() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   "Ada Lovelace",
		Street:     "12 Market St",
		City:       "London",
		Region:     "Greater London",
		PostalCode: "N1 9GU",
		Country:    "UK",
		Phone:      "+44 20 7946 0000",
	}
}

func guestItems(email string, items ...LineRequest) PlaceOrderInput {
	return PlaceOrderInput{
		Source:          FromItems{Items: items},
		Customer:        Guest{Email: email},
		ShippingAddress: address(),
		PaymentMethod:   "card",
	}
}

func TestPlaceOrderFromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "member@example.com")
	tote := f.product(t, "Tote", "19.99", 5)
	clutch := f.product(t, "Clutch", "120.50", 2)

	_, err := f.carts.AddItem(ctx, u.Subject(), tote.ID, 3)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, u.Subject(), clutch.ID, 1)
	require.NoError(t, err)

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Source:          FromCart{OwnerID: u.Subject()},
		Customer:        Member{UserID: u.ID},
		ShippingAddress: address(),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, f.stock(t, tote.ID))
	assert.Equal(t, 1, f.stock(t, clutch.ID))

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "card", order.PaymentMethod)
	require.NotNil(t, order.UserID)
	assert.Equal(t, u.ID, *order.UserID)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("180.47")), "total %s", order.TotalAmount)
	assert.True(t, order.TotalAmount.Equal(order.LinesTotal()))

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Tote", order.Items[0].Name)
	assert.Equal(t, "/img/Tote.jpg", order.Items[0].Image)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))

	view, err := f.carts.Get(ctx, u.Subject())
	require.NoError(t, err)
	assert.Empty(t, view.Items, "cart is emptied by checkout")

	assert.Equal(t, []string{order.OrderNumber}, f.notifier.orders)
}

func TestSnapshotSurvivesCatalogChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tote := f.product(t, "Tote", "50.00", 5)

	order, err := f.svc.PlaceOrder(ctx, guestItems("guest@example.com", LineRequest{ProductID: tote.ID, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", tote.ID).
		Updates(map[string]any{"name": "Renamed", "price": decimal.NewFromInt(999)}).Error)

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tote", stored.Items[0].Name)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, stored.TotalAmount.Equal(stored.LinesTotal()))
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "member@example.com")

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Source:          FromCart{OwnerID: u.Subject()},
		Customer:        Member{UserID: u.ID},
		ShippingAddress: address(),
	})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.carts.Get(ctx, u.Subject())
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Source:          FromCart{OwnerID: u.Subject()},
		Customer:        Member{UserID: u.ID},
		ShippingAddress: address(),
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestInsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tote := f.product(t, "Tote", "10", 5)
	clutch := f.product(t, "Clutch", "10", 2)

	_, err := f.svc.PlaceOrder(ctx, guestItems("g@example.com",
		LineRequest{ProductID: tote.ID, Quantity: 3},
		LineRequest{ProductID: clutch.ID, Quantity: 3},
	))
	require.Error(t, err)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, clutch.ID, appErr.ProductID)

	assert.Equal(t, 5, f.stock(t, tote.ID))
	assert.Equal(t, 2, f.stock(t, clutch.ID))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OrderItem{}))
	assert.Empty(t, f.notifier.orders)
}

func TestCartCheckoutShortOfStockKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "member@example.com")
	tote := f.product(t, "Tote", "10", 5)

	_, err := f.carts.AddItem(ctx, u.Subject(), tote.ID, 3)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", tote.ID).Update("stock", 2).Error)

	_, err = f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Source:          FromCart{OwnerID: u.Subject()},
		Customer:        Member{UserID: u.ID},
		ShippingAddress: address(),
	})
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, tote.ID, appErr.ProductID)

	assert.Equal(t, 2, f.stock(t, tote.ID))
	assert.Zero(t, f.count(t, &models.Order{}))
	view, err := f.carts.Get(ctx, u.Subject())
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, tote.ID, view.Items[0].ProductID)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestStockIsTakenInProductOrder(t *testing.T) {
	lines := []line{{productID: 7, quantity: 1}, {productID: 2, quantity: 4}, {productID: 5, quantity: 2}}

	sorted := byProduct(lines)
	assert.Equal(t, []line{{productID: 2, quantity: 4}, {productID: 5, quantity: 2}, {productID: 7, quantity: 1}}, sorted)
	assert.Equal(t, uint(7), lines[0].productID, "input order is kept for the cart comparison")
}

func TestExactStockSucceeds(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 5)

	_, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com", LineRequest{ProductID: tote.ID, Quantity: 5}))
	require.NoError(t, err)
	assert.Zero(t, f.stock(t, tote.ID))
}

func TestFailureInsideTransactionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tote := f.product(t, "Tote", "10", 5)
	clutch := f.product(t, "Clutch", "10", 5)

	// Passes the pre-check, then loses the race for clutch inside the
	// transaction after tote was already decremented.
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:steal_stock", func(db *gorm.DB) {
		if db.Statement.Table == "products" {
			db.Session(&gorm.Session{NewDB: true}).Exec("UPDATE products SET stock = 0 WHERE id = ?", clutch.ID)
		}
	}))

	_, err := f.svc.PlaceOrder(ctx, guestItems("g@example.com",
		LineRequest{ProductID: tote.ID, Quantity: 2},
		LineRequest{ProductID: clutch.ID, Quantity: 1},
	))
	require.NoError(t, f.db.Callback().Update().Remove("test:steal_stock"))
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock), "got %v", err)

	assert.Equal(t, 5, f.stock(t, tote.ID), "tote decrement rolled back")
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestGuestMissingProductWritesNothing(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 5)

	_, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com",
		LineRequest{ProductID: tote.ID, Quantity: 1},
		LineRequest{ProductID: 404, Quantity: 1},
	))
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
	assert.Equal(t, uint(404), appErr.ProductID)

	assert.Equal(t, 5, f.stock(t, tote.ID))
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestDeletedProductCannotBeOrdered(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 5)
	require.NoError(t, f.db.Delete(&models.Product{}, tote.ID).Error)

	_, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com", LineRequest{ProductID: tote.ID, Quantity: 1}))
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDuplicateLinesAreMerged(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 3)

	_, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com",
		LineRequest{ProductID: tote.ID, Quantity: 2},
		LineRequest{ProductID: tote.ID, Quantity: 2},
	))
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
	assert.Equal(t, 3, f.stock(t, tote.ID))

	order, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com",
		LineRequest{ProductID: tote.ID, Quantity: 1},
		LineRequest{ProductID: tote.ID, Quantity: 2},
	))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 5)
	req := LineRequest{ProductID: tote.ID, Quantity: 1}

	tests := []struct {
		name string
		in   PlaceOrderInput
		kind apperr.Kind
	}{
		{"bad guest email", guestItems("not-an-email", req), apperr.KindValidation},
		{"no items", guestItems("g@example.com"), apperr.KindValidation},
		{"zero quantity", guestItems("g@example.com", LineRequest{ProductID: tote.ID}), apperr.KindValidation},
		{"missing address", func() PlaceOrderInput {
			in := guestItems("g@example.com", req)
			in.ShippingAddress = models.ShippingAddress{}
			return in
		}(), apperr.KindValidation},
		{"unknown payment method", func() PlaceOrderInput {
			in := guestItems("g@example.com", req)
			in.PaymentMethod = "barter"
			return in
		}(), apperr.KindValidation},
		{"no customer", PlaceOrderInput{Source: FromItems{Items: []LineRequest{req}}, ShippingAddress: address()}, apperr.KindValidation},
		{"unknown member", PlaceOrderInput{Source: FromItems{Items: []LineRequest{req}}, Customer: Member{UserID: 77}, ShippingAddress: address()}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), tt.in)
			assert.True(t, apperr.IsKind(err, tt.kind), "got %v", err)
		})
	}
	assert.Equal(t, 5, f.stock(t, tote.ID))
}

func TestMemberShippingProfileIsDefault(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "member@example.com")
	require.NoError(t, f.db.Model(u).Updates(models.User{ShippingProfile: address()}).Error)
	tote := f.product(t, "Tote", "10", 5)

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Source:   FromItems{Items: []LineRequest{{ProductID: tote.ID, Quantity: 1}}},
		Customer: Member{UserID: u.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, address(), order.ShippingAddress)
}

func TestGuestEmailIsNormalized(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 5)

	order, err := f.svc.PlaceOrder(context.Background(), guestItems("  Guest@Example.COM ", LineRequest{ProductID: tote.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", order.GuestEmail)
	assert.Nil(t, order.UserID)
}

func TestConcurrentCheckoutOfLastUnit(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 1)

	const buyers = 4
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(context.Background(), guestItems("g@example.com", LineRequest{ProductID: tote.ID, Quantity: 1}))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Zero(t, f.stock(t, tote.ID))
	assert.Equal(t, int64(1), f.count(t, &models.Order{}))
}

func TestConcurrentCheckoutOfSameCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "member@example.com")
	tote := f.product(t, "Tote", "10", 10)
	_, err := f.carts.AddItem(ctx, u.Subject(), tote.ID, 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(ctx, PlaceOrderInput{
				Source:          FromCart{OwnerID: u.Subject()},
				Customer:        Member{UserID: u.ID},
				ShippingAddress: address(),
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), f.count(t, &models.Order{}), "errors: %v", errs)
	assert.Equal(t, 8, f.stock(t, tote.ID))
}

func TestNotifierFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	tote := f.product(t, "Tote", "10", 5)

	order, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com", LineRequest{ProductID: tote.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, int64(1), f.count(t, &models.Order{}))
	assert.Equal(t, 4, f.stock(t, tote.ID))
}

func TestOrderNumberFormat(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 5)

	order, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com", LineRequest{ProductID: tote.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^VAL-\d{13}-[0-9A-F]{6}$`), order.OrderNumber)
}

func TestOrderNumberCollisionRetries(t *testing.T) {
	f := newFixture(t)
	tote := f.product(t, "Tote", "10", 5)

	gen := f.svc.numbers
	gen.now = func() time.Time { return time.UnixMilli(1700000000000) }
	suffixes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	gen.suffix = func() string {
		s := suffixes[0]
		if len(suffixes) > 1 {
			suffixes = suffixes[1:]
		}
		return s
	}

	first, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com", LineRequest{ProductID: tote.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "VAL-1700000000000-AAAAAA", first.OrderNumber)

	second, err := f.svc.PlaceOrder(context.Background(), guestItems("g@example.com", LineRequest{ProductID: tote.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "VAL-1700000000000-BBBBBB", second.OrderNumber)

	gen.suffix = func() string { return "BBBBBB" }
	_, err = f.svc.PlaceOrder(context.Background(), guestItems("g@example.com", LineRequest{ProductID: tote.ID, Quantity: 1}))
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "got %v", err)
	assert.Equal(t, 3, f.stock(t, tote.ID))
}
