package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/catalog"
	"github.com/stupidkubik/Stripe-mini-app-sub000/internal/payment"
)

type catalogMock struct {
	products []catalog.Product
	err      error
}

func (m *catalogMock) ListProducts(context.Context) ([]catalog.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *catalogMock) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

type paymentMock struct {
	session *payment.Session
	err     error

	calls      int
	lastParams payment.SessionParams
}

func (m *paymentMock) CreateSession(_ context.Context, params payment.SessionParams) (*payment.Session, error) {
	m.calls++
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *paymentMock) GetSession(context.Context, string) (*payment.Session, error) {
	return m.session, m.err
}

func newTestService(catalogMock *catalogMock, paymentMock *paymentMock) *Service {
	return NewService(catalogMock, paymentMock, "http://localhost:8080", zap.NewNop())
}

func usdCatalog() *catalogMock {
	return &catalogMock{products: []catalog.Product{
		{ID: "prod_1", PriceID: "P1", Name: "Widget", UnitAmount: 2500, Currency: "USD"},
		{ID: "prod_2", PriceID: "P2", Name: "Gadget", UnitAmount: 900, Currency: "USD"},
	}}
}

func checkoutError(t *testing.T, err error) *Error {
	t.Helper()
	var ce *Error
	require.ErrorAs(t, err, &ce)
	return ce
}

func TestCreateSession_Success(t *testing.T) {
	payments := &paymentMock{session: &payment.Session{ID: "cs_test_123"}}
	service := newTestService(usdCatalog(), payments)

	sessionID, err := service.CreateSession(context.Background(), Request{
		CustomerEmail: "buyer@example.com",
		Items:         []RequestItem{{PriceID: "P1", Quantity: 2}},
	}, "", "cart-1")

	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", sessionID)

	require.Len(t, payments.lastParams.LineItems, 1)
	assert.Equal(t, "P1", payments.lastParams.LineItems[0].PriceID)
	assert.Equal(t, int64(2), payments.lastParams.LineItems[0].Quantity)
	assert.Equal(t, "buyer@example.com", payments.lastParams.CustomerEmail)
	assert.Equal(t, map[string]string{"cart_id": "cart-1"}, payments.lastParams.Metadata)
	assert.Equal(t, "http://localhost:8080/success?session_id={CHECKOUT_SESSION_ID}",
		payments.lastParams.SuccessURL)
	assert.Equal(t, "http://localhost:8080/cart", payments.lastParams.CancelURL)
}

func TestCreateSession_OriginOverridesBaseURL(t *testing.T) {
	payments := &paymentMock{session: &payment.Session{ID: "cs_test_123"}}
	service := newTestService(usdCatalog(), payments)

	_, err := service.CreateSession(context.Background(), Request{
		Items: []RequestItem{{PriceID: "P1", Quantity: 1}},
	}, "https://shop.example.com", "")

	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/cart", payments.lastParams.CancelURL)
	assert.Nil(t, payments.lastParams.Metadata)
}

func TestCreateSession_InvalidPayload(t *testing.T) {
	cases := []struct {
		name    string
		request Request
	}{
		{"no items", Request{}},
		{"empty items", Request{Items: []RequestItem{}}},
		{"blank price id", Request{Items: []RequestItem{{PriceID: ""}}}},
		{"quantity too high", Request{Items: []RequestItem{{PriceID: "P1", Quantity: 11}}}},
		{"quantity negative", Request{Items: []RequestItem{{PriceID: "P1", Quantity: -1}}}},
		{"bad email", Request{
			CustomerEmail: "not-an-email",
			Items:         []RequestItem{{PriceID: "P1", Quantity: 1}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payments := &paymentMock{session: &payment.Session{ID: "cs_test_123"}}
			service := newTestService(usdCatalog(), payments)

			_, err := service.CreateSession(context.Background(), tc.request, "", "")

			ce := checkoutError(t, err)
			assert.Equal(t, CodeInvalidPayload, ce.Code)
			assert.Equal(t, 400, ce.Status)
			assert.NotEmpty(t, ce.Issues)
			assert.Zero(t, payments.calls, "session creation must not be reached")
		})
	}
}

func TestCreateSession_MultipleIssuesReported(t *testing.T) {
	service := newTestService(usdCatalog(), &paymentMock{})

	_, err := service.CreateSession(context.Background(), Request{
		CustomerEmail: "nope",
		Items:         []RequestItem{{PriceID: "", Quantity: 99}},
	}, "", "")

	ce := checkoutError(t, err)
	assert.Equal(t, CodeInvalidPayload, ce.Code)
	assert.GreaterOrEqual(t, len(ce.Issues), 3)
}

func TestCreateSession_RejectsUnknownPrice(t *testing.T) {
	payments := &paymentMock{session: &payment.Session{ID: "cs_test_123"}}
	service := newTestService(&catalogMock{products: []catalog.Product{
		{ID: "prod_1", PriceID: "P1", UnitAmount: 2500, Currency: "USD"},
	}}, payments)

	_, err := service.CreateSession(context.Background(), Request{
		Items: []RequestItem{{PriceID: "P2", Quantity: 1}},
	}, "", "")

	ce := checkoutError(t, err)
	assert.Equal(t, CodeItemUnavailable, ce.Code)
	assert.Zero(t, payments.calls, "session creation must never be called")
}

func TestCreateSession_MergesDuplicatePrices(t *testing.T) {
	payments := &paymentMock{session: &payment.Session{ID: "cs_test_123"}}
	service := newTestService(usdCatalog(), payments)

	_, err := service.CreateSession(context.Background(), Request{
		Items: []RequestItem{
			{PriceID: "P1", Quantity: 4},
			{PriceID: "P1", Quantity: 9},
		},
	}, "", "")

	require.NoError(t, err)
	require.Len(t, payments.lastParams.LineItems, 1)
	assert.Equal(t, int64(10), payments.lastParams.LineItems[0].Quantity,
		"4+9 caps at 10, not 13")
}

func TestCreateSession_DefaultQuantityIsOne(t *testing.T) {
	payments := &paymentMock{session: &payment.Session{ID: "cs_test_123"}}
	service := newTestService(usdCatalog(), payments)

	_, err := service.CreateSession(context.Background(), Request{
		Items: []RequestItem{{PriceID: "P2"}},
	}, "", "")

	require.NoError(t, err)
	require.Len(t, payments.lastParams.LineItems, 1)
	assert.Equal(t, int64(1), payments.lastParams.LineItems[0].Quantity)
}

func TestCreateSession_CatalogFailure(t *testing.T) {
	service := newTestService(&catalogMock{err: errors.New("stripe down")}, &paymentMock{})

	_, err := service.CreateSession(context.Background(), Request{
		Items: []RequestItem{{PriceID: "P1", Quantity: 1}},
	}, "", "")

	ce := checkoutError(t, err)
	assert.Equal(t, CodeCheckoutFailed, ce.Code)
	assert.Equal(t, 500, ce.Status)
}

func TestCreateSession_ProviderFailure(t *testing.T) {
	payments := &paymentMock{err: errors.New("stripe rejected the request")}
	service := newTestService(usdCatalog(), payments)

	_, err := service.CreateSession(context.Background(), Request{
		Items: []RequestItem{{PriceID: "P1", Quantity: 1}},
	}, "", "")

	ce := checkoutError(t, err)
	assert.Equal(t, CodeCheckoutFailed, ce.Code)
	assert.Equal(t, 500, ce.Status)
}
