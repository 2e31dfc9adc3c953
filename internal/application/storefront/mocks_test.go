package storefront

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/catalog"
)

// MockEntryRepository is a mock implementation of cart.EntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) ListByUser(ctx context.Context, userID string) ([]cart.Entry, error) {
	args := m.Called(ctx, userID)
	entries, _ := args.Get(0).([]cart.Entry)
	return entries, args.Error(1)
}

func (m *MockEntryRepository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*cart.Entry, error) {
	args := m.Called(ctx, userID, id)
	e, _ := args.Get(0).(*cart.Entry)
	return e, args.Error(1)
}

func (m *MockEntryRepository) FindByProduct(ctx context.Context, userID, productID string) (*cart.Entry, error) {
	args := m.Called(ctx, userID, productID)
	e, _ := args.Get(0).(*cart.Entry)
	return e, args.Error(1)
}

func (m *MockEntryRepository) Save(ctx context.Context, e *cart.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEntryRepository) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntryRepository) DeleteAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*catalog.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]catalog.Product)
	return ps, args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRateRepository is a mock implementation of catalog.RateRepository
type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) FindByCode(ctx context.Context, code string) (*catalog.HSNRate, error) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(*catalog.HSNRate)
	return r, args.Error(1)
}

func (m *MockRateRepository) Save(ctx context.Context, r *catalog.HSNRate) error {
	return m.Called(ctx, r).Error(0)
}
