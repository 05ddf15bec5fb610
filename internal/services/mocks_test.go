package services_test

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"tiffin/internal/events"
	"tiffin/internal/identity"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id string, apply func(*models.User)) (*models.User, error) {
	args := m.Called(ctx, id, mock.Anything)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	user := args.Get(0).(*models.User)
	apply(user)
	return user, args.Error(1)
}

// MockTiffinRepository is a mock implementation of repositories.TiffinRepository
type MockTiffinRepository struct {
	mock.Mock
}

func (m *MockTiffinRepository) List(ctx context.Context, filter repositories.TiffinFilter) ([]models.Tiffin, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tiffin), args.Error(1)
}

func (m *MockTiffinRepository) GetByID(ctx context.Context, id string) (*models.Tiffin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tiffin), args.Error(1)
}

func (m *MockTiffinRepository) Create(ctx context.Context, tiffin *models.Tiffin) error {
	args := m.Called(ctx, tiffin)
	return args.Error(0)
}

func (m *MockTiffinRepository) Update(ctx context.Context, id string, apply func(*models.Tiffin)) (*models.Tiffin, error) {
	args := m.Called(ctx, id, mock.Anything)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	tiffin := args.Get(0).(*models.Tiffin)
	apply(tiffin)
	return tiffin, args.Error(1)
}

func (m *MockTiffinRepository) Delete(ctx context.Context, id string) (*models.Tiffin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tiffin), args.Error(1)
}

func (m *MockTiffinRepository) IncrementOrderCount(ctx context.Context, id string, n int) error {
	args := m.Called(ctx, id, n)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]models.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, from, to models.PaymentStatus) (*models.Order, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

// MockVerifier is a mock implementation of identity.Verifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Identity), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
