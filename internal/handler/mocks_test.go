package handler

import (
	"context"
	"net/http"
	"time"

	"coursehunter/internal/catalog"
	"coursehunter/internal/model"
	"coursehunter/internal/service"
	"coursehunter/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCatalogService is a mock implementation of CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Search(ctx context.Context, query string) []catalog.Course {
	args := m.Called(ctx, query)
	return args.Get(0).([]catalog.Course)
}

func (m *MockCatalogService) GetByID(ctx context.Context, id int) (*catalog.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Course), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Purchase(ctx context.Context, handle string, courseID int, now time.Time) (*service.PurchaseOutcome, error) {
	args := m.Called(ctx, handle, courseID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PurchaseOutcome), args.Error(1)
}

func (m *MockOrderService) CooldownRemaining(ctx context.Context, handle string, now time.Time) (time.Duration, error) {
	args := m.Called(ctx, handle, now)
	return args.Get(0).(time.Duration), args.Error(1)
}

// MockAdminService is a mock implementation of AdminService.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Authenticate(code string) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockAdminService) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockAdminService) Fulfill(ctx context.Context, id uuid.UUID, courseLink, customMessage string) (*model.Order, error) {
	args := m.Called(ctx, id, courseLink, customMessage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockAdminService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRequestService is a mock implementation of RequestService.
type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) RequestCourse(ctx context.Context, handle string, req *model.CourseRequest, now time.Time) error {
	args := m.Called(ctx, handle, req, now)
	return args.Error(0)
}

// memoryStore is a session.Store holding a single State.
type memoryStore struct {
	state  session.State
	saves  int
	clears int
}

func (s *memoryStore) Get(r *http.Request) (session.State, error) {
	return s.state, nil
}

func (s *memoryStore) Save(w http.ResponseWriter, r *http.Request, state session.State) error {
	s.state = state
	s.saves++
	return nil
}

func (s *memoryStore) Clear(w http.ResponseWriter, r *http.Request) error {
	s.state = session.State{}
	s.clears++
	return nil
}
