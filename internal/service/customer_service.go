package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
)

// CustomerService manages customer records. After every profile mutation it
// re-checks quote eligibility so lead cascades fire the moment the profile
// becomes complete.
type CustomerService struct {
	customerRepo *repository.CustomerRepository
	numbers      *NumberSequenceService
	workflow     *LeadWorkflowService
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo *repository.CustomerRepository,
	numbers *NumberSequenceService,
	workflow *LeadWorkflowService,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		numbers:      numbers,
		workflow:     workflow,
		logger:       logger,
	}
}

// GetCustomer returns one customer by id.
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

// ListCustomers returns a page of customers, optionally filtered by a
// search term over name, email, number and postcode.
func (s *CustomerService) ListCustomers(ctx context.Context, page, pageSize int, search string) ([]domain.Customer, int64, error) {
	return s.customerRepo.List(ctx, page, pageSize, search)
}

// CreateCustomer creates a customer directly (import or walk-in path) with
// a freshly allocated customer number.
func (s *CustomerService) CreateCustomer(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.Customer, error) {
	number, err := s.numbers.GenerateCustomerNumber(ctx)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		CustomerNumber: number,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		AddressLine1:   req.AddressLine1,
		AddressLine2:   req.AddressLine2,
		City:           req.City,
		County:         req.County,
		Postcode:       req.Postcode,
		Source:         req.Source,
		Notes:          req.Notes,
	}
	if req.Country != "" {
		customer.Country = req.Country
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("customer_number", customer.CustomerNumber))

	s.workflow.CheckQuoteEligibility(ctx, customer.ID)
	return customer, nil
}

// UpdateCustomer applies a partial update and re-checks quote eligibility.
// A blocked downstream cascade never fails the update itself.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.AddressLine1 != nil {
		customer.AddressLine1 = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		customer.AddressLine2 = *req.AddressLine2
	}
	if req.City != nil {
		customer.City = *req.City
	}
	if req.County != nil {
		customer.County = *req.County
	}
	if req.Postcode != nil {
		customer.Postcode = *req.Postcode
	}
	if req.Country != nil {
		customer.Country = *req.Country
	}
	if req.Source != nil {
		customer.Source = *req.Source
	}
	if req.Notes != nil {
		customer.Notes = *req.Notes
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}

	s.workflow.CheckQuoteEligibility(ctx, customer.ID)
	return customer, nil
}
