package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/pkg/apperror"
	"github.com/sangkips/fieldops-api/pkg/pagination"
)

// ClientService handles client-related operations
type ClientService struct {
	clientRepo repository.ClientRepository
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

// CreateClientInput represents the create client input
type CreateClientInput struct {
	Name          string
	TaxID         string
	BusinessName  string
	Address       string
	Email         *string
	Phone         *string
	ContactPerson *string
}

// CreateClient creates a new client
func (s *ClientService) CreateClient(ctx context.Context, input *CreateClientInput) (*entity.Client, error) {
	var fieldErrors []apperror.FieldError
	required := []struct{ field, value string }{
		{"name", input.Name},
		{"tax_id", input.TaxID},
		{"business_name", input.BusinessName},
		{"address", input.Address},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: r.field, Message: "is required"})
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	client := &entity.Client{
		Name:          input.Name,
		TaxID:         input.TaxID,
		BusinessName:  input.BusinessName,
		Address:       input.Address,
		Email:         input.Email,
		Phone:         input.Phone,
		ContactPerson: input.ContactPerson,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, storeErr(err)
	}

	return client, nil
}

// GetClient retrieves a client by ID
func (s *ClientService) GetClient(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if client == nil {
		return nil, apperror.NewNotFoundError("Client")
	}
	return client, nil
}

// ListClients lists clients, optionally matching search against name, business name or tax id
func (s *ClientService) ListClients(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Client], error) {
	clients, total, err := s.clientRepo.List(ctx, params, search)
	if err != nil {
		return nil, storeErr(err)
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(clients, pag), nil
}
