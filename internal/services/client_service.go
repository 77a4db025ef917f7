package services

import (
	"context"

	"invoicegen/internal/common"
	"invoicegen/internal/models"
	"invoicegen/internal/repositories"
)

// ClientInput carries client fields for create and full update.
type ClientInput struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	TaxID   *string `json:"tax_id"`
}

type ClientService interface {
	CreateClient(ctx context.Context, userID int64, input ClientInput) (*models.Client, error)
	GetClientByID(ctx context.Context, userID, clientID int64) (*models.Client, error)
	ListClients(ctx context.Context, userID int64, limit, offset int) ([]*models.Client, int, error)
	UpdateClient(ctx context.Context, userID, clientID int64, input ClientInput) (*models.Client, error)
	DeleteClient(ctx context.Context, userID, clientID int64) error
}

type clientService struct {
	clientRepo repositories.ClientRepository
}

func NewClientService(clientRepo repositories.ClientRepository) ClientService {
	return &clientService{clientRepo: clientRepo}
}

func validateClientInput(input *ClientInput) error {
	if err := common.ValidateRequiredString(input.Name, "name"); err != nil {
		return err
	}
	if err := common.ValidateEmailAddress(input.Email, "email"); err != nil {
		return err
	}
	if err := common.ValidateOptionalString(input.Phone, "phone", 50); err != nil {
		return err
	}
	if err := common.ValidateOptionalString(input.Address, "address", 500); err != nil {
		return err
	}
	return common.ValidateOptionalString(input.TaxID, "tax_id", 100)
}

func (s *clientService) CreateClient(ctx context.Context, userID int64, input ClientInput) (*models.Client, error) {
	if err := validateClientInput(&input); err != nil {
		return nil, err
	}

	client := &models.Client{
		UserID:  userID,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
		TaxID:   input.TaxID,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) GetClientByID(ctx context.Context, userID, clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.UserID != userID {
		return nil, common.ErrForbidden
	}
	return client, nil
}

func (s *clientService) ListClients(ctx context.Context, userID int64, limit, offset int) ([]*models.Client, int, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, 0, common.NewValidationError("offset", err.Error())
	}
	return s.clientRepo.List(ctx, userID, limit, offset)
}

func (s *clientService) UpdateClient(ctx context.Context, userID, clientID int64, input ClientInput) (*models.Client, error) {
	client, err := s.GetClientByID(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	if err := validateClientInput(&input); err != nil {
		return nil, err
	}

	client.Name = input.Name
	client.Email = input.Email
	client.Phone = input.Phone
	client.Address = input.Address
	client.TaxID = input.TaxID

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, userID, clientID int64) error {
	if _, err := s.GetClientByID(ctx, userID, clientID); err != nil {
		return err
	}
	return s.clientRepo.Delete(ctx, clientID)
}
