package services

import (
	"context"

	"invoicegen/internal/common"
	"invoicegen/internal/models"
	"invoicegen/internal/repositories"
)

// TemplateInput carries template fields for create and update. Nil
// pointer fields on update leave the stored value unchanged.
type TemplateInput struct {
	Name           *string `json:"name"`
	Layout         *string `json:"layout"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	LogoURL        *string `json:"logo_url"`
	DefaultTerms   *string `json:"default_terms"`
	IsDefault      *bool   `json:"is_default"`
}

type TemplateService interface {
	CreateTemplate(ctx context.Context, userID int64, input TemplateInput) (*models.Template, error)
	GetTemplateByID(ctx context.Context, userID, templateID int64) (*models.Template, error)
	ListTemplates(ctx context.Context, userID int64) ([]*models.Template, error)
	UpdateTemplate(ctx context.Context, userID, templateID int64, input TemplateInput) (*models.Template, error)
	DeleteTemplate(ctx context.Context, userID, templateID int64) error
}

type templateService struct {
	templateRepo repositories.TemplateRepository
}

func NewTemplateService(templateRepo repositories.TemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

func (s *templateService) CreateTemplate(ctx context.Context, userID int64, input TemplateInput) (*models.Template, error) {
	if input.Name == nil || *input.Name == "" {
		return nil, common.NewValidationError("name", "is required")
	}

	template := &models.Template{
		UserID:         userID,
		Name:           *input.Name,
		Layout:         DefaultTemplateName,
		PrimaryColor:   "#000000",
		SecondaryColor: "#666666",
		LogoURL:        input.LogoURL,
		DefaultTerms:   input.DefaultTerms,
	}
	if input.Layout != nil {
		template.Layout = *input.Layout
	}
	if input.PrimaryColor != nil {
		template.PrimaryColor = *input.PrimaryColor
	}
	if input.SecondaryColor != nil {
		template.SecondaryColor = *input.SecondaryColor
	}
	if input.IsDefault != nil {
		template.IsDefault = *input.IsDefault
	}

	// Only one default template per user.
	if template.IsDefault {
		if err := s.templateRepo.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}

	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *templateService) GetTemplateByID(ctx context.Context, userID, templateID int64) (*models.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template.UserID != userID {
		return nil, common.ErrForbidden
	}
	return template, nil
}

func (s *templateService) ListTemplates(ctx context.Context, userID int64) ([]*models.Template, error) {
	return s.templateRepo.List(ctx, userID)
}

func (s *templateService) UpdateTemplate(ctx context.Context, userID, templateID int64, input TemplateInput) (*models.Template, error) {
	template, err := s.GetTemplateByID(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		template.Name = *input.Name
	}
	if input.Layout != nil {
		template.Layout = *input.Layout
	}
	if input.PrimaryColor != nil {
		template.PrimaryColor = *input.PrimaryColor
	}
	if input.SecondaryColor != nil {
		template.SecondaryColor = *input.SecondaryColor
	}
	if input.LogoURL != nil {
		template.LogoURL = input.LogoURL
	}
	if input.DefaultTerms != nil {
		template.DefaultTerms = input.DefaultTerms
	}
	if input.IsDefault != nil && *input.IsDefault && !template.IsDefault {
		if err := s.templateRepo.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
		template.IsDefault = true
	} else if input.IsDefault != nil {
		template.IsDefault = *input.IsDefault
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, userID, templateID int64) error {
	if _, err := s.GetTemplateByID(ctx, userID, templateID); err != nil {
		return err
	}
	return s.templateRepo.Delete(ctx, templateID)
}
