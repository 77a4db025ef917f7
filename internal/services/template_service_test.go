package services

import (
	"context"
	"testing"

	"invoicegen/internal/common"
	"invoicegen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TemplateServiceTestSuite struct {
	suite.Suite
	templateRepo *MockTemplateRepository
	service      TemplateService
	ctx          context.Context
	userID       int64
}

func (suite *TemplateServiceTestSuite) SetupTest() {
	suite.templateRepo = new(MockTemplateRepository)
	suite.service = NewTemplateService(suite.templateRepo)
	suite.ctx = context.Background()
	suite.userID = 1
}

func TestTemplateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TemplateServiceTestSuite))
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func (suite *TemplateServiceTestSuite) TestCreateTemplate_Defaults() {
	suite.templateRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Template")).Return(nil)

	template, err := suite.service.CreateTemplate(suite.ctx, suite.userID, TemplateInput{Name: strPtr("My brand")})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DefaultTemplateName, template.Layout)
	assert.Equal(suite.T(), "#000000", template.PrimaryColor)
	assert.False(suite.T(), template.IsDefault)
	suite.templateRepo.AssertNotCalled(suite.T(), "ClearDefault", mock.Anything, mock.Anything)
}

func (suite *TemplateServiceTestSuite) TestCreateTemplate_NameRequired() {
	_, err := suite.service.CreateTemplate(suite.ctx, suite.userID, TemplateInput{})

	verr, ok := common.AsValidation(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "name", verr.Field)
}

func (suite *TemplateServiceTestSuite) TestCreateTemplate_DefaultDisplacesPrevious() {
	suite.templateRepo.On("ClearDefault", suite.ctx, suite.userID).Return(nil)
	suite.templateRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Template")).Return(nil)

	template, err := suite.service.CreateTemplate(suite.ctx, suite.userID, TemplateInput{
		Name:      strPtr("New default"),
		Layout:    strPtr("compact"),
		IsDefault: boolPtr(true),
	})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), template.IsDefault)
	suite.templateRepo.AssertCalled(suite.T(), "ClearDefault", suite.ctx, suite.userID)
}

func (suite *TemplateServiceTestSuite) TestUpdateTemplate_PromoteToDefault() {
	existing := &models.Template{ID: 5, UserID: suite.userID, Name: "Plain", Layout: "standard"}
	suite.templateRepo.On("GetByID", suite.ctx, int64(5)).Return(existing, nil)
	suite.templateRepo.On("ClearDefault", suite.ctx, suite.userID).Return(nil)
	suite.templateRepo.On("Update", suite.ctx, mock.AnythingOfType("*models.Template")).Return(nil)

	template, err := suite.service.UpdateTemplate(suite.ctx, suite.userID, 5, TemplateInput{IsDefault: boolPtr(true)})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), template.IsDefault)
}

func (suite *TemplateServiceTestSuite) TestUpdateTemplate_OtherOwnerForbidden() {
	existing := &models.Template{ID: 5, UserID: 2, Name: "Plain"}
	suite.templateRepo.On("GetByID", suite.ctx, int64(5)).Return(existing, nil)

	_, err := suite.service.UpdateTemplate(suite.ctx, suite.userID, 5, TemplateInput{Name: strPtr("Hijack")})

	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
	suite.templateRepo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *TemplateServiceTestSuite) TestDeleteTemplate_Missing() {
	suite.templateRepo.On("GetByID", suite.ctx, int64(99)).Return(nil, common.ErrNotFound)

	err := suite.service.DeleteTemplate(suite.ctx, suite.userID, 99)

	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}
