package services

import (
	"context"
	"testing"
	"time"

	"invoicegen/internal/common"
	"invoicegen/internal/models"
	"invoicegen/internal/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// Mock repositories
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, userID int64, filter repositories.InvoiceFilter, limit, offset int) ([]*models.Invoice, int, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	return args.Get(0).([]*models.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice, replaceItems bool) error {
	args := m.Called(ctx, invoice, replaceItems)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, id int64, status models.InvoiceStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindDuplicate(ctx context.Context, userID, clientID int64, amount decimal.Decimal, issueDate time.Time) (*models.Invoice, error) {
	args := m.Called(ctx, userID, clientID, amount, issueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, tx pgx.Tx, userID int64, year int) (string, error) {
	args := m.Called(ctx, tx, userID, year)
	return args.String(0), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) List(ctx context.Context, userID int64, limit, offset int) ([]*models.Client, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*models.Client), args.Int(1), args.Error(2)
}

func (m *MockClientRepository) Update(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, template *models.Template) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) GetByID(ctx context.Context, id int64) (*models.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

func (m *MockTemplateRepository) List(ctx context.Context, userID int64) ([]*models.Template, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Template), args.Error(1)
}

func (m *MockTemplateRepository) Update(ctx context.Context, template *models.Template) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTemplateRepository) GetDefault(ctx context.Context, userID int64) (*models.Template, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

func (m *MockTemplateRepository) ClearDefault(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeInvoiceTotal(t *testing.T) {
	t.Run("two items at 10 percent tax", func(t *testing.T) {
		items := []models.LineItem{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("100"), TaxRate: dec("10")},
		}
		total := ComputeInvoiceTotal(items)
		assert.True(t, total.Equal(dec("220")), "got %s", total)
	})

	t.Run("no items is zero", func(t *testing.T) {
		assert.True(t, ComputeInvoiceTotal(nil).IsZero())
	})

	t.Run("zero tax rate adds nothing", func(t *testing.T) {
		items := []models.LineItem{
			{Description: "Hosting", Quantity: dec("3"), UnitPrice: dec("25.50"), TaxRate: dec("0")},
		}
		assert.True(t, ComputeInvoiceTotal(items).Equal(dec("76.5")))
	})

	t.Run("order of items does not change the total", func(t *testing.T) {
		a := models.LineItem{Description: "A", Quantity: dec("1.5"), UnitPrice: dec("99.99"), TaxRate: dec("7.25")}
		b := models.LineItem{Description: "B", Quantity: dec("4"), UnitPrice: dec("12.34"), TaxRate: dec("20")}
		c := models.LineItem{Description: "C", Quantity: dec("10"), UnitPrice: dec("0.10"), TaxRate: dec("0")}

		forward := ComputeInvoiceTotal([]models.LineItem{a, b, c})
		reversed := ComputeInvoiceTotal([]models.LineItem{c, b, a})
		assert.True(t, forward.Equal(reversed))
	})

	t.Run("fractional quantities stay exact", func(t *testing.T) {
		items := []models.LineItem{
			{Description: "Hours", Quantity: dec("0.1"), UnitPrice: dec("0.2"), TaxRate: dec("0")},
		}
		// 0.1 * 0.2 == 0.02 exactly, which float arithmetic would miss.
		assert.True(t, ComputeInvoiceTotal(items).Equal(dec("0.02")))
	})
}

type InvoiceServiceTestSuite struct {
	suite.Suite
	invoiceRepo  *MockInvoiceRepository
	clientRepo   *MockClientRepository
	templateRepo *MockTemplateRepository
	service      InvoiceServiceInterface
	ctx          context.Context

	userID   int64
	otherID  int64
	clientID int64
}

func (suite *InvoiceServiceTestSuite) SetupTest() {
	suite.invoiceRepo = new(MockInvoiceRepository)
	suite.clientRepo = new(MockClientRepository)
	suite.templateRepo = new(MockTemplateRepository)
	suite.service = NewInvoiceService(suite.invoiceRepo, suite.clientRepo, suite.templateRepo)
	suite.ctx = context.Background()

	suite.userID = 1
	suite.otherID = 2
	suite.clientID = 10
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}

func (suite *InvoiceServiceTestSuite) ownedClient() *models.Client {
	return &models.Client{ID: suite.clientID, UserID: suite.userID, Name: "Acme", Email: "billing@acme.test"}
}

func (suite *InvoiceServiceTestSuite) validCreateInput() CreateInvoiceInput {
	issue := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return CreateInvoiceInput{
		ClientID:  suite.clientID,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 1, 0),
		Currency:  "USD",
		LineItems: []LineItemInput{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("100"), TaxRate: dec("10")},
		},
	}
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_Success() {
	suite.clientRepo.On("GetByID", suite.ctx, suite.clientID).Return(suite.ownedClient(), nil)
	suite.templateRepo.On("GetDefault", suite.ctx, suite.userID).Return(nil, nil)
	suite.invoiceRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Invoice")).Return(nil)

	invoice, err := suite.service.CreateInvoice(suite.ctx, suite.userID, suite.validCreateInput())

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusDraft, invoice.Status)
	assert.True(suite.T(), invoice.Amount.Equal(dec("220.00")))
	assert.Equal(suite.T(), DefaultTemplateName, invoice.TemplateName)
	assert.Len(suite.T(), invoice.LineItems, 1)
	suite.invoiceRepo.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_UsesDefaultTemplate() {
	suite.clientRepo.On("GetByID", suite.ctx, suite.clientID).Return(suite.ownedClient(), nil)
	suite.templateRepo.On("GetDefault", suite.ctx, suite.userID).
		Return(&models.Template{ID: 5, UserID: suite.userID, Name: "My brand", Layout: "compact", IsDefault: true}, nil)
	suite.invoiceRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Invoice")).Return(nil)

	invoice, err := suite.service.CreateInvoice(suite.ctx, suite.userID, suite.validCreateInput())

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "compact", invoice.TemplateName)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_NoLineItems() {
	input := suite.validCreateInput()
	input.LineItems = nil

	_, err := suite.service.CreateInvoice(suite.ctx, suite.userID, input)

	verr, ok := common.AsValidation(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "line_items", verr.Field)
	suite.invoiceRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_DueBeforeIssue() {
	input := suite.validCreateInput()
	input.DueDate = input.IssueDate.AddDate(0, 0, -1)

	_, err := suite.service.CreateInvoice(suite.ctx, suite.userID, input)

	verr, ok := common.AsValidation(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "due_date", verr.Field)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_UnsupportedCurrency() {
	input := suite.validCreateInput()
	input.Currency = "JPY"

	_, err := suite.service.CreateInvoice(suite.ctx, suite.userID, input)

	verr, ok := common.AsValidation(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "currency", verr.Field)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_ZeroQuantity() {
	input := suite.validCreateInput()
	input.LineItems[0].Quantity = dec("0")

	_, err := suite.service.CreateInvoice(suite.ctx, suite.userID, input)

	_, ok := common.AsValidation(err)
	assert.True(suite.T(), ok)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_TaxRateOverHundred() {
	input := suite.validCreateInput()
	input.LineItems[0].TaxRate = dec("101")

	_, err := suite.service.CreateInvoice(suite.ctx, suite.userID, input)

	_, ok := common.AsValidation(err)
	assert.True(suite.T(), ok)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_ClientOwnedByOther() {
	foreign := suite.ownedClient()
	foreign.UserID = suite.otherID
	suite.clientRepo.On("GetByID", suite.ctx, suite.clientID).Return(foreign, nil)

	_, err := suite.service.CreateInvoice(suite.ctx, suite.userID, suite.validCreateInput())

	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
	suite.invoiceRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestGetInvoice_OtherOwnerForbidden() {
	invoice := &models.Invoice{ID: 7, UserID: suite.otherID, ClientID: suite.clientID}
	suite.invoiceRepo.On("GetByID", suite.ctx, int64(7)).Return(invoice, nil)

	_, err := suite.service.GetInvoiceByID(suite.ctx, suite.userID, 7)

	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
}

func (suite *InvoiceServiceTestSuite) TestGetInvoice_Missing() {
	suite.invoiceRepo.On("GetByID", suite.ctx, int64(99)).Return(nil, common.ErrNotFound)

	_, err := suite.service.GetInvoiceByID(suite.ctx, suite.userID, 99)

	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_ReplacesLineItemsAndRecomputes() {
	existing := &models.Invoice{
		ID: 7, UserID: suite.userID, ClientID: suite.clientID,
		Status: models.StatusDraft, Currency: "USD",
		Amount:    dec("220.00"),
		IssueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	suite.invoiceRepo.On("GetByID", suite.ctx, int64(7)).Return(existing, nil)
	suite.invoiceRepo.On("Update", suite.ctx, mock.AnythingOfType("*models.Invoice"), true).Return(nil)

	_, err := suite.service.UpdateInvoice(suite.ctx, suite.userID, 7, UpdateInvoiceInput{
		LineItems: []LineItemInput{
			{Description: "Support", Quantity: dec("1"), UnitPrice: dec("50"), TaxRate: dec("0")},
		},
	})

	assert.NoError(suite.T(), err)
	updated := suite.invoiceRepo.Calls[1].Arguments.Get(1).(*models.Invoice)
	assert.True(suite.T(), updated.Amount.Equal(dec("50.00")))
	assert.Len(suite.T(), updated.LineItems, 1)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_NilLineItemsKeepsAmount() {
	existing := &models.Invoice{
		ID: 7, UserID: suite.userID, ClientID: suite.clientID,
		Status: models.StatusDraft, Currency: "USD",
		Amount:    dec("220.00"),
		IssueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	notes := "updated"
	suite.invoiceRepo.On("GetByID", suite.ctx, int64(7)).Return(existing, nil)
	suite.invoiceRepo.On("Update", suite.ctx, mock.AnythingOfType("*models.Invoice"), false).Return(nil)

	_, err := suite.service.UpdateInvoice(suite.ctx, suite.userID, 7, UpdateInvoiceInput{Notes: &notes})

	assert.NoError(suite.T(), err)
	updated := suite.invoiceRepo.Calls[1].Arguments.Get(1).(*models.Invoice)
	assert.True(suite.T(), updated.Amount.Equal(dec("220.00")))
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_AnyTransitionAllowed() {
	existing := &models.Invoice{ID: 7, UserID: suite.userID, Status: models.StatusPaid}
	suite.invoiceRepo.On("GetByID", suite.ctx, int64(7)).Return(existing, nil)
	suite.invoiceRepo.On("UpdateStatus", suite.ctx, int64(7), models.StatusDraft).Return(nil)

	invoice, err := suite.service.UpdateInvoiceStatus(suite.ctx, suite.userID, 7, models.StatusDraft)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusDraft, invoice.Status)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_UnknownStatus() {
	_, err := suite.service.UpdateInvoiceStatus(suite.ctx, suite.userID, 7, models.InvoiceStatus("archived"))

	_, ok := common.AsValidation(err)
	assert.True(suite.T(), ok)
	suite.invoiceRepo.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestCloneInvoice_ResetsIssueDateAndStatus() {
	original := &models.Invoice{
		ID: 7, UserID: suite.userID, ClientID: suite.clientID,
		InvoiceNumber: "INV-2024-00001",
		Status:        models.StatusPaid,
		Currency:      "EUR",
		Amount:        dec("220.00"),
		IssueDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		TemplateName:  "compact",
		LineItems: []models.LineItem{
			{ID: 100, InvoiceID: 7, Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("100"), TaxRate: dec("10")},
		},
	}
	suite.invoiceRepo.On("GetByID", suite.ctx, int64(7)).Return(original, nil)
	suite.invoiceRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Invoice")).Return(nil)

	clone, err := suite.service.CloneInvoice(suite.ctx, suite.userID, 7)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusDraft, clone.Status)
	assert.Empty(suite.T(), clone.InvoiceNumber)

	today := time.Now().UTC()
	assert.Equal(suite.T(), today.Year(), clone.IssueDate.Year())
	assert.Equal(suite.T(), today.YearDay(), clone.IssueDate.YearDay())

	// Due date, amount and currency are carried over verbatim.
	assert.True(suite.T(), clone.DueDate.Equal(original.DueDate))
	assert.True(suite.T(), clone.Amount.Equal(original.Amount))
	assert.Equal(suite.T(), "EUR", clone.Currency)
	assert.Equal(suite.T(), "compact", clone.TemplateName)

	// Line items are copies, not the original rows.
	assert.Len(suite.T(), clone.LineItems, 1)
	assert.Zero(suite.T(), clone.LineItems[0].ID)
	assert.Equal(suite.T(), "Consulting", clone.LineItems[0].Description)
}

func (suite *InvoiceServiceTestSuite) TestDeleteInvoice_OtherOwnerForbidden() {
	invoice := &models.Invoice{ID: 7, UserID: suite.otherID}
	suite.invoiceRepo.On("GetByID", suite.ctx, int64(7)).Return(invoice, nil)

	err := suite.service.DeleteInvoice(suite.ctx, suite.userID, 7)

	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
	suite.invoiceRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestFindDuplicateInvoice_NoMatch() {
	issue := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	suite.invoiceRepo.On("FindDuplicate", suite.ctx, suite.userID, suite.clientID, dec("220.00"), issue).
		Return(nil, nil)

	found, err := suite.service.FindDuplicateInvoice(suite.ctx, suite.userID, suite.clientID, dec("220.00"), issue)

	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), found)
}
