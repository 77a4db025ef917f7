package repositories

import (
	"context"
	"errors"

	"invoicegen/internal/common"
	"invoicegen/internal/models"

	"github.com/jackc/pgx/v5"
)

type TemplateRepository interface {
	Create(ctx context.Context, template *models.Template) error
	GetByID(ctx context.Context, id int64) (*models.Template, error)
	List(ctx context.Context, userID int64) ([]*models.Template, error)
	Update(ctx context.Context, template *models.Template) error
	Delete(ctx context.Context, id int64) error
	GetDefault(ctx context.Context, userID int64) (*models.Template, error)
	ClearDefault(ctx context.Context, userID int64) error
}

type templateRepo struct {
	db DB
}

func NewTemplateRepo(db DB) TemplateRepository {
	return &templateRepo{db: db}
}

const templateColumns = `id, user_id, name, layout, primary_color, secondary_color, logo_url, default_terms, is_default, created_at, updated_at`

func scanTemplate(row pgx.Row) (*models.Template, error) {
	template := &models.Template{}
	err := row.Scan(&template.ID, &template.UserID, &template.Name, &template.Layout, &template.PrimaryColor, &template.SecondaryColor, &template.LogoURL, &template.DefaultTerms, &template.IsDefault, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return template, nil
}

func (r *templateRepo) Create(ctx context.Context, template *models.Template) error {
	query := `
		INSERT INTO templates (user_id, name, layout, primary_color, secondary_color, logo_url, default_terms, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, template.UserID, template.Name, template.Layout, template.PrimaryColor, template.SecondaryColor, template.LogoURL, template.DefaultTerms, template.IsDefault).
		Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)
	return mapPgError(err)
}

func (r *templateRepo) GetByID(ctx context.Context, id int64) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	return scanTemplate(r.db.QueryRow(ctx, query, id))
}

func (r *templateRepo) List(ctx context.Context, userID int64) ([]*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*models.Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

func (r *templateRepo) Update(ctx context.Context, template *models.Template) error {
	query := `
		UPDATE templates
		SET name = $1, layout = $2, primary_color = $3, secondary_color = $4, logo_url = $5, default_terms = $6, is_default = $7, updated_at = NOW()
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query, template.Name, template.Layout, template.PrimaryColor, template.SecondaryColor, template.LogoURL, template.DefaultTerms, template.IsDefault, template.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *templateRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *templateRepo) GetDefault(ctx context.Context, userID int64) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE user_id = $1 AND is_default = TRUE`
	template, err := scanTemplate(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return template, nil
}

func (r *templateRepo) ClearDefault(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE templates SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default = TRUE`, userID)
	return mapPgError(err)
}
