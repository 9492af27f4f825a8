package repositories

import (
	"context"
	"database/sql"
	"errors"

	"eventmarket/internal/models"
)

type CategoryRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category models.Category) (models.Category, error) {
	id, err := r.Dialect.insert(ctx, r.DB,
		`INSERT INTO service_categories (name, description, image_url) VALUES (?, ?, ?)`,
		category.Name, category.Description, category.ImageURL,
	)
	if err != nil {
		return models.Category{}, err
	}
	category.ID = id
	return category, nil
}

func (r *CategoryRepository) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, description, image_url FROM service_categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id int) (models.Category, error) {
	var c models.Category
	err := r.Dialect.queryRow(ctx, r.DB,
		`SELECT id, name, description, image_url FROM service_categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Category{}, models.ErrCategoryNotFound
		}
		return models.Category{}, err
	}
	return c, nil
}
