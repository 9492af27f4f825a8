package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"eventmarket/internal/models"
)

type UserRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

const userColumns = `id, username, email, password, full_name, user_type, phone, bio, profile_picture, created_at`

// CreateUser inserts the user and, for providers, the profile in a single
// transaction. profile.ID and profile.UserID are filled in on success.
func (r *UserRepository) CreateUser(ctx context.Context, user models.User, profile *models.ServiceProvider) (models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		id, err := r.Dialect.insert(ctx, tx, `
        INSERT INTO users (username, email, password, full_name, user_type, phone, bio, profile_picture, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user.Username, user.Email, user.Password, user.FullName, string(user.Role),
			user.Phone, user.Bio, user.ProfilePicture, user.CreatedAt,
		)
		if err != nil {
			return err
		}
		user.ID = id
		if profile == nil {
			return nil
		}
		profile.UserID = id
		tags, err := json.Marshal(nonNilTags(profile.Tags))
		if err != nil {
			return err
		}
		providerID, err := r.Dialect.insert(ctx, tx, `
        INSERT INTO service_providers (user_id, company_name, description, location, experience, contact_info, category_id, tags, image_url, rating, review_count)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
			profile.UserID, profile.CompanyName, profile.Description, profile.Location, profile.Experience,
			profile.ContactInfo, profile.CategoryID, string(tags), profile.ImageURL,
		)
		if err != nil {
			return err
		}
		profile.ID = providerID
		profile.Rating = 0
		profile.ReviewCount = 0
		return nil
	})
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return models.User{}, models.ErrDuplicateIdentity
		case isForeignKeyViolation(err):
			return models.User{}, models.ErrCategoryNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (models.User, error) {
	row := r.Dialect.queryRow(ctx, r.DB, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := r.Dialect.queryRow(ctx, r.DB, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.Dialect.queryRow(ctx, r.DB, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user models.User
		role string
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.FullName, &role,
		&user.Phone, &user.Bio, &user.ProfilePicture, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	user.Role = models.Role(role)
	return user, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
