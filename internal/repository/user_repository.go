package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/deskline/helpdesk-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByKey(ctx context.Context, key string) (*domain.User, error)
	ListByDisplayName(ctx context.Context, displayName string, role domain.Role) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
        u.id, u.emp_code, u.username, u.display_name, u.role, u.password_hash, u.email,
        u.department, u.reports_to_id, m.display_name, u.mail_username, u.mail_password,
        u.created_at, u.updated_at
        FROM users u LEFT JOIN users m ON m.id = u.reports_to_id`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (emp_code, username, display_name, role, password_hash, email, department,
                           reports_to_id, mail_username, mail_password)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.EmployeeCode,
		user.Username,
		user.DisplayName,
		string(user.Role),
		user.PasswordHash,
		user.Email,
		user.Department,
		user.ReportsToID,
		user.MailUsername,
		user.MailPassword,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT`+userColumns+` WHERE u.id=$1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT`+userColumns+` WHERE u.username=$1`, username)
}

// FindByKey resolves an employee code, a username or a numeric id, preferring that order.
func (r *userRepository) FindByKey(ctx context.Context, key string) (*domain.User, error) {
	const where = ` WHERE u.emp_code=$1 OR u.username=$1 OR u.id::text=$1
        ORDER BY (u.emp_code=$1) DESC NULLS LAST, (u.username=$1) DESC LIMIT 1`
	return r.fetchSingle(ctx, `SELECT`+userColumns+where, key)
}

func (r *userRepository) ListByDisplayName(ctx context.Context, displayName string, role domain.Role) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT`+userColumns+` WHERE u.display_name=$1 AND u.role=$2 ORDER BY u.id`,
		displayName, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT`+userColumns+` WHERE u.role=$1 ORDER BY u.display_name, u.id`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.EmployeeCode,
		&user.Username,
		&user.DisplayName,
		&role,
		&user.PasswordHash,
		&user.Email,
		&user.Department,
		&user.ReportsToID,
		&user.ReportsToName,
		&user.MailUsername,
		&user.MailPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}
