package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cinehub/backoffice/internal/db/models"
)

const userColumns = "id, username, email, first_name, last_name, password, role, is_active, created_at, updated_at"

func scanUser(s interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Password,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(d.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username))
}

// GetUserByLogin finds a user by username or email.
func (d *Database) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	return scanUser(d.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR (email != '' AND email = ?) ORDER BY id LIMIT 1",
		login, login))
}

func (d *Database) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(d.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// ListUsers returns all users ordered by id.
func (d *Database) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUserRoles returns the roles held by a user.
func (d *Database) GetUserRoles(ctx context.Context, id int64) ([]string, error) {
	var role string
	err := d.db.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", id).Scan(&role)
	if err != nil {
		return nil, mapErr(err)
	}
	return []string{role}, nil
}

// CreateUser inserts u with an already hashed password and fills its ID.
func (d *Database) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now()
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.FirstName, u.LastName, u.Password, u.Role, u.IsActive, now, now,
	)
	if err != nil {
		return mapErr(err)
	}
	u.ID, err = res.LastInsertId()
	u.CreatedAt, u.UpdatedAt = now, now
	return err
}

// UpdateUser applies the non-nil fields of upd.
func (d *Database) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	u, err := d.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.PasswordHash != nil {
		u.Password = *upd.PasswordHash
	}
	u.UpdatedAt = time.Now()

	_, err = d.db.ExecContext(ctx, `
		UPDATE users SET email = ?, first_name = ?, last_name = ?, role = ?, is_active = ?, password = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, u.FirstName, u.LastName, u.Role, u.IsActive, u.Password, u.UpdatedAt, id,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (d *Database) DeleteUser(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// CountAdmins counts active admin accounts.
func (d *Database) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role = 'admin' AND is_active = 1").Scan(&count)
	return count, err
}

func (d *Database) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
