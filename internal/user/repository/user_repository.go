package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"farmconnect/internal/user/domain"
)

// UserRepository definition read-only user directory
type UserRepository interface {
	FindByUser(ctx context.Context, userQuery *domain.UserQuery) (*domain.User, error)
	// Exists check the user id resolves; 找不到回傳 false, 不是錯誤
	Exists(ctx context.Context, userID string) (bool, error)
}

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository create a UserRepository
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUser(ctx context.Context, userQuery *domain.UserQuery) (*domain.User, error) {
	queryStr := "SELECT id, user_id, email, name, role FROM users WHERE 1=1"
	params := []interface{}{}
	paramCount := 1

	if userQuery.Email != nil {
		queryStr += fmt.Sprintf(" AND email = $%d", paramCount)
		params = append(params, *userQuery.Email)
		paramCount++
	}
	if userQuery.UserID != nil {
		queryStr += fmt.Sprintf(" AND user_id = $%d", paramCount)
		params = append(params, *userQuery.UserID)
		paramCount++
	}
	if userQuery.ID != nil {
		queryStr += fmt.Sprintf(" AND id = $%d", paramCount)
		params = append(params, *userQuery.ID)
		paramCount++
	}

	row := r.db.QueryRow(ctx, queryStr, params...)
	var user domain.User
	err := row.Scan(&user.ID, &user.UserID, &user.Email, &user.Name, &user.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("no user found with given criteria")
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
