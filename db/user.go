package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
}

func (u User) String() string {
	return fmt.Sprintf("User{ID: %d, Email: %s}", u.ID, u.Email)
}

// writes a new user and returns it with its assigned id
func WriteRecordUsers(user User, pool *pgxpool.Pool) (User, error) {
	err := pool.QueryRow(
		context.Background(),
		`INSERT INTO users (email, hashed_password) VALUES ($1, $2) RETURNING id`,
		user.Email, user.HashedPassword,
	).Scan(&user.ID)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return user, ErrEmailTaken
		}
		return user, fmt.Errorf("failed to insert user, %v", err)
	}

	return user, nil
}

func ReadUserByEmail(email string, pool *pgxpool.Pool) (User, error) {
	var user User

	row := pool.QueryRow(
		context.Background(),
		"SELECT id, email, hashed_password FROM users WHERE email=$1",
		email,
	)

	err := row.Scan(&user.ID, &user.Email, &user.HashedPassword)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return user, ErrNoUser
		}
		return user, fmt.Errorf("failed to scan row, %v", err)
	}

	return user, nil
}
