package repository

import (
	"database/sql"
	"fmt"

	"lootlook/database"
	"lootlook/models"
)

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new account with an already-hashed password
func (r *UserRepository) CreateUser(username, passwordHash, name, gender string, age int) (*models.User, error) {
	query := `
		INSERT INTO users (username, password, name, gender, age)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, username, name, created_at
	`

	var user models.User
	err := database.DB.QueryRow(query, username, passwordHash, name, gender, age).Scan(
		&user.ID, &user.Username, &user.Name, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %v", err)
	}

	user.Gender = gender
	user.Age = age
	return &user, nil
}

// GetUserByUsername returns an account by username, including the
// password hash for credential checks
func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	query := `
		SELECT id, username, password, name, COALESCE(gender, ''), COALESCE(age, 0), created_at
		FROM users
		WHERE username = $1
	`

	var user models.User
	err := database.DB.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &user.Password, &user.Name,
		&user.Gender, &user.Age, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	return &user, nil
}

// GetUserByID returns an account by ID
func (r *UserRepository) GetUserByID(id int) (*models.User, error) {
	query := `
		SELECT id, username, name, COALESCE(gender, ''), COALESCE(age, 0), created_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := database.DB.QueryRow(query, id).Scan(
		&user.ID, &user.Username, &user.Name, &user.Gender, &user.Age, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	return &user, nil
}

// ListUsers returns all accounts except the given one, for the share
// target picker
func (r *UserRepository) ListUsers(excludeID int) ([]models.User, error) {
	query := `
		SELECT id, username, name
		FROM users
		WHERE id != $1
		ORDER BY username
	`

	rows, err := database.DB.Query(query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %v", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user: %v", err)
		}
		users = append(users, user)
	}

	return users, nil
}
