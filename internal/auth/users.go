// internal/auth/users.go
//
// Player accounts: signup validation, bcrypt password hashes, lookups.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("user not found")
)

// User is a registered player.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Users reads and writes the users table.
type Users struct {
	db   *sql.DB
	cost int
}

// NewUsers uses bcrypt.DefaultCost; tests may lower it with WithCost.
func NewUsers(db *sql.DB) *Users { return &Users{db: db, cost: bcrypt.DefaultCost} }

// WithCost returns a copy hashing at cost.
func (u *Users) WithCost(cost int) *Users { return &Users{db: u.db, cost: cost} }

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(username, password string) error {
	if len(username) < 3 || len(username) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range username {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(password) < 8 || len(password) > 72 {
		return errors.New("password must be 8–72 chars")
	}
	return nil
}

// Create validates input, checks uniqueness and inserts a new user.
func (u *Users) Create(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := ValidateSignup(username, password); err != nil {
		return nil, err
	}
	if _, err := u.ByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return nil, err
	}
	usr := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if _, err := u.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		usr.ID, usr.Username, usr.PasswordHash, usr.CreatedAt.Format(time.RFC3339)); err != nil {
		// lost a race with the unique index
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return usr, nil
}

// Authenticate returns the user when password matches.
func (u *Users) Authenticate(ctx context.Context, username, password string) (*User, error) {
	usr, err := u.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return usr, nil
}

// ByUsername looks a user up case-insensitively.
func (u *Users) ByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(u.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE lower(username)=lower(?)`, username))
}

// ByID looks a user up by id.
func (u *Users) ByID(ctx context.Context, id string) (*User, error) {
	return scanUser(u.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id=?`, id))
}

func scanUser(row *sql.Row) (*User, error) {
	var usr User
	var created string
	if err := row.Scan(&usr.ID, &usr.Username, &usr.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	usr.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &usr, nil
}
