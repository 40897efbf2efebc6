// Command createadmin provisions an administrator account interactively.
// Admins sign in with a password instead of GitHub, so the account is
// created directly in the database with a bcrypt hash.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/aakamshpm/unicode/internal/config"
	"github.com/aakamshpm/unicode/internal/domain"
	"github.com/aakamshpm/unicode/internal/repository/postgres"
	"github.com/aakamshpm/unicode/pkg/database"
	apperrors "github.com/aakamshpm/unicode/pkg/errors"
	"github.com/aakamshpm/unicode/pkg/logger"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-z0-9_-]{3,20}$`)
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger.New("createadmin", "warn"))
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	in := bufio.NewReader(os.Stdin)

	fmt.Println("\nAdmin Account Creation")
	fmt.Printf("Environment: %s\n\n", cfg.Environment)

	email, err := promptLine(in, "Enter admin email: ")
	if err != nil {
		return err
	}
	email = strings.ToLower(email)
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("user with email %q already exists", email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	username, err := promptLine(in, "Enter admin username: ")
	if err != nil {
		return err
	}
	username = strings.ToLower(username)
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3-20 characters of lowercase letters, numbers, hyphens, and underscores")
	}

	available, err := users.IsUsernameAvailable(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if !available {
		return fmt.Errorf("username %q is already taken", username)
	}

	password, err := promptPassword("Enter admin password: ")
	if err != nil {
		return err
	}
	if err := validatePassword(password, cfg.IsDevelopment()); err != nil {
		return err
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	fmt.Println("\nCreating admin account...")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		AuthProvider: domain.ProviderEmail,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		LastLoginAt:  now,
	}

	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Println("\nAdmin account created successfully!")
	fmt.Printf("Email:    %s\n", admin.Email)
	fmt.Printf("Username: %s\n", admin.Username)
	fmt.Printf("Role:     %s\n", admin.Role)
	fmt.Printf("User ID:  %s\n", admin.ID)

	return nil
}

func promptLine(in *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// validatePassword enforces a minimum length everywhere and full complexity
// rules outside development.
func validatePassword(password string, development bool) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	if development {
		return nil
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*()_+-=[]{};':\"\\|,.<>/?", r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return errors.New("password must contain at least one uppercase letter")
	case !hasLower:
		return errors.New("password must contain at least one lowercase letter")
	case !hasDigit:
		return errors.New("password must contain at least one number")
	case !hasSpecial:
		return errors.New("password must contain at least one special character")
	}
	return nil
}
