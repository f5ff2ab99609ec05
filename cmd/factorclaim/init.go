package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/factorclaim/internal/auth"
	"github.com/erazemk/factorclaim/internal/config"
	"github.com/erazemk/factorclaim/internal/db"
	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and the first admin account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}

		if _, err := os.Stat(cfg.DB); err == nil {
			return fmt.Errorf("database file %s already exists", cfg.DB)
		}

		database, password, err := initDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		database.Close()

		printInitResult(cfg, password)
		return nil
	},
}

// dbMissing reports whether the database file has yet to be created.
func dbMissing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, string, error) {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(cfg.DB)
		return nil, "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	_, err = store.CreateUser(ctx, database, model.User{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(cfg *config.Config, password string) {
	fmt.Printf("Database created: %s\n", cfg.DB)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", cfg.AdminEmail)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
