package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/sladkarije/internal/model"
)

type managerStore interface {
	CountByRole(ctx context.Context, role string) (int, error)
	Create(ctx context.Context, username, email, passwordHash, role string) (*model.Account, error)
}

// ensureManager creates the first manager account when the database has
// none. It returns the generated password, or "" if nothing was created.
func ensureManager(ctx context.Context, users managerStore, username string, cost int) (string, error) {
	n, err := users.CountByRole(ctx, model.RoleManager)
	if err != nil {
		return "", fmt.Errorf("counting managers: %w", err)
	}
	if n > 0 {
		return "", nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := users.Create(ctx, username, username+"@sladkarije.local", string(hash), model.RoleManager); err != nil {
		return "", fmt.Errorf("creating manager account: %w", err)
	}
	return password, nil
}

// printManagerCreated prints the first-run credentials to stdout.
func printManagerCreated(username, password string) {
	fmt.Println("Manager account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println()
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
