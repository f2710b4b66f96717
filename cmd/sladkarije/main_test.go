package main

import (
	"bytes"
	"context"
	"flag"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/sladkarije/internal/config"
	"github.com/erazemk/sladkarije/internal/db"
	"github.com/erazemk/sladkarije/internal/model"
	"github.com/erazemk/sladkarije/internal/store"
)

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	h, cleanup, err := newLogHandler(&stdout, &stderr, "")
	if err != nil {
		t.Fatalf("newLogHandler: %v", err)
	}
	defer cleanup()

	logger := slog.New(h)
	logger.Debug("hidden")
	logger.Info("hello")
	logger.Warn("careful")
	logger.Error("broken")

	if strings.Contains(stdout.String(), "hidden") {
		t.Error("debug records should be dropped")
	}
	if !strings.Contains(stdout.String(), "hello") || !strings.Contains(stdout.String(), "careful") {
		t.Errorf("stdout missing info/warn: %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "broken") || !strings.Contains(stderr.String(), "broken") {
		t.Errorf("errors should go to stderr only: stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
}

func TestParseFlagsOverridesConfig(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := parseFlags(cfg, []string{"-d", "shop.db", "-addr", ":9090", "-r", "localhost:6379"}); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.DB != "shop.db" || cfg.Addr != ":9090" || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.ManagerUser != "admin" {
		t.Errorf("unset flag changed manager user to %q", cfg.ManagerUser)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	cfg, _ := config.Load()
	if err := parseFlags(cfg, []string{"-h"}); err != flag.ErrHelp {
		t.Errorf("expected ErrHelp, got %v", err)
	}
	if err := parseFlags(cfg, []string{"extra"}); err == nil {
		t.Error("expected error for positional argument")
	}
	if err := parseFlags(cfg, []string{"-db", ""}); err == nil {
		t.Error("expected error for empty database path")
	}
}

func TestEnsureManager(t *testing.T) {
	ctx := context.Background()
	users := store.NewUsers(db.NewTestDB(t))

	password, err := ensureManager(ctx, users, "admin", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("ensureManager: %v", err)
	}
	if len(password) != 16 {
		t.Errorf("expected 16 character password, got %q", password)
	}

	account, _ := users.GetByUsername(ctx, "admin")
	if account == nil || account.Role != model.RoleManager {
		t.Fatalf("manager not created: %+v", account)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		t.Error("stored hash does not match generated password")
	}

	// Second run is a no-op.
	again, err := ensureManager(ctx, users, "admin", bcrypt.MinCost)
	if err != nil || again != "" {
		t.Errorf("second run: password=%q err=%v", again, err)
	}
}

func TestGeneratePassword(t *testing.T) {
	a, _ := generatePassword(16)
	b, _ := generatePassword(16)
	if a == b {
		t.Error("passwords should differ")
	}
}
