// Package bootstrap wires process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"socialapp/internal/config"
	"socialapp/internal/database"
	"socialapp/internal/middleware"
	"socialapp/internal/models"
	"socialapp/internal/redisclient"
	"socialapp/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and ensures the development
// root admin. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := redisclient.InitRedis(cfg.RedisURL)

	if err := EnsureDevRootAdmin(ctx, cfg, repository.NewUserRepository(db)); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	return db, rdb, nil
}

// EnsureDevRootAdmin creates the configured root admin, or promotes the
// existing account with that email. It only acts in development with
// DEV_BOOTSTRAP_ROOT enabled.
func EnsureDevRootAdmin(ctx context.Context, cfg *config.Config, users repository.UserRepository) error {
	if cfg == nil || users == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "socialapp_root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@socialapp.local"
	}
	if cfg.DevRootPassword == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin {
			return nil
		}
		if err := users.SetAdmin(ctx, existing.ID, true); err != nil {
			return err
		}
		middleware.Logger.Info("promoted development root admin", slog.String("email", email))
		return nil
	case !models.IsNotFound(err):
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevRootPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}
	root := &models.User{
		Username: username,
		Email:    email,
		FullName: "Root Admin",
		Password: string(hashed),
		IsAdmin:  true,
	}
	if err := users.Create(ctx, root); err != nil {
		return err
	}
	middleware.Logger.Info("created development root admin", slog.String("email", email), slog.Uint64("user_id", uint64(root.ID)))
	return nil
}
