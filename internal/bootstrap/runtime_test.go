package bootstrap

import (
	"context"
	"testing"

	"socialapp/internal/config"
	"socialapp/internal/models"
	"socialapp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUsers(t *testing.T) (*gorm.DB, repository.UserRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db, repository.NewUserRepository(db)
}

func devConfig() *config.Config {
	return &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootUsername:  "root",
		DevRootEmail:     "Root@Example.com",
		DevRootPassword:  "hunter22",
	}
}

func TestEnsureDevRootAdmin_CreatesRoot(t *testing.T) {
	db, users := setupUsers(t)
	require.NoError(t, EnsureDevRootAdmin(context.Background(), devConfig(), users))

	var root models.User
	require.NoError(t, db.Where("email = ?", "root@example.com").First(&root).Error)
	assert.True(t, root.IsAdmin)
	assert.Equal(t, "root", root.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(root.Password), []byte("hunter22")))

	// Second run is a no-op.
	require.NoError(t, EnsureDevRootAdmin(context.Background(), devConfig(), users))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureDevRootAdmin_PromotesExisting(t *testing.T) {
	db, users := setupUsers(t)
	require.NoError(t, db.Create(&models.User{Username: "rooty", Email: "root@example.com", Password: "x"}).Error)

	require.NoError(t, EnsureDevRootAdmin(context.Background(), devConfig(), users))

	var root models.User
	require.NoError(t, db.Where("email = ?", "root@example.com").First(&root).Error)
	assert.True(t, root.IsAdmin)
	assert.Equal(t, "rooty", root.Username)
}

func TestEnsureDevRootAdmin_Guards(t *testing.T) {
	db, users := setupUsers(t)

	prod := devConfig()
	prod.Env = "production"
	require.NoError(t, EnsureDevRootAdmin(context.Background(), prod, users))

	off := devConfig()
	off.DevBootstrapRoot = false
	require.NoError(t, EnsureDevRootAdmin(context.Background(), off, users))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)

	noPassword := devConfig()
	noPassword.DevRootPassword = ""
	assert.Error(t, EnsureDevRootAdmin(context.Background(), noPassword, users))
}
