package users

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ndemidov/liber/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_Create(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create("testuser", "test@example.com")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "testuser", user.Username)
	assert.NotEmpty(t, user.Token) // Token should be auto-generated
	assert.Len(t, user.Token, 64)  // 32 bytes hex encoded = 64 chars
}

func TestRepository_GetByToken(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.Create("testuser", "test@example.com")
	require.NoError(t, err)

	user, err := repo.GetByToken(created.Token)

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestRepository_GetByToken_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByToken("nonexistent-token")

	assert.Error(t, err)
}

func TestRepository_GetByID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.Create("testuser", "test@example.com")
	require.NoError(t, err)

	user, err := repo.GetByID(created.ID)

	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
}

func TestRepository_Create_UniqueTokens(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user1, err := repo.Create("user1", "user1@example.com")
	require.NoError(t, err)

	user2, err := repo.Create("user2", "user2@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, user1.Token, user2.Token)
}
