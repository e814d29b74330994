// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"linkbio/internal/infra"
	"linkbio/internal/models/db_models"
)

func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := infra.InitDatabase("sqlite:"+dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func SeedUser(t *testing.T, db *gorm.DB, username string) *db_models.User {
	t.Helper()
	user := &db_models.User{
		Username:      username,
		Email:         username + "@example.com",
		SelectedTheme: db_models.DefaultTheme,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func SeedPlan(t *testing.T, db *gorm.DB, name string, price int64) *db_models.Plan {
	t.Helper()
	plan := &db_models.Plan{Name: name, Price: price, Features: db_models.FeatureList{"Unlimited links", "Premium themes"}}
	require.NoError(t, db.Create(plan).Error)
	return plan
}
