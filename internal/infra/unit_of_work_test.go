package infra_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"linkbio/internal/infra"
	"linkbio/internal/infra/dbtest"
	"linkbio/internal/models/db_models"
)

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	db := dbtest.Open(t)
	uow := infra.NewUnitOfWork(db)
	ctx := context.Background()

	err := uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Create(&db_models.Plan{Name: "Kept", Price: 100}).Error
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = uow.Do(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&db_models.Plan{Name: "Dropped", Price: 200}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var names []string
	require.NoError(t, db.Model(&db_models.Plan{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"Kept"}, names)
}

func TestUnitOfWork_RetriesSerializationFailures(t *testing.T) {
	uow := infra.NewUnitOfWork(dbtest.Open(t))

	attempts := 0
	err := uow.Do(context.Background(), func(tx *gorm.DB) error {
		attempts++
		if attempts < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestUnitOfWork_PermanentErrorsAreNotRetried(t *testing.T) {
	uow := infra.NewUnitOfWork(dbtest.Open(t))

	attempts := 0
	err := uow.Do(context.Background(), func(tx *gorm.DB) error {
		attempts++
		return errors.New("constraint violated")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, infra.IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, infra.IsRetryable(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, infra.IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, infra.IsRetryable(errors.New("other")))
}
