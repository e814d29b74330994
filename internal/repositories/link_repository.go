package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"linkbio/internal/models/db_models"
)

type LinkRepository interface {
	Create(ctx context.Context, link *db_models.Link) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Link, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Link, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordClick(ctx context.Context, click *db_models.Click) error
	CountClicks(ctx context.Context, linkID uuid.UUID) (int64, error)
}

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (l *linkRepository) Create(ctx context.Context, link *db_models.Link) error {
	return l.db.WithContext(ctx).Create(link).Error
}

func (l *linkRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Link, error) {
	var link db_models.Link
	err := l.db.WithContext(ctx).First(&link, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &link, nil
}

func (l *linkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Link, error) {
	var links []db_models.Link
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (l *linkRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&db_models.Link{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (l *linkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return l.db.WithContext(ctx).Delete(&db_models.Link{}, "id = ?", id).Error
}

func (l *linkRepository) RecordClick(ctx context.Context, click *db_models.Click) error {
	return l.db.WithContext(ctx).Create(click).Error
}

func (l *linkRepository) CountClicks(ctx context.Context, linkID uuid.UUID) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&db_models.Click{}).Where("link_id = ?", linkID).Count(&count).Error
	return count, err
}
