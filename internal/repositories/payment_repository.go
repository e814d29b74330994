package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"linkbio/internal/models/db_models"
	"linkbio/pkg/utils"
)

type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(ctx context.Context, payment *db_models.Payment) error
	FindByReference(ctx context.Context, reference string) (*db_models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Payment, error)
	// MarkSuccess flips a pending payment to success and stores the receipt. It returns
	// the number of rows changed: 0 means another delivery already settled it.
	MarkSuccess(ctx context.Context, id uuid.UUID, receipt datatypes.JSON) (int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (p *paymentRepository) WithTx(tx *gorm.DB) PaymentRepository {
	return &paymentRepository{db: tx}
}

func (p *paymentRepository) Create(ctx context.Context, payment *db_models.Payment) error {
	return p.db.WithContext(ctx).Create(payment).Error
}

func (p *paymentRepository) FindByReference(ctx context.Context, reference string) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := p.db.WithContext(ctx).First(&payment, "reference = ?", reference).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &payment, nil
}

func (p *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Payment, error) {
	var payments []db_models.Payment
	err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (p *paymentRepository) MarkSuccess(ctx context.Context, id uuid.UUID, receipt datatypes.JSON) (int64, error) {
	res := p.db.WithContext(ctx).
		Model(&db_models.Payment{}).
		Where("id = ? AND status = ?", id, db_models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":     db_models.PaymentStatusSuccess,
			"receipt":    receipt,
			"updated_at": utils.NowUnixSeconds(),
		})
	return res.RowsAffected, res.Error
}
