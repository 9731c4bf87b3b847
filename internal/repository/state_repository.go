package repository

import (
	"context"
	"errors"
	"time"

	"logline-fusion/internal/domain/state"
	fusion_errors "logline-fusion/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresOrderStateRepository struct {
	db *gorm.DB
}

func NewOrderStateRepository(db *gorm.DB) OrderStateRepository {
	return &PostgresOrderStateRepository{db: db}
}

func (r *PostgresOrderStateRepository) Get(ctx context.Context, orderID string) (*state.Order, error) {
	var o state.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fusion_errors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *PostgresOrderStateRepository) Upsert(ctx context.Context, o *state.Order) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).
		Create(o).Error
}

type PostgresInventoryStateRepository struct {
	db *gorm.DB
}

func NewInventoryStateRepository(db *gorm.DB) InventoryStateRepository {
	return &PostgresInventoryStateRepository{db: db}
}

func (r *PostgresInventoryStateRepository) Get(ctx context.Context, produtoID string) (*state.InventoryItem, error) {
	var i state.InventoryItem
	err := r.db.WithContext(ctx).Where("produto_id = ?", produtoID).First(&i).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fusion_errors.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *PostgresInventoryStateRepository) Upsert(ctx context.Context, i *state.InventoryItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "produto_id"}},
			UpdateAll: true,
		}).
		Create(i).Error
}

func (r *PostgresInventoryStateRepository) AdjustStock(ctx context.Context, produtoID, nome string, delta int, eventID string, at time.Time) error {
	item := &state.InventoryItem{
		ProdutoID:      produtoID,
		Nome:           nome,
		Stock:          delta,
		LastLogEventID: eventID,
		LastUpdatedAt:  at,
	}
	assignments := map[string]interface{}{
		"stock":             gorm.Expr("current_state_inventory.stock + ?", delta),
		"last_log_event_id": eventID,
		"last_updated_at":   at,
	}
	if nome != "" {
		assignments["nome"] = nome
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "produto_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(item).Error
}
