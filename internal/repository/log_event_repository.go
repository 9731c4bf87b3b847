package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"logline-fusion/internal/domain/logevent"
	fusion_errors "logline-fusion/pkg/errors"

	"gorm.io/gorm"
)

type PostgresLogEventRepository struct {
	db *gorm.DB
}

func NewLogEventRepository(db *gorm.DB) LogEventRepository {
	return &PostgresLogEventRepository{db: db}
}

func (r *PostgresLogEventRepository) Insert(ctx context.Context, e *logevent.LogEvent) error {
	res := r.db.WithContext(ctx).Create(e)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fusion_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresLogEventRepository) GetByID(ctx context.Context, id string) (*logevent.LogEvent, error) {
	var e logevent.LogEvent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fusion_errors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *PostgresLogEventRepository) Query(ctx context.Context, f logevent.Filter) ([]logevent.LogEvent, int64, error) {
	q := r.db.WithContext(ctx).Model(&logevent.LogEvent{})

	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Author != "" {
		q = q.Where("author = ?", f.Author)
	}
	if f.Witness != "" {
		q = q.Where("witness = ?", f.Witness)
	}
	if f.Channel != "" {
		q = q.Where("channel = ?", f.Channel)
	}
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}
	if f.Since != nil {
		q = q.Where("timestamp >= ?", *f.Since)
	}
	if f.Until != nil {
		q = q.Where("timestamp <= ?", *f.Until)
	}
	if f.DataPath != "" {
		q = q.Where("data #>> ? = ?", jsonPath(f.DataPath), f.DataValue)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "timestamp DESC"
	if f.Ascending {
		order = "timestamp ASC"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = logevent.DefaultQueryLimit
	}

	var out []logevent.LogEvent
	err := q.Order(order).Limit(limit).Offset(f.Offset).Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresLogEventRepository) TriggerConsequence(ctx context.Context, eventID, triggeredByEventID string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&logevent.LogEvent{}).
		Where("id = ? AND consequence_status = ?", eventID, logevent.ConsequenceAwaitingTrigger).
		Updates(map[string]interface{}{
			"consequence_status":       logevent.ConsequenceTriggered,
			"consequence_triggered_by": triggeredByEventID,
			"consequence_triggered_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing event from an already-resolved slot.
		if _, err := r.GetByID(ctx, eventID); err != nil {
			return err
		}
		return fusion_errors.ErrConflict
	}
	return nil
}

// jsonPath converts a dotted path into the postgres text[] literal used by
// the #>> operator.
func jsonPath(dotted string) string {
	return "{" + strings.Join(strings.Split(dotted, "."), ",") + "}"
}
