package counter

import (
	"context"
	"database/sql"
	"strconv"

	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock/counter_repo_mock.go -package=mock . Repository
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// GetNextValue atomically increments the (scope, period) sequence and returns the new value.
	GetNextValue(ctx context.Context, scope string, year int) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) GetNextValue(ctx context.Context, scope string, year int) (int64, error) {
	var nextValue int64

	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}

	// UPSERT keeps the increment atomic under concurrent creates.
	err := db.Raw(`
		INSERT INTO request_counters (scope, period, last_value, updated_at)
		VALUES (?, ?, 1, now())
		ON CONFLICT (scope, period) DO UPDATE
		SET last_value = request_counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, scope, strconv.Itoa(year)).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
