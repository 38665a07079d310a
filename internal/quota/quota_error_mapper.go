package quota

import (
	"errors"

	quotaerrors "go-timeoff/internal/quota/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return quotaerrors.ErrQuotaNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_quota_employee_period" {
		return quotaerrors.ErrQuotaAlreadyExists
	}

	return err
}
