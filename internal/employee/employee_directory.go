package employee

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	employeeerrors "go-timeoff/internal/employee/errors"
	"go-timeoff/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	ProfileKeyPrefix = "employees:profile:"
	ProfileCacheTTL  = 10 * time.Minute
)

func GetProfileKey(employeeID string) string {
	return ProfileKeyPrefix + employeeID
}

//go:generate mockgen -source=employee_directory.go -destination=mock/employee_directory_mock.go -package=mock
type Directory interface {
	Get(ctx context.Context, employeeID string) (Profile, error)
	DepartmentManagers(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, error)
	Hierarchy(ctx context.Context) (*Hierarchy, error)
}

type directory struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewDirectory(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Directory {
	l := zap.L().Named("employee.directory")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.directory")
	}
	return &directory{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (d *directory) Get(ctx context.Context, employeeID string) (Profile, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return Profile{}, employeeerrors.ErrInvalidEmployeeID
	}

	cacheKey := GetProfileKey(employeeID)
	if d.rdb != nil {
		cached, err := d.rdb.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			var p Profile
			if json.Unmarshal([]byte(cached), &p) == nil {
				return p, nil
			}
		case !errors.Is(err, redis.Nil):
			d.logger.Warn("profile cache read failed, falling back to store",
				zap.String("request_id", contextutil.GetRequestID(ctx)),
				zap.String("key", cacheKey),
				zap.Error(err),
			)
		}
	}

	v, err, _ := d.sf.Do(cacheKey, func() (interface{}, error) {
		emp, err := d.repo.FindByID(ctx, employeeID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		p := toProfile(*emp)
		if d.rdb != nil {
			if data, err := json.Marshal(p); err == nil {
				if err := d.rdb.Set(ctx, cacheKey, string(data), ProfileCacheTTL).Err(); err != nil {
					d.logger.Warn("profile cache write failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return p, nil
	})
	if err != nil {
		return Profile{}, err
	}

	return v.(Profile), nil
}

func (d *directory) DepartmentManagers(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := d.repo.FindManagerIDsByDepartment(ctx, departmentID.String())
	if err != nil {
		d.logger.Error("find department managers failed",
			zap.String("department_id", departmentID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return ids, nil
}

func (d *directory) Hierarchy(ctx context.Context) (*Hierarchy, error) {
	emps, err := d.repo.FindAll(ctx)
	if err != nil {
		d.logger.Error("load employees for hierarchy failed", zap.Error(err))
		return nil, err
	}
	return NewHierarchy(emps), nil
}
