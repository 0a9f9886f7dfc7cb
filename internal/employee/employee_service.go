package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	employeeerrors "github.com/mingttam/employee-management/internal/employee/errors"
	"github.com/mingttam/employee-management/internal/events"
	"github.com/mingttam/employee-management/internal/messaging/kafka"
	"github.com/mingttam/employee-management/internal/shared/contextutil"
	"github.com/mingttam/employee-management/internal/shared/password"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	EmployeeListCacheKey = "employees:all"
	EmployeeListCacheTTL = 10 * time.Minute
)

type Service interface {
	Create(ctx context.Context, in CreateEmployeeInput) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id int64) (EmployeeResponse, error)
	Update(ctx context.Context, id int64, in UpdateEmployeeInput) (EmployeeResponse, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	hasher password.Hasher
	outbox kafka.OutboxRepository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, hasher password.Hasher, rdb *redis.Client, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, hasher, nil, rdb, logger...)
}

// NewServiceWithOutbox also records a lifecycle event for every write, in the
// same transaction as the write. outboxRepo and rdb may be nil.
func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	hasher password.Hasher,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		hasher: hasher,
		outbox: outboxRepo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, in CreateEmployeeInput) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", in.Email),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	exists, err := qtx.ExistsByEmail(ctx, in.Email)
	if err != nil {
		s.logger.Error("create employee email lookup failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if exists {
		s.logger.Warn("create employee email already in use",
			zap.String("request_id", rid),
			zap.String("email", in.Email),
		)
		return EmployeeResponse{}, employeeerrors.ErrEmailAlreadyExists
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error("create employee hash password failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	empl := &Employee{
		FullName:       in.FullName,
		Email:          in.Email,
		DateOfBirth:    in.DateOfBirth,
		Gender:         in.Gender,
		PhoneNumber:    in.PhoneNumber,
		Active:         in.Active,
		HashedPassword: hashed,
		CreatedAt:      now(),
	}

	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueEvent(ctx, tx, events.EmployeeCreated, empl); err != nil {
		s.logger.Error("create employee outbox persist failed",
			zap.String("request_id", rid),
			zap.Int64("employee_id", empl.ID),
			zap.Error(err),
		)
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.invalidateListCache(ctx)

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.Int64("employee_id", empl.ID),
	)
	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested")

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, EmployeeListCacheKey).Result()
		if err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("read employee list cache failed", zap.Error(err))
		}
	}

	// Concurrent misses share one store read.
	v, err, _ := s.sf.Do(EmployeeListCacheKey, func() (interface{}, error) {
		empls, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToListResponse(empls)

		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, EmployeeListCacheKey, string(data), EmployeeListCacheTTL).Err(); err != nil {
					s.logger.Warn("write employee list cache failed", zap.Error(err))
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func (s *service) GetByID(ctx context.Context, id int64) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested", zap.Int64("employee_id", id))

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		err = mapRepositoryError(err)
		if errors.Is(err, employeeerrors.ErrEmployeeNotFound) {
			s.logger.Warn("get employee by id not found", zap.Int64("employee_id", id))
		} else {
			s.logger.Error("get employee by id failed", zap.Int64("employee_id", id), zap.Error(err))
		}
		return EmployeeResponse{}, err
	}

	return mapToResponse(*empl), nil
}

func (s *service) Update(ctx context.Context, id int64, in UpdateEmployeeInput) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.Int64("employee_id", id),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("update employee fetch existing failed",
			zap.String("request_id", rid),
			zap.Int64("employee_id", id),
			zap.Error(err),
		)
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	applyUpdate(empl, in)

	if in.Password != nil && *in.Password != "" {
		hashed, err := s.hasher.Hash(*in.Password)
		if err != nil {
			s.logger.Error("update employee hash password failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}
		empl.HashedPassword = hashed
	}

	updatedAt := now()
	if empl.UpdatedAt != nil && !updatedAt.After(*empl.UpdatedAt) {
		updatedAt = empl.UpdatedAt.Add(time.Microsecond)
	}
	empl.UpdatedAt = &updatedAt

	if err := qtx.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueEvent(ctx, tx, events.EmployeeUpdated, empl); err != nil {
		s.logger.Error("update employee outbox persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateListCache(ctx)

	s.logger.Info("update employee success",
		zap.String("request_id", rid),
		zap.Int64("employee_id", id),
	)
	return mapToResponse(*empl), nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete employee requested",
		zap.String("request_id", rid),
		zap.Int64("employee_id", id),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("delete employee fetch existing failed",
			zap.String("request_id", rid),
			zap.Int64("employee_id", id),
			zap.Error(err),
		)
		return mapRepositoryError(err)
	}

	if err := qtx.Delete(ctx, empl); err != nil {
		s.logger.Error("delete employee failed", zap.String("request_id", rid), zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := s.enqueueEvent(ctx, tx, events.EmployeeDeleted, empl); err != nil {
		s.logger.Error("delete employee outbox persist failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	s.invalidateListCache(ctx)

	s.logger.Info("delete employee success",
		zap.String("request_id", rid),
		zap.Int64("employee_id", id),
	)
	return nil
}

func (s *service) enqueueEvent(ctx context.Context, tx *sql.Tx, eventType string, empl *Employee) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	payload, err := json.Marshal(events.EmployeeLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		EmployeeID: empl.ID,
		Email:      empl.Email,
		Active:     empl.Active,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "employee",
		AggregateID:   strconv.FormatInt(empl.ID, 10),
		EventType:     eventType,
		Topic:         events.EmployeeLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) invalidateListCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, EmployeeListCacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee list cache",
			zap.String("key", EmployeeListCacheKey),
			zap.Error(err),
		)
	}
}

// applyUpdate merges in into empl. Text fields are taken only when present
// and non-blank, after trimming. Active is always written: nil means true.
func applyUpdate(empl *Employee, in UpdateEmployeeInput) {
	if v, ok := nonBlank(in.FullName); ok {
		empl.FullName = v
	}
	if in.DateOfBirth != nil {
		empl.DateOfBirth = *in.DateOfBirth
	}
	if in.Gender != nil && *in.Gender != "" {
		empl.Gender = *in.Gender
	}
	if v, ok := nonBlank(in.PhoneNumber); ok {
		empl.PhoneNumber = v
	}
	empl.Active = in.Active == nil || *in.Active
}

func nonBlank(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

// now is truncated to the precision postgres stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func mapToResponse(empl Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:          empl.ID,
		FullName:    empl.FullName,
		Email:       empl.Email,
		DateOfBirth: empl.DateOfBirth.Format(dateLayout),
		Gender:      empl.Gender,
		GenderLabel: empl.Gender.Label(),
		PhoneNumber: empl.PhoneNumber,
		Active:      empl.Active,
		CreatedAt:   empl.CreatedAt,
	}
	if empl.UpdatedAt != nil {
		updatedAt := *empl.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		res[i] = mapToResponse(e)
	}
	return res
}
