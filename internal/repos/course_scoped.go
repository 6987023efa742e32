package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
)

// CourseScopedRepo covers every row family owned by exactly one course:
// the five satellite records plus lectures, assignments, announcements,
// discussions and supplementary content. They all share the same access
// shape, so one generic implementation serves them all.
type CourseScopedRepo[T any] interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*T) ([]*T, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*T, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*T, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	DeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (int64, error)
}

type courseScopedRepo[T any] struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseScopedRepo[T any](db *gorm.DB, baseLog *logger.Logger, name string) CourseScopedRepo[T] {
	return &courseScopedRepo[T]{db: db, log: baseLog.With("repo", name)}
}

func (r *courseScopedRepo[T]) Create(ctx context.Context, tx *gorm.DB, rows []*T) ([]*T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*T{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *courseScopedRepo[T]) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*T
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseScopedRepo[T]) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*T
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseScopedRepo[T]) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(new(T)).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *courseScopedRepo[T]) DeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(courseIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Delete(new(T))
	return res.RowsAffected, res.Error
}
