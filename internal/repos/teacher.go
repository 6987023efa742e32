package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/types"
)

type TeacherRepo interface {
	Create(ctx context.Context, tx *gorm.DB, teachers []*types.Teacher) ([]*types.Teacher, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Teacher, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Teacher, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Teacher, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type teacherRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeacherRepo(db *gorm.DB, baseLog *logger.Logger) TeacherRepo {
	return &teacherRepo{db: db, log: baseLog.With("repo", "TeacherRepo")}
}

func (tr *teacherRepo) Create(ctx context.Context, tx *gorm.DB, teachers []*types.Teacher) ([]*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(teachers) == 0 {
		return []*types.Teacher{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&teachers).Error; err != nil {
		return nil, err
	}
	return teachers, nil
}

func (tr *teacherRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Teacher
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

func (tr *teacherRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Teacher
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *teacherRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Teacher, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Teacher
	if len(emails) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("email IN ?", emails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *teacherRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Teacher{}).
		Where("id = ?", id).
		Updates(fields).Error
}
