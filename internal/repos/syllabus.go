package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/types"
)

type SyllabusRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Syllabus) ([]*types.Syllabus, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Syllabus, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Syllabus, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type syllabusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSyllabusRepo(db *gorm.DB, baseLog *logger.Logger) SyllabusRepo {
	return &syllabusRepo{db: db, log: baseLog.With("repo", "SyllabusRepo")}
}

func (sr *syllabusRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Syllabus) ([]*types.Syllabus, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(rows) == 0 {
		return []*types.Syllabus{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (sr *syllabusRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Syllabus, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Syllabus
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

func (sr *syllabusRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Syllabus, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Syllabus
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

func (sr *syllabusRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Syllabus{}).Error
}

type SyllabusModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.SyllabusModule) ([]*types.SyllabusModule, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.SyllabusModule, error)
	GetBySyllabusIDs(ctx context.Context, tx *gorm.DB, syllabusIDs []uuid.UUID) ([]*types.SyllabusModule, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type syllabusModuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSyllabusModuleRepo(db *gorm.DB, baseLog *logger.Logger) SyllabusModuleRepo {
	return &syllabusModuleRepo{db: db, log: baseLog.With("repo", "SyllabusModuleRepo")}
}

func (mr *syllabusModuleRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.SyllabusModule) ([]*types.SyllabusModule, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(rows) == 0 {
		return []*types.SyllabusModule{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (mr *syllabusModuleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.SyllabusModule, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.SyllabusModule
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

func (mr *syllabusModuleRepo) GetBySyllabusIDs(ctx context.Context, tx *gorm.DB, syllabusIDs []uuid.UUID) ([]*types.SyllabusModule, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.SyllabusModule
	if len(syllabusIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("syllabus_id IN ?", syllabusIDs).
		Order("item_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *syllabusModuleRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.SyllabusModule{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (mr *syllabusModuleRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.SyllabusModule{}).Error
}
