package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// fakeBucket records calls and fails or reports missing objects per key.
type fakeBucket struct {
	uploaded    map[string]string
	deleted     []string
	failKeys    map[string]bool
	missingKeys map[string]bool
	uploadErr   error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{
		uploaded:    map[string]string{},
		failKeys:    map[string]bool{},
		missingKeys: map[string]bool{},
	}
}

func (b *fakeBucket) UploadFile(_ context.Context, key string, file io.Reader, contentType string) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.uploaded[key] = string(data)
	_ = contentType
	return nil
}

func (b *fakeBucket) DeleteFile(_ context.Context, key string) error {
	if b.failKeys[key] {
		return fmt.Errorf("delete %s: backend unavailable", key)
	}
	if b.missingKeys[key] {
		return fmt.Errorf("delete %s: %w", key, storage.ErrObjectNotExist)
	}
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBucket) ListKeys(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for k := range b.uploaded {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (b *fakeBucket) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

// --- fake repos: in-memory rows, tx always ignored ---

type fakeTeacherRepo struct {
	rows map[uuid.UUID]*types.Teacher
}

func newFakeTeacherRepo(teachers ...*types.Teacher) *fakeTeacherRepo {
	r := &fakeTeacherRepo{rows: map[uuid.UUID]*types.Teacher{}}
	for _, t := range teachers {
		r.rows[t.ID] = t
	}
	return r
}

func (r *fakeTeacherRepo) Create(_ context.Context, _ *gorm.DB, teachers []*types.Teacher) ([]*types.Teacher, error) {
	for _, t := range teachers {
		r.rows[t.ID] = t
	}
	return teachers, nil
}

func (r *fakeTeacherRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Teacher, error) {
	var out []*types.Teacher
	for _, id := range ids {
		if t, ok := r.rows[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTeacherRepo) GetByUserIDs(_ context.Context, _ *gorm.DB, userIDs []uuid.UUID) ([]*types.Teacher, error) {
	var out []*types.Teacher
	for _, t := range r.rows {
		for _, id := range userIDs {
			if t.UserID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (r *fakeTeacherRepo) GetByEmails(_ context.Context, _ *gorm.DB, emails []string) ([]*types.Teacher, error) {
	var out []*types.Teacher
	for _, t := range r.rows {
		for _, e := range emails {
			if t.Email == e {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (r *fakeTeacherRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	t, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("teacher %s not found", id)
	}
	if v, ok := fields["course_ids"]; ok {
		t.CourseIDs = v.(datatypes.JSONSlice[uuid.UUID])
	}
	if v, ok := fields["course_codes"]; ok {
		t.CourseCodes = v.(datatypes.JSONSlice[string])
	}
	return nil
}

type fakeStudentRepo struct {
	rows map[uuid.UUID]*types.Student
}

func newFakeStudentRepo(students ...*types.Student) *fakeStudentRepo {
	r := &fakeStudentRepo{rows: map[uuid.UUID]*types.Student{}}
	for _, s := range students {
		r.rows[s.ID] = s
	}
	return r
}

func (r *fakeStudentRepo) Create(_ context.Context, _ *gorm.DB, students []*types.Student) ([]*types.Student, error) {
	for _, s := range students {
		r.rows[s.ID] = s
	}
	return students, nil
}

func (r *fakeStudentRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Student, error) {
	var out []*types.Student
	for _, id := range ids {
		if s, ok := r.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) GetByUserIDs(_ context.Context, _ *gorm.DB, userIDs []uuid.UUID) ([]*types.Student, error) {
	var out []*types.Student
	for _, s := range r.rows {
		for _, id := range userIDs {
			if s.UserID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) GetByTeacherIDs(_ context.Context, _ *gorm.DB, teacherIDs []uuid.UUID) ([]*types.Student, error) {
	var out []*types.Student
	for _, s := range r.rows {
		for _, id := range teacherIDs {
			if s.TeacherID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) GetReferencingCourse(_ context.Context, _ *gorm.DB, courseID uuid.UUID) ([]*types.Student, error) {
	var out []*types.Student
	for _, s := range r.rows {
		if s.HasCourse(courseID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	s, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("student %s not found", id)
	}
	if v, ok := fields["course_ids"]; ok {
		s.CourseIDs = v.(datatypes.JSONSlice[uuid.UUID])
	}
	if v, ok := fields["course_codes"]; ok {
		s.CourseCodes = v.(datatypes.JSONSlice[string])
	}
	return nil
}

type fakeCourseRepo struct {
	rows map[uuid.UUID]*types.Course
}

func newFakeCourseRepo(courses ...*types.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{rows: map[uuid.UUID]*types.Course{}}
	for _, c := range courses {
		r.rows[c.ID] = c
	}
	return r
}

func (r *fakeCourseRepo) Create(_ context.Context, _ *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	for _, c := range courses {
		r.rows[c.ID] = c
	}
	return courses, nil
}

func (r *fakeCourseRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Course, error) {
	var out []*types.Course
	for _, id := range ids {
		if c, ok := r.rows[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) GetByTeacherIDs(_ context.Context, _ *gorm.DB, teacherIDs []uuid.UUID) ([]*types.Course, error) {
	var out []*types.Course
	for _, c := range r.rows {
		for _, id := range teacherIDs {
			if c.TeacherID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) GetActiveByCode(_ context.Context, _ *gorm.DB, courseCode string) ([]*types.Course, error) {
	var out []*types.Course
	for _, c := range r.rows {
		if c.IsActive && c.CourseCode == courseCode {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	c, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("course %s not found", id)
	}
	if v, ok := fields["course_code"]; ok {
		c.CourseCode = v.(string)
	}
	if v, ok := fields["teacher_id"]; ok {
		c.TeacherID = v.(uuid.UUID)
	}
	if v, ok := fields["is_active"]; ok {
		c.IsActive = v.(bool)
	}
	return nil
}

func (r *fakeCourseRepo) DeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(r.rows, id)
	}
	return nil
}

// fakeCourseScoped serves any of the course-scoped row families.
type fakeCourseScoped[T any] struct {
	rows []scopedRow[T]
}

type scopedRow[T any] struct {
	courseID uuid.UUID
	row      *T
}

func (r *fakeCourseScoped[T]) add(courseID uuid.UUID, row *T) {
	r.rows = append(r.rows, scopedRow[T]{courseID: courseID, row: row})
}

func (r *fakeCourseScoped[T]) Create(_ context.Context, _ *gorm.DB, rows []*T) ([]*T, error) {
	for _, row := range rows {
		r.rows = append(r.rows, scopedRow[T]{row: row})
	}
	return rows, nil
}

func (r *fakeCourseScoped[T]) GetByIDs(_ context.Context, _ *gorm.DB, _ []uuid.UUID) ([]*T, error) {
	return nil, nil
}

func (r *fakeCourseScoped[T]) GetByCourseIDs(_ context.Context, _ *gorm.DB, courseIDs []uuid.UUID) ([]*T, error) {
	var out []*T
	for _, sr := range r.rows {
		for _, id := range courseIDs {
			if sr.courseID == id {
				out = append(out, sr.row)
			}
		}
	}
	return out, nil
}

func (r *fakeCourseScoped[T]) UpdateFields(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (r *fakeCourseScoped[T]) DeleteByCourseIDs(_ context.Context, _ *gorm.DB, courseIDs []uuid.UUID) (int64, error) {
	var kept []scopedRow[T]
	var n int64
	for _, sr := range r.rows {
		removed := false
		for _, id := range courseIDs {
			if sr.courseID == id {
				removed = true
				break
			}
		}
		if removed {
			n++
		} else {
			kept = append(kept, sr)
		}
	}
	r.rows = kept
	return n, nil
}

type fakeSyllabusRepo struct {
	rows []*types.Syllabus
}

func (r *fakeSyllabusRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Syllabus) ([]*types.Syllabus, error) {
	r.rows = append(r.rows, rows...)
	return rows, nil
}

func (r *fakeSyllabusRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Syllabus, error) {
	var out []*types.Syllabus
	for _, s := range r.rows {
		for _, id := range ids {
			if s.ID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *fakeSyllabusRepo) GetByCourseIDs(_ context.Context, _ *gorm.DB, courseIDs []uuid.UUID) ([]*types.Syllabus, error) {
	var out []*types.Syllabus
	for _, s := range r.rows {
		for _, id := range courseIDs {
			if s.CourseID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *fakeSyllabusRepo) DeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	var kept []*types.Syllabus
	for _, s := range r.rows {
		deleted := false
		for _, id := range ids {
			if s.ID == id {
				deleted = true
				break
			}
		}
		if !deleted {
			kept = append(kept, s)
		}
	}
	r.rows = kept
	return nil
}

type fakeModuleRepo struct {
	rows []*types.SyllabusModule
}

func (r *fakeModuleRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.SyllabusModule) ([]*types.SyllabusModule, error) {
	r.rows = append(r.rows, rows...)
	return rows, nil
}

func (r *fakeModuleRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.SyllabusModule, error) {
	var out []*types.SyllabusModule
	for _, m := range r.rows {
		for _, id := range ids {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (r *fakeModuleRepo) GetBySyllabusIDs(_ context.Context, _ *gorm.DB, syllabusIDs []uuid.UUID) ([]*types.SyllabusModule, error) {
	var out []*types.SyllabusModule
	for _, m := range r.rows {
		for _, id := range syllabusIDs {
			if m.SyllabusID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (r *fakeModuleRepo) UpdateFields(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (r *fakeModuleRepo) DeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	var kept []*types.SyllabusModule
	for _, m := range r.rows {
		deleted := false
		for _, id := range ids {
			if m.ID == id {
				deleted = true
				break
			}
		}
		if !deleted {
			kept = append(kept, m)
		}
	}
	r.rows = kept
	return nil
}

type fakeChapterRepo struct {
	rows []*types.Chapter
}

func (r *fakeChapterRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Chapter) ([]*types.Chapter, error) {
	r.rows = append(r.rows, rows...)
	return rows, nil
}

func (r *fakeChapterRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Chapter, error) {
	var out []*types.Chapter
	for _, c := range r.rows {
		for _, id := range ids {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *fakeChapterRepo) GetByModuleIDs(_ context.Context, _ *gorm.DB, moduleIDs []uuid.UUID) ([]*types.Chapter, error) {
	var out []*types.Chapter
	for _, c := range r.rows {
		for _, id := range moduleIDs {
			if c.ModuleID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *fakeChapterRepo) UpdateFields(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (r *fakeChapterRepo) DeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	var kept []*types.Chapter
	for _, c := range r.rows {
		deleted := false
		for _, id := range ids {
			if c.ID == id {
				deleted = true
				break
			}
		}
		if !deleted {
			kept = append(kept, c)
		}
	}
	r.rows = kept
	return nil
}

type fakeArticleRepo struct {
	rows []*types.Article
}

func (r *fakeArticleRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Article) ([]*types.Article, error) {
	r.rows = append(r.rows, rows...)
	return rows, nil
}

func (r *fakeArticleRepo) GetByChapterIDs(_ context.Context, _ *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Article, error) {
	var out []*types.Article
	for _, a := range r.rows {
		for _, id := range chapterIDs {
			if a.ChapterID == id {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (r *fakeArticleRepo) UpdateFields(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (r *fakeArticleRepo) DeleteByChapterIDs(_ context.Context, _ *gorm.DB, chapterIDs []uuid.UUID) (int64, error) {
	var kept []*types.Article
	var n int64
	for _, a := range r.rows {
		deleted := false
		for _, id := range chapterIDs {
			if a.ChapterID == id {
				deleted = true
				break
			}
		}
		if deleted {
			n++
		} else {
			kept = append(kept, a)
		}
	}
	r.rows = kept
	return n, nil
}

type fakeItemRepo struct {
	rows []*types.ContentItem
}

func (r *fakeItemRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.ContentItem) ([]*types.ContentItem, error) {
	r.rows = append(r.rows, rows...)
	return rows, nil
}

func (r *fakeItemRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.ContentItem, error) {
	var out []*types.ContentItem
	for _, it := range r.rows {
		for _, id := range ids {
			if it.ID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (r *fakeItemRepo) GetByModuleIDs(_ context.Context, _ *gorm.DB, moduleIDs []uuid.UUID) ([]*types.ContentItem, error) {
	var out []*types.ContentItem
	for _, it := range r.rows {
		for _, id := range moduleIDs {
			if it.ModuleID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (r *fakeItemRepo) UpdateFields(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (r *fakeItemRepo) DeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	var kept []*types.ContentItem
	for _, it := range r.rows {
		deleted := false
		for _, id := range ids {
			if it.ID == id {
				deleted = true
				break
			}
		}
		if !deleted {
			kept = append(kept, it)
		}
	}
	r.rows = kept
	return nil
}
