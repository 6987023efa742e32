package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/classbridge/classbridge-backend/internal/platform/apierr"
	"github.com/classbridge/classbridge-backend/internal/requestdata"
	"github.com/classbridge/classbridge-backend/internal/types"
)

func TestValidateModuleSpecsRejectsDuplicateNumbers(t *testing.T) {
	err := validateModuleSpecs([]ModuleSpec{
		{ModuleNumber: 1, Title: "Intro"},
		{ModuleNumber: 2, Title: "Basics"},
		{ModuleNumber: 1, Title: "Intro again"},
	})
	if err == nil {
		t.Fatalf("expected error for duplicate module number")
	}
	if !apierr.Is(err, apierr.CodeDuplicateModuleNumber) {
		t.Fatalf("want code %q, got %v", apierr.CodeDuplicateModuleNumber, err)
	}
}

func TestValidateModuleSpecsRequiresTitles(t *testing.T) {
	err := validateModuleSpecs([]ModuleSpec{{ModuleNumber: 1, Title: "  "}})
	if err == nil {
		t.Fatalf("expected error for blank title")
	}
	if !apierr.Is(err, apierr.CodeValidationFailed) {
		t.Fatalf("want code %q, got %v", apierr.CodeValidationFailed, err)
	}
}

func TestValidateModuleSpecsAcceptsDistinctNumbers(t *testing.T) {
	err := validateModuleSpecs([]ModuleSpec{
		{ModuleNumber: 3, Title: "Advanced"},
		{ModuleNumber: 1, Title: "Intro"},
	})
	if err != nil {
		t.Fatalf("validateModuleSpecs: %v", err)
	}
}

func TestRemoveCode(t *testing.T) {
	codes := datatypes.JSONSlice[string]{"MATH101", "CS-2B", "MATH101"}
	out := removeCode(codes, "MATH101")
	if len(out) != 1 || out[0] != "CS-2B" {
		t.Fatalf("removeCode: got=%v", out)
	}
	if got := removeCode(out, "UNKNOWN"); len(got) != 1 {
		t.Fatalf("removeCode absent code: got=%v", got)
	}
}

func TestApplyCodeReassignmentRejectsDuplicateActiveCode(t *testing.T) {
	teacher := &types.Teacher{ID: uuid.New(), UserID: uuid.New(),
		CourseCodes: datatypes.JSONSlice[string]{"MATH101", "PHYS200"},
	}
	c1 := &types.Course{ID: uuid.New(), TeacherID: teacher.ID, CourseCode: "MATH101", IsActive: true}
	c2 := &types.Course{ID: uuid.New(), TeacherID: teacher.ID, CourseCode: "PHYS200", IsActive: true}

	cs := &courseService{
		log:         testLogger(t).With("service", "CourseService"),
		teacherRepo: newFakeTeacherRepo(teacher),
		courseRepo:  newFakeCourseRepo(c1, c2),
	}
	rd := &requestdata.RequestData{UserID: teacher.UserID, Role: requestdata.RoleTeacher}

	code := "MATH101"
	_, err := cs.applyCodeReassignment(context.Background(), nil, rd, teacher, c2, CoursePatch{CourseCode: &code}, map[string]interface{}{})
	if !apierr.Is(err, apierr.CodeDuplicateCourseCode) {
		t.Fatalf("want %q, got %v", apierr.CodeDuplicateCourseCode, err)
	}
	if c2.CourseCode != "PHYS200" {
		t.Fatalf("course must keep its code on rejection, got %q", c2.CourseCode)
	}
}

func TestApplyCodeReassignmentAdminMoveRejectsCollision(t *testing.T) {
	t1 := &types.Teacher{ID: uuid.New(), UserID: uuid.New(),
		CourseCodes: datatypes.JSONSlice[string]{"MATH101"},
	}
	t2 := &types.Teacher{ID: uuid.New(), UserID: uuid.New(),
		CourseCodes: datatypes.JSONSlice[string]{"PHYS200"},
	}
	c1 := &types.Course{ID: uuid.New(), TeacherID: t1.ID, CourseCode: "MATH101", IsActive: true}
	c2 := &types.Course{ID: uuid.New(), TeacherID: t2.ID, CourseCode: "PHYS200", IsActive: true}

	cs := &courseService{
		log:         testLogger(t).With("service", "CourseService"),
		teacherRepo: newFakeTeacherRepo(t1, t2),
		courseRepo:  newFakeCourseRepo(c1, c2),
	}
	rd := &requestdata.RequestData{UserID: uuid.New(), Role: requestdata.RoleAdmin}

	code := "MATH101"
	_, err := cs.applyCodeReassignment(context.Background(), nil, rd, nil, c2,
		CoursePatch{TeacherID: &t1.ID, CourseCode: &code}, map[string]interface{}{})
	if !apierr.Is(err, apierr.CodeDuplicateCourseCode) {
		t.Fatalf("want %q, got %v", apierr.CodeDuplicateCourseCode, err)
	}
}

func TestApplyCodeReassignmentAllowsUnusedAuthorizedCode(t *testing.T) {
	teacher := &types.Teacher{ID: uuid.New(), UserID: uuid.New(),
		CourseCodes: datatypes.JSONSlice[string]{"MATH101", "PHYS200", "CHEM300"},
	}
	c1 := &types.Course{ID: uuid.New(), TeacherID: teacher.ID, CourseCode: "MATH101", IsActive: true}
	c2 := &types.Course{ID: uuid.New(), TeacherID: teacher.ID, CourseCode: "PHYS200", IsActive: true}

	cs := &courseService{
		log:         testLogger(t).With("service", "CourseService"),
		teacherRepo: newFakeTeacherRepo(teacher),
		courseRepo:  newFakeCourseRepo(c1, c2),
	}
	rd := &requestdata.RequestData{UserID: teacher.UserID, Role: requestdata.RoleTeacher}

	code := "chem300"
	fields := map[string]interface{}{}
	old, err := cs.applyCodeReassignment(context.Background(), nil, rd, teacher, c2, CoursePatch{CourseCode: &code}, fields)
	if err != nil {
		t.Fatalf("applyCodeReassignment: %v", err)
	}
	if old == nil || old.oldTeacherID != teacher.ID || old.oldCode != "PHYS200" {
		t.Fatalf("old pair: got=%+v", old)
	}
	if c2.CourseCode != "CHEM300" || fields["course_code"] != "CHEM300" {
		t.Fatalf("new code not applied: course=%q fields=%v", c2.CourseCode, fields)
	}
}

func TestDeleteCascadeCollectsEveryBlobKey(t *testing.T) {
	courseID := uuid.New()

	outcomes := &fakeCourseScoped[types.Outcome]{}
	outcomes.add(courseID, &types.Outcome{ID: uuid.New(), CourseID: courseID})

	syllabi := &fakeSyllabusRepo{}
	modules := &fakeModuleRepo{}
	chapters := &fakeChapterRepo{}
	articles := &fakeArticleRepo{}
	items := &fakeItemRepo{}

	syl := &types.Syllabus{ID: uuid.New(), CourseID: courseID}
	syllabi.rows = append(syllabi.rows, syl)
	mod := &types.SyllabusModule{ID: uuid.New(), SyllabusID: syl.ID, ModuleNumber: 1, Title: "Intro"}
	modules.rows = append(modules.rows, mod)
	chap := &types.Chapter{ID: uuid.New(), ModuleID: mod.ID, Title: "Basics", Order: 1}
	chapters.rows = append(chapters.rows, chap)
	articles.rows = append(articles.rows, &types.Article{ID: uuid.New(), ChapterID: chap.ID, Title: "Reading", Order: 1})

	fileItem, err := types.NewFileContentItem(mod.ID, "Notes", types.UploadedObject{
		URL: "https://cdn.test/courses/x/notes.pdf", Key: "courses/x/notes.pdf", Name: "notes.pdf", Size: 10,
	})
	if err != nil {
		t.Fatalf("NewFileContentItem: %v", err)
	}
	videoItem, err := types.NewVideoContentItem(mod.ID, "Lecture capture", types.UploadedObject{
		URL: "https://cdn.test/courses/x/cap.mp4", Key: "courses/x/cap.mp4", Name: "cap.mp4", Size: 10,
	})
	if err != nil {
		t.Fatalf("NewVideoContentItem: %v", err)
	}
	items.rows = append(items.rows, fileItem, videoItem)

	lectures := &fakeCourseScoped[types.Lecture]{}
	lectures.add(courseID, &types.Lecture{ID: uuid.New(), CourseID: courseID,
		VideoKey: "courses/x/lec.mp4", NotesKey: "courses/x/lec.pdf",
	})

	subs, err := json.Marshal([]types.AssignmentSubmission{{StudentID: uuid.New(), FileKey: "courses/x/sub.pdf"}})
	if err != nil {
		t.Fatalf("marshal submissions: %v", err)
	}
	assignments := &fakeCourseScoped[types.Assignment]{}
	assignments.add(courseID, &types.Assignment{ID: uuid.New(), CourseID: courseID,
		AttachmentKeys: datatypes.JSONSlice[string]{"courses/x/hw.pdf"},
		Submissions:    datatypes.JSON(subs),
	})

	announcements := &fakeCourseScoped[types.Announcement]{}
	announcements.add(courseID, &types.Announcement{ID: uuid.New(), CourseID: courseID, ImageKey: "courses/x/banner.png"})

	replies, err := json.Marshal([]types.DiscussionReply{{AuthorID: uuid.New(), AttachmentKeys: []string{"courses/x/reply.png"}}})
	if err != nil {
		t.Fatalf("marshal replies: %v", err)
	}
	discussions := &fakeCourseScoped[types.Discussion]{}
	discussions.add(courseID, &types.Discussion{ID: uuid.New(), CourseID: courseID,
		AttachmentKeys: datatypes.JSONSlice[string]{"courses/x/thread.pdf"},
		Replies:        datatypes.JSON(replies),
	})

	supplementary := &fakeCourseScoped[types.SupplementaryContent]{}
	supplementary.add(courseID, &types.SupplementaryContent{ID: uuid.New(), CourseID: courseID, FileKey: "courses/x/extra.zip"})

	cs := &courseService{
		log: testLogger(t).With("service", "CourseService"),

		outcomeRepo:      outcomes,
		scheduleRepo:     &fakeCourseScoped[types.Schedule]{},
		weeklyPlanRepo:   &fakeCourseScoped[types.WeeklyPlan]{},
		creditPointsRepo: &fakeCourseScoped[types.CreditPoints]{},
		attendanceRepo:   &fakeCourseScoped[types.Attendance]{},

		syllabusRepo: syllabi,
		moduleRepo:   modules,
		chapterRepo:  chapters,
		articleRepo:  articles,
		itemRepo:     items,

		lectureRepo:       lectures,
		assignmentRepo:    assignments,
		announcementRepo:  announcements,
		discussionRepo:    discussions,
		supplementaryRepo: supplementary,
	}

	ctx := context.Background()
	manifest := types.NewDeleteManifest()
	if err := cs.deleteSatellites(ctx, nil, courseID, manifest); err != nil {
		t.Fatalf("deleteSatellites: %v", err)
	}
	if err := cs.deleteSyllabusGraph(ctx, nil, courseID, manifest); err != nil {
		t.Fatalf("deleteSyllabusGraph: %v", err)
	}
	if err := cs.deleteCoursework(ctx, nil, courseID, manifest); err != nil {
		t.Fatalf("deleteCoursework: %v", err)
	}

	wantKeys := []string{
		"courses/x/notes.pdf", "courses/x/cap.mp4",
		"courses/x/lec.mp4", "courses/x/lec.pdf",
		"courses/x/hw.pdf", "courses/x/sub.pdf",
		"courses/x/banner.png",
		"courses/x/thread.pdf", "courses/x/reply.png",
		"courses/x/extra.zip",
	}
	got := map[string]bool{}
	for _, k := range manifest.BlobKeys {
		got[k] = true
	}
	for _, k := range wantKeys {
		if !got[k] {
			t.Fatalf("manifest missing key %q: %v", k, manifest.BlobKeys)
		}
	}
	if len(manifest.BlobKeys) != len(wantKeys) {
		t.Fatalf("manifest keys: want=%d got=%v", len(wantKeys), manifest.BlobKeys)
	}

	wantCounts := map[string]int{
		"outcomes": 1,
		"syllabi":  1, "modules": 1, "chapters": 1, "articles": 1, "content_items": 2,
		"lectures": 1, "assignments": 1, "announcements": 1, "discussions": 1,
		"supplementary_content": 1,
	}
	for entity, n := range wantCounts {
		if manifest.DeletedCounts[entity] != n {
			t.Fatalf("count %q: want=%d got=%d", entity, n, manifest.DeletedCounts[entity])
		}
	}
	if len(syllabi.rows)+len(modules.rows)+len(chapters.rows)+len(articles.rows)+len(items.rows) != 0 {
		t.Fatalf("syllabus tree rows left behind")
	}
}
