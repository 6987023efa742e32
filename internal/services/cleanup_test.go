package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/types"
)

func TestCleanupRunDeletesEveryKey(t *testing.T) {
	bucket := newFakeBucket()
	svc := NewCleanupService(testLogger(t), bucket)

	manifest := types.NewDeleteManifest()
	manifest.AddKeys("courses/c/a.pdf", "courses/c/b.mp4")
	svc.Run(context.Background(), manifest)

	if len(bucket.deleted) != 2 {
		t.Fatalf("deleted keys: want=2 got=%v", bucket.deleted)
	}
}

func TestCleanupRunSwallowsFailures(t *testing.T) {
	bucket := newFakeBucket()
	bucket.failKeys["courses/c/broken.pdf"] = true
	svc := NewCleanupService(testLogger(t), bucket)

	manifest := types.NewDeleteManifest()
	manifest.AddKeys("courses/c/broken.pdf", "courses/c/ok.pdf")

	// Must not panic or abort on the failing key.
	svc.Run(context.Background(), manifest)

	if len(bucket.deleted) != 1 || bucket.deleted[0] != "courses/c/ok.pdf" {
		t.Fatalf("remaining keys should still be attempted: got=%v", bucket.deleted)
	}
}

func TestCleanupRunToleratesMissingObjects(t *testing.T) {
	bucket := newFakeBucket()
	bucket.missingKeys["courses/c/gone.pdf"] = true
	svc := NewCleanupService(testLogger(t), bucket)

	manifest := types.NewDeleteManifest()
	manifest.AddKeys("courses/c/gone.pdf", "courses/c/here.pdf")
	svc.Run(context.Background(), manifest)

	if len(bucket.deleted) != 1 || bucket.deleted[0] != "courses/c/here.pdf" {
		t.Fatalf("missing objects count as cleaned: got=%v", bucket.deleted)
	}
}

func TestCleanupRunHandlesEmptyManifest(t *testing.T) {
	bucket := newFakeBucket()
	svc := NewCleanupService(testLogger(t), bucket)

	svc.Run(context.Background(), nil)
	svc.Run(context.Background(), types.NewDeleteManifest())

	if len(bucket.deleted) != 0 {
		t.Fatalf("nothing should be deleted: got=%v", bucket.deleted)
	}
}

func TestSweepCoursePrefixRemovesOnlyCourseKeys(t *testing.T) {
	courseA := uuid.New()
	courseB := uuid.New()
	bucket := newFakeBucket()
	bucket.uploaded[courseBlobPrefix(courseA)+"a.pdf"] = "x"
	bucket.uploaded[courseBlobPrefix(courseA)+"b.mp4"] = "x"
	bucket.uploaded[courseBlobPrefix(courseB)+"c.pdf"] = "x"

	svc := NewCleanupService(testLogger(t), bucket)
	svc.SweepCoursePrefix(context.Background(), courseA)

	deleted := map[string]bool{}
	for _, k := range bucket.deleted {
		deleted[k] = true
	}
	if !deleted[courseBlobPrefix(courseA)+"a.pdf"] || !deleted[courseBlobPrefix(courseA)+"b.mp4"] {
		t.Fatalf("course keys not swept: %v", bucket.deleted)
	}
	if deleted[courseBlobPrefix(courseB)+"c.pdf"] {
		t.Fatalf("another course's key was swept: %v", bucket.deleted)
	}
}
