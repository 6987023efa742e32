package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/platform/gcp"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/types"
)

// CleanupService executes the blob-key manifest left behind by a structural
// delete. It runs strictly after the owning transaction has committed: every
// key is attempted exactly once, failures are logged and swallowed, and the
// caller's reported outcome is never affected.
type CleanupService interface {
	Run(ctx context.Context, manifest *types.DeleteManifest)

	// SweepCoursePrefix removes whatever is still stored under a course's
	// blob prefix, such as keys orphaned by earlier failed cleanups. Runs
	// only after the course rows are gone.
	SweepCoursePrefix(ctx context.Context, courseID uuid.UUID)
}

type cleanupService struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewCleanupService(baseLog *logger.Logger, bucket gcp.BucketService) CleanupService {
	return &cleanupService{
		log:    baseLog.With("service", "CleanupService"),
		bucket: bucket,
	}
}

func (cs *cleanupService) Run(ctx context.Context, manifest *types.DeleteManifest) {
	if manifest == nil || len(manifest.BlobKeys) == 0 {
		return
	}
	deleted, failed := 0, 0
	for _, key := range manifest.BlobKeys {
		if key == "" {
			continue
		}
		err := cs.bucket.DeleteFile(ctx, key)
		if err != nil && !gcp.IsNotFound(err) {
			failed++
			cs.log.Warn("blob cleanup failed", "key", key, "error", err)
			continue
		}
		deleted++
	}
	cs.log.Info("blob cleanup finished", "deleted", deleted, "failed", failed)
}

func (cs *cleanupService) SweepCoursePrefix(ctx context.Context, courseID uuid.UUID) {
	prefix := courseBlobPrefix(courseID)
	keys, err := cs.bucket.ListKeys(ctx, prefix)
	if err != nil {
		cs.log.Warn("prefix sweep listing failed", "prefix", prefix, "error", err)
		return
	}
	swept := 0
	for _, key := range keys {
		if err := cs.bucket.DeleteFile(ctx, key); err != nil && !gcp.IsNotFound(err) {
			cs.log.Warn("prefix sweep delete failed", "key", key, "error", err)
			continue
		}
		swept++
	}
	if swept > 0 {
		cs.log.Info("prefix sweep finished", "prefix", prefix, "swept", swept)
	}
}
