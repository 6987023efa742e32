package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/platform/apierr"
	"github.com/classbridge/classbridge-backend/internal/platform/gcp"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/types"
)

// courseBlobPrefix is the logical path every blob belonging to a course is
// stored under. The cleanup sweep relies on this layout.
func courseBlobPrefix(courseID uuid.UUID) string {
	return path.Join("courses", courseID.String()) + "/"
}

// UploadRequest describes an incoming blob before it has a storage key.
type UploadRequest struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// FileService turns an incoming blob into an uploaded-object descriptor
// under a course-scoped logical path. Upload happens before any structural
// write referencing the descriptor.
type FileService interface {
	Upload(ctx context.Context, courseID uuid.UUID, req UploadRequest) (*types.UploadedObject, error)
}

type fileService struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewFileService(baseLog *logger.Logger, bucket gcp.BucketService) FileService {
	return &fileService{
		log:    baseLog.With("service", "FileService"),
		bucket: bucket,
	}
}

func (fs *fileService) Upload(ctx context.Context, courseID uuid.UUID, req UploadRequest) (*types.UploadedObject, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeUploadError,
			fmt.Errorf("upload requires a file name"))
	}
	if req.Body == nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeUploadError,
			fmt.Errorf("upload requires a file body"))
	}
	if courseID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeUploadError,
			fmt.Errorf("upload requires an owning course"))
	}

	key := courseBlobPrefix(courseID) + uuid.New().String() + path.Ext(name)

	fs.log.Info("Uploading blob to bucket", "course_id", courseID, "key", key, "name", name)
	if err := fs.bucket.UploadFile(ctx, key, req.Body, req.ContentType); err != nil {
		fs.log.Error("UploadFile failed", "error", err, "key", key)
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeUploadError,
			fmt.Errorf("upload %s: %w", name, err))
	}

	return &types.UploadedObject{
		URL:  fs.bucket.GetPublicURL(key),
		Key:  key,
		Name: name,
		Size: req.Size,
	}, nil
}
