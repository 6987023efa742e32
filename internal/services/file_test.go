package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/platform/apierr"
)

func TestFileUploadBuildsCourseScopedKey(t *testing.T) {
	bucket := newFakeBucket()
	svc := NewFileService(testLogger(t), bucket)
	courseID := uuid.New()

	obj, err := svc.Upload(context.Background(), courseID, UploadRequest{
		Name:        "syllabus.pdf",
		Size:        11,
		ContentType: "application/pdf",
		Body:        strings.NewReader("hello world"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	prefix := "courses/" + courseID.String() + "/"
	if !strings.HasPrefix(obj.Key, prefix) {
		t.Fatalf("key prefix: want=%q got=%q", prefix, obj.Key)
	}
	if !strings.HasSuffix(obj.Key, ".pdf") {
		t.Fatalf("key should keep the extension: %q", obj.Key)
	}
	if obj.Name != "syllabus.pdf" || obj.Size != 11 {
		t.Fatalf("descriptor: %+v", obj)
	}
	if obj.URL != "https://cdn.test/"+obj.Key {
		t.Fatalf("url: got=%q", obj.URL)
	}
	if bucket.uploaded[obj.Key] != "hello world" {
		t.Fatalf("body not written: %q", bucket.uploaded[obj.Key])
	}
}

func TestFileUploadValidatesRequest(t *testing.T) {
	svc := NewFileService(testLogger(t), newFakeBucket())
	courseID := uuid.New()

	cases := []struct {
		name string
		req  UploadRequest
		cid  uuid.UUID
	}{
		{"missing name", UploadRequest{Body: strings.NewReader("x")}, courseID},
		{"missing body", UploadRequest{Name: "a.pdf"}, courseID},
		{"missing course", UploadRequest{Name: "a.pdf", Body: strings.NewReader("x")}, uuid.Nil},
	}
	for _, tc := range cases {
		_, err := svc.Upload(context.Background(), tc.cid, tc.req)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !apierr.Is(err, apierr.CodeUploadError) {
			t.Fatalf("%s: want code %q, got %v", tc.name, apierr.CodeUploadError, err)
		}
	}
}

func TestFileUploadSurfacesBucketFailure(t *testing.T) {
	bucket := newFakeBucket()
	bucket.uploadErr = fmt.Errorf("bucket unavailable")
	svc := NewFileService(testLogger(t), bucket)

	_, err := svc.Upload(context.Background(), uuid.New(), UploadRequest{
		Name: "a.pdf",
		Body: strings.NewReader("x"),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr, ok := apierr.As(err)
	if !ok {
		t.Fatalf("want apierr, got %T", err)
	}
	if apiErr.Status != 502 || apiErr.Code != apierr.CodeUploadError {
		t.Fatalf("status/code: got=%d/%s", apiErr.Status, apiErr.Code)
	}
}
