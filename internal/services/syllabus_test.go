package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/platform/apierr"
	"github.com/classbridge/classbridge-backend/internal/types"
)

func TestValidateReorderSetAcceptsPermutation(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	existing := map[uuid.UUID]bool{a: true, b: true, c: true}

	if err := validateReorderSet(existing, []uuid.UUID{c, a, b}); err != nil {
		t.Fatalf("validateReorderSet: %v", err)
	}
}

func TestValidateReorderSetRejectsPartialList(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	existing := map[uuid.UUID]bool{a: true, b: true}

	err := validateReorderSet(existing, []uuid.UUID{a})
	if err == nil {
		t.Fatalf("expected error for partial list")
	}
	if !apierr.Is(err, apierr.CodeValidationFailed) {
		t.Fatalf("want code %q, got %v", apierr.CodeValidationFailed, err)
	}
}

func TestValidateReorderSetRejectsForeignID(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	existing := map[uuid.UUID]bool{a: true, b: true}

	if err := validateReorderSet(existing, []uuid.UUID{a, uuid.New()}); err == nil {
		t.Fatalf("expected error for id outside the collection")
	}
}

func TestValidateReorderSetRejectsDuplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	existing := map[uuid.UUID]bool{a: true, b: true}

	if err := validateReorderSet(existing, []uuid.UUID{a, a}); err == nil {
		t.Fatalf("expected error for duplicated id")
	}
}

func TestMaxChapterOrder(t *testing.T) {
	if got := maxChapterOrder(nil); got != 0 {
		t.Fatalf("empty: want=0 got=%d", got)
	}
	chapters := []*types.Chapter{
		{Order: 2},
		nil,
		{Order: 7},
		{Order: 4},
	}
	if got := maxChapterOrder(chapters); got != 7 {
		t.Fatalf("max: want=7 got=%d", got)
	}
}

func TestMaxItemOrderCountsOwnTypeOnly(t *testing.T) {
	moduleID := uuid.New()
	items := []*types.ContentItem{
		{ID: uuid.New(), ModuleID: moduleID, Type: types.ContentTypeFile, Order: 2},
		{ID: uuid.New(), ModuleID: moduleID, Type: types.ContentTypeLink, Order: 5},
		nil,
	}

	if got := maxItemOrder(items, types.ContentTypeFile); got != 2 {
		t.Fatalf("file max: want=2 got=%d", got)
	}
	if got := maxItemOrder(items, types.ContentTypeLink); got != 5 {
		t.Fatalf("link max: want=5 got=%d", got)
	}
	// A type with no siblings starts at zero, so the first video gets order 1.
	if got := maxItemOrder(items, types.ContentTypeVideo); got != 0 {
		t.Fatalf("video max: want=0 got=%d", got)
	}
}

func TestItemOrdersByTypeNumbersWithinEachType(t *testing.T) {
	file1, link1, file2, text1 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	typeByID := map[uuid.UUID]string{
		file1: types.ContentTypeFile,
		link1: types.ContentTypeLink,
		file2: types.ContentTypeFile,
		text1: types.ContentTypeText,
	}

	orders := itemOrdersByType(typeByID, []uuid.UUID{file1, link1, file2, text1})

	want := map[uuid.UUID]int{file1: 1, link1: 1, file2: 2, text1: 1}
	for id, n := range want {
		if orders[id] != n {
			t.Fatalf("order for %s: want=%d got=%d", id, n, orders[id])
		}
	}
}
