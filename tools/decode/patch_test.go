package decode

import (
	"testing"
	"time"

	"TeamHive/tools/errs"
)

type testPatch struct {
	Title    *string    `json:"title"`
	Count    *int       `json:"count"`
	DueDate  *time.Time `json:"dueDate"`
	Internal *string    `json:"-"`
}

func TestPatchPartial(t *testing.T) {
	var p testPatch
	err := Patch(map[string]any{"title": "hello"}, &p)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if p.Title == nil || *p.Title != "hello" {
		t.Fatalf("title = %v", p.Title)
	}
	// 未提交的字段必须保持 nil，零值和缺省要能区分
	if p.Count != nil || p.DueDate != nil {
		t.Fatal("absent fields must stay nil")
	}
}

func TestPatchDropsUnknownKeys(t *testing.T) {
	var p testPatch
	err := Patch(map[string]any{"title": "x", "ownerId": "evil", "admins": []string{"evil"}}, &p)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if p.Title == nil || *p.Title != "x" {
		t.Fatalf("title = %v", p.Title)
	}
	if p.Internal != nil {
		t.Fatal("unknown keys must not land anywhere")
	}
}

func TestPatchParsesRFC3339(t *testing.T) {
	var p testPatch
	err := Patch(map[string]any{"dueDate": "2025-07-01T10:00:00Z"}, &p)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	want := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	if p.DueDate == nil || !p.DueDate.Equal(want) {
		t.Fatalf("dueDate = %v, want %v", p.DueDate, want)
	}
}

func TestPatchBadTime(t *testing.T) {
	var p testPatch
	err := Patch(map[string]any{"dueDate": "last tuesday"}, &p)
	if err == nil {
		t.Fatal("expected error for unparsable time")
	}
	if !errs.ErrValidation.Is(err) {
		t.Fatalf("want Validation, got %v", err)
	}
}

func TestPatchWeakTyping(t *testing.T) {
	var p testPatch
	// JSON 数字经 map[string]any 进来是 float64
	err := Patch(map[string]any{"count": float64(3)}, &p)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if p.Count == nil || *p.Count != 3 {
		t.Fatalf("count = %v", p.Count)
	}
}
