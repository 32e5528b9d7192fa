package repo

import (
	"context"
	"testing"
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/scoring"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/testkit"
	"satyanetra/internal/services/analysis/domain"
)

// checkStorage runs the behavior every Storage implementation shares
func checkStorage(t *testing.T, st Storage) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	text := domain.Record{
		ID: "t1", Kind: content.KindText, Status: domain.StatusPending, SourceHandle: "newsbot", SubmittedAt: at,
		Item: content.Item{ID: "t1", Kind: content.KindText, Text: "hello there", SubmittedAt: at, SourceHandle: "newsbot"},
	}
	img := domain.Record{
		ID: "i1", Kind: content.KindImage, Status: domain.StatusPending, SubmittedAt: at,
		Item: content.Item{ID: "i1", Kind: content.KindImage, SubmittedAt: at, Image: &content.Image{
			SHA256: "abc", Format: "png", Size: 3, Overlay: "overlay", Data: []byte{1, 2, 3},
		}},
	}
	for _, r := range []domain.Record{text, img} {
		if err := st.Put(ctx, r); err != nil {
			t.Fatalf("Put %s: %v", r.ID, err)
		}
	}

	got, err := st.Get(ctx, "i1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Item.Image == nil || string(got.Item.Image.Data) != "\x01\x02\x03" || got.Item.Image.Overlay != "overlay" {
		t.Fatalf("image item not round-tripped: %+v", got.Item)
	}

	done := at.Add(time.Second)
	text.Status, text.FinishedAt, text.Attempts, text.Revision = domain.StatusCompleted, &done, 1, 1
	text.Result = &scoring.Result{ContentID: "t1", Score: 12.5, Category: scoring.CategoryBenign, Indicators: []string{}, ComputedAt: done}
	if err := st.Put(ctx, text); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, err = st.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.Revision != 1 || got.Result == nil || got.Result.Score != 12.5 {
		t.Fatalf("update not stored: %+v", got)
	}
	if got.Item.Text != "hello there" || got.SourceHandle != "newsbot" {
		t.Fatalf("item lost on update: %+v", got)
	}

	img.Status, img.FinishedAt, img.Reason = domain.StatusFailed, &done, domain.ReasonWithdrawn
	if err := st.Put(ctx, img); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	c, err := st.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if c != (domain.Counts{Completed: 1, Failed: 1}) {
		t.Fatalf("counts = %+v", c)
	}

	_, err = st.Get(ctx, "missing")
	testkit.MustCode(t, err, perr.ErrorCodeNotFound)
}

func TestMemory(t *testing.T) {
	checkStorage(t, NewMemory())
}

func TestMemoryRejectsEmptyID(t *testing.T) {
	testkit.MustCode(t, NewMemory().Put(context.Background(), domain.Record{}), perr.ErrorCodeInvalidArgument)
}
