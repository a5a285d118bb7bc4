package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"call-insights/constant"
)

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	svc := NewCallService(newFakeRepo(), newFakeStore())

	_, err := svc.Upload(context.Background(), "notes.txt", strings.NewReader("x"), 1)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestUploadSuffixesCollidingFilename(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewCallService(repo, store)

	first, err := svc.Upload(ctx, "greeting.mp3", strings.NewReader("a"), 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Upload(ctx, "greeting.mp3", strings.NewReader("b"), 1)
	if err != nil {
		t.Fatal(err)
	}

	if second.Filename == first.Filename {
		t.Fatalf("colliding upload kept the same filename %q", second.Filename)
	}
	if !strings.HasPrefix(second.Filename, "greeting_") || !strings.HasSuffix(second.Filename, ".mp3") {
		t.Errorf("suffixed filename: %q", second.Filename)
	}
	if !store.audio[first.StoragePath] || !store.audio[second.StoragePath] {
		t.Error("both audio objects must exist")
	}
}

func TestGetTranscriptRequiresProcessing(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewCallService(repo, store)

	call := repo.addCall(constant.CallStatusNew, false)
	if _, err := svc.GetTranscript(ctx, call.ID); !errors.Is(err, ErrCallNotProcessed) {
		t.Fatalf("new call: expected ErrCallNotProcessed, got %v", err)
	}

	call.Status = constant.CallStatusProcessed
	if _, err := svc.GetTranscript(ctx, call.ID); !errors.Is(err, ErrTranscriptMissing) {
		t.Fatalf("no artifact: expected ErrTranscriptMissing, got %v", err)
	}

	if err := store.SaveTranscript(ctx, call.ID, defaultTranscript()); err != nil {
		t.Fatal(err)
	}
	call.Status = constant.CallStatusProcessing
	got, err := svc.GetTranscript(ctx, call.ID)
	if err != nil {
		t.Fatalf("processing call with artifact: %v", err)
	}
	if len(got.Segments) != 2 {
		t.Errorf("segments: %d", len(got.Segments))
	}
}

func TestDeleteRemovesArtifacts(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewCallService(repo, store)

	call := repo.addCall(constant.CallStatusProcessed, true)
	store.audio[call.StoragePath] = true
	if err := store.SaveTranscript(ctx, call.ID, defaultTranscript()); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, call.ID); err != nil {
		t.Fatal(err)
	}
	if store.audio[call.StoragePath] {
		t.Error("audio object survived delete")
	}
	if _, ok := store.transcripts[call.ID]; ok {
		t.Error("transcript artifact survived delete")
	}
	if _, err := repo.FindCallByID(ctx, call.ID); err == nil {
		t.Error("call row survived delete")
	}
}

func TestSeedSystemTemplatesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()

	if err := SeedSystemTemplates(ctx, repo); err != nil {
		t.Fatal(err)
	}
	if err := SeedSystemTemplates(ctx, repo); err != nil {
		t.Fatal(err)
	}

	count, _ := repo.CountSystemTemplates(ctx)
	if count != len(systemTemplates) {
		t.Fatalf("system templates after two seeds: %d", count)
	}
}
