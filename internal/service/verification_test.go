package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/homer-app/marketplace-platform/internal/model"
	"github.com/homer-app/marketplace-platform/internal/verification"
	"github.com/homer-app/marketplace-platform/pkg/logger"
)

type fakeObjectStore struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = b
	return nil
}

func (f *fakeObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://store.example/" + key, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func upload(name, body string) verification.Upload {
	return verification.Upload{
		FileName:  name,
		SizeBytes: int64(len(body)),
		Content:   strings.NewReader(body),
	}
}

func TestRemoveDocumentDeletesStoredObject(t *testing.T) {
	store := &fakeObjectStore{}
	svc := NewVerificationService(store, nil, verification.DefaultLimits(), logger.NewNop())
	ctx := context.Background()

	if err := svc.SubmitDocument(ctx, "u1", model.KindRenter, "idProof", upload("scan.pdf", "data")); err != nil {
		t.Fatalf("SubmitDocument: %v", err)
	}
	key := "verification/u1/renter/idProof.pdf"
	if _, ok := store.objects[key]; !ok {
		t.Fatalf("object not stored under %s: %v", key, store.objects)
	}

	if err := svc.RemoveDocument(ctx, "u1", model.KindRenter, "idProof"); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != key {
		t.Fatalf("deleted = %v, want [%s]", store.deleted, key)
	}

	wf, err := svc.Get("u1", model.KindRenter)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := wf.Snapshot().Documents["idProof"].Status; got != verification.SlotEmpty {
		t.Fatalf("slot status = %s, want empty", got)
	}
}

// Replacing a document with one of a different extension stores under a new
// key; the old object must be deleted, not orphaned.
func TestReuploadWithNewExtensionDeletesSupersededObject(t *testing.T) {
	store := &fakeObjectStore{}
	svc := NewVerificationService(store, nil, verification.DefaultLimits(), logger.NewNop())
	ctx := context.Background()

	if err := svc.SubmitDocument(ctx, "u1", model.KindRenter, "idProof", upload("scan.pdf", "data")); err != nil {
		t.Fatalf("SubmitDocument pdf: %v", err)
	}
	if err := svc.SubmitDocument(ctx, "u1", model.KindRenter, "idProof", upload("photo.png", "data2")); err != nil {
		t.Fatalf("SubmitDocument png: %v", err)
	}

	pdfKey := "verification/u1/renter/idProof.pdf"
	pngKey := "verification/u1/renter/idProof.png"
	if _, ok := store.objects[pngKey]; !ok {
		t.Fatalf("replacement not stored under %s: %v", pngKey, store.objects)
	}
	if _, ok := store.objects[pdfKey]; ok {
		t.Fatalf("superseded object %s still in store", pdfKey)
	}
	found := false
	for _, k := range store.deleted {
		if k == pdfKey {
			found = true
		}
	}
	if !found {
		t.Fatalf("deleted = %v, want %s among them", store.deleted, pdfKey)
	}

	// Removal after replacement deletes the current key, not the old one.
	if err := svc.RemoveDocument(ctx, "u1", model.KindRenter, "idProof"); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	if last := store.deleted[len(store.deleted)-1]; last != pngKey {
		t.Fatalf("last deleted = %s, want %s", last, pngKey)
	}
}
