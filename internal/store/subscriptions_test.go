package store

import (
	"context"
	"testing"
)

func TestInMemorySubscriptionStore_CreateDeleteList(t *testing.T) {
	s := NewInMemorySubscriptionStore()
	ctx := context.Background()

	sub, err := s.Create(ctx, "user-a", "sec-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("expected non-empty id")
	}

	// Duplicate subscription is a conflict.
	if _, err := s.Create(ctx, "user-a", "sec-1"); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	_, _ = s.Create(ctx, "user-a", "sec-2")
	_, _ = s.Create(ctx, "user-b", "sec-1")

	subs, err := s.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions for user-a, got %d", len(subs))
	}

	if err := s.Delete(ctx, "user-a", "sec-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "user-a", "sec-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for double delete, got %v", err)
	}
}

func TestSubscriptionStoreInterface(t *testing.T) {
	var _ SubscriptionStore = (*InMemorySubscriptionStore)(nil)
	var _ SubscriptionStore = (*PostgresSubscriptionStore)(nil)
}

func TestUploadStoreInterface(t *testing.T) {
	var _ UploadStore = (*InMemoryUploadStore)(nil)
	var _ UploadStore = (*PostgresUploadStore)(nil)
}
