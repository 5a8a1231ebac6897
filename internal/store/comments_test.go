package store

import (
	"context"
	"testing"
)

func TestInMemoryCommentStore_Create(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	c, err := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "hello", Visibility: VisibilityPublic,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected non-empty id")
	}
	if c.Status != StatusActive {
		t.Fatalf("expected active status, got %q", c.Status)
	}
	if c.RootID == nil || *c.RootID != c.ID {
		t.Fatal("expected root comment to be its own root")
	}
}

func TestInMemoryCommentStore_Create_ReplyInheritsRoot(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	root, _ := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "root", Visibility: VisibilityPublic,
	})
	pid := root.ID
	reply, err := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-b", ParentID: &pid, Body: "reply", Visibility: VisibilityPublic,
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.RootID == nil || *reply.RootID != root.ID {
		t.Fatal("expected reply to inherit root id")
	}

	// Reply to the reply stays anchored to the same root.
	rid := reply.ID
	deep, err := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-c", ParentID: &rid, Body: "deep", Visibility: VisibilityPublic,
	})
	if err != nil {
		t.Fatalf("deep reply: %v", err)
	}
	if deep.RootID == nil || *deep.RootID != root.ID {
		t.Fatal("expected deep reply to keep the thread root")
	}
}

func TestInMemoryCommentStore_Create_ParentTargetMismatch(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	root, _ := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "root", Visibility: VisibilityPublic,
	})
	pid := root.ID
	_, err := s.Create(ctx, CreateCommentParams{
		TargetType: TargetCourse, TargetID: "course-1",
		UserID: "user-b", ParentID: &pid, Body: "wrong target", Visibility: VisibilityPublic,
	})
	if err != ErrParentMismatch {
		t.Fatalf("expected ErrParentMismatch, got %v", err)
	}
}

func TestInMemoryCommentStore_Create_AttachmentOwnership(t *testing.T) {
	uploads := NewInMemoryUploadStore()
	s := NewInMemoryCommentStore().WithUploads(uploads)
	ctx := context.Background()

	up, _ := uploads.Create(ctx, CreateUploadParams{UserID: "user-a", Filename: "notes.pdf", Size: 10})

	// Pending upload cannot be attached.
	_, err := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "with file", Visibility: VisibilityPublic,
		AttachmentIDs: []string{up.ID},
	})
	if err != ErrInvalidAttachment {
		t.Fatalf("expected ErrInvalidAttachment for pending upload, got %v", err)
	}

	if err := uploads.Complete(ctx, up.ID, "user-a"); err != nil {
		t.Fatalf("complete upload: %v", err)
	}

	// Someone else's upload cannot be attached.
	_, err = s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-b", Body: "stolen file", Visibility: VisibilityPublic,
		AttachmentIDs: []string{up.ID},
	})
	if err != ErrInvalidAttachment {
		t.Fatalf("expected ErrInvalidAttachment for foreign upload, got %v", err)
	}

	c, err := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "with file", Visibility: VisibilityPublic,
		AttachmentIDs: []string{up.ID},
	})
	if err != nil {
		t.Fatalf("create with attachment: %v", err)
	}
	if len(c.Attachments) != 1 || c.Attachments[0].Filename != "notes.pdf" {
		t.Fatalf("expected joined attachment metadata, got %+v", c.Attachments)
	}
}

func TestInMemoryCommentStore_UpdateBody_AuthorOnly(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	c, _ := s.Create(ctx, CreateCommentParams{
		TargetType: TargetCourse, TargetID: "course-1",
		UserID: "user-a", Body: "original", Visibility: VisibilityPublic,
	})

	// Non-author cannot edit
	err := s.UpdateBody(ctx, c.ID, "user-b", "hacked")
	if err != ErrNotFoundOrForbidden {
		t.Fatalf("expected ErrNotFoundOrForbidden for non-author, got %v", err)
	}

	// Author can edit
	if err := s.UpdateBody(ctx, c.ID, "user-a", "updated"); err != nil {
		t.Fatalf("author update: %v", err)
	}

	got, _ := s.GetByID(ctx, c.ID)
	if got.Body != "updated" {
		t.Fatalf("expected updated body, got %q", got.Body)
	}
}

func TestInMemoryCommentStore_SoftDelete(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	c, _ := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "will delete", Visibility: VisibilityPublic,
	})

	// Non-author cannot delete
	err := s.SoftDelete(ctx, c.ID, "user-b")
	if err != ErrNotFoundOrForbidden {
		t.Fatalf("expected ErrNotFoundOrForbidden for non-author, got %v", err)
	}

	if err := s.SoftDelete(ctx, c.ID, "user-a"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	got, _ := s.GetByID(ctx, c.ID)
	if got.Status != StatusDeleted {
		t.Fatalf("expected deleted status, got %q", got.Status)
	}

	// Cannot delete again
	err = s.SoftDelete(ctx, c.ID, "user-a")
	if err != ErrNotFoundOrForbidden {
		t.Fatalf("expected ErrNotFoundOrForbidden for double delete, got %v", err)
	}

	// Edit after delete is refused too
	err = s.UpdateBody(ctx, c.ID, "user-a", "resurrect")
	if err != ErrNotFoundOrForbidden {
		t.Fatalf("expected ErrNotFoundOrForbidden for edit after delete, got %v", err)
	}
}

func TestInMemoryCommentStore_Reactions_Idempotent(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	c, _ := s.Create(ctx, CreateCommentParams{
		TargetType: TargetTeacher, TargetID: "teacher-1",
		UserID: "user-a", Body: "reactable", Visibility: VisibilityPublic,
	})

	if err := s.AddReaction(ctx, c.ID, "user-b", "like"); err != nil {
		t.Fatalf("add reaction: %v", err)
	}
	// Same reaction again is a no-op, not a duplicate.
	if err := s.AddReaction(ctx, c.ID, "user-b", "like"); err != nil {
		t.Fatalf("add reaction repeat: %v", err)
	}
	got, _ := s.GetByID(ctx, c.ID)
	if len(got.Reactions) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(got.Reactions))
	}

	if err := s.RemoveReaction(ctx, c.ID, "user-b", "like"); err != nil {
		t.Fatalf("remove reaction: %v", err)
	}
	got, _ = s.GetByID(ctx, c.ID)
	if len(got.Reactions) != 0 {
		t.Fatalf("expected 0 reactions, got %d", len(got.Reactions))
	}

	if err := s.AddReaction(ctx, "missing", "user-b", "like"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing comment, got %v", err)
	}
}

func TestInMemoryCommentStore_ListByStatus(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	a, _ := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-a", Body: "fine", Visibility: VisibilityPublic,
	})
	b, _ := s.Create(ctx, CreateCommentParams{
		TargetType: TargetSection, TargetID: "sec-1",
		UserID: "user-b", Body: "spam", Visibility: VisibilityPublic,
	})
	if err := s.SetStatus(ctx, b.ID, StatusSoftbanned); err != nil {
		t.Fatalf("set status: %v", err)
	}

	banned, err := s.ListByStatus(ctx, StatusSoftbanned, 50)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(banned) != 1 || banned[0].ID != b.ID {
		t.Fatalf("expected only the softbanned comment, got %+v", banned)
	}
	_ = a
}

func TestCommentStoreInterface(t *testing.T) {
	var _ CommentStore = (*InMemoryCommentStore)(nil)
	var _ CommentStore = (*PostgresCommentStore)(nil)
}
