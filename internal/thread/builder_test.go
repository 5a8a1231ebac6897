package thread

import (
	"reflect"
	"testing"
	"time"

	"github.com/example/course-portal/internal/store"
)

var baseTime = time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

func row(id string, parentID *string, offset time.Duration, opts ...func(*store.Comment)) store.Comment {
	userID := "author-" + id
	c := store.Comment{
		ID:         id,
		TargetType: store.TargetSection,
		TargetID:   "sec-1",
		UserID:     &userID,
		ParentID:   parentID,
		Body:       "body of " + id,
		Status:     store.StatusActive,
		Visibility: store.VisibilityPublic,
		CreatedAt:  baseTime.Add(offset),
		UpdatedAt:  baseTime.Add(offset),
		Author:     &store.AuthorSummary{ID: userID, Name: "Author " + id},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func ptr(s string) *string { return &s }

func withStatus(status string) func(*store.Comment) {
	return func(c *store.Comment) { c.Status = status }
}

func withUser(userID string) func(*store.Comment) {
	return func(c *store.Comment) {
		c.UserID = &userID
		c.Author = &store.AuthorSummary{ID: userID, Name: "User " + userID}
	}
}

func withVisibility(v string) func(*store.Comment) {
	return func(c *store.Comment) { c.Visibility = v }
}

// collectIDs walks the forest and returns every node id it contains.
func collectIDs(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ID)
		out = append(out, collectIDs(n.Replies)...)
	}
	return out
}

func TestBuild_NilRows(t *testing.T) {
	_, err := Build(nil, Viewer{})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuild_Empty(t *testing.T) {
	res, err := Build([]store.Comment{}, Viewer{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Comments) != 0 || res.HiddenCount != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestBuild_Partition(t *testing.T) {
	rows := []store.Comment{
		row("a", nil, 0),
		row("b", ptr("a"), time.Minute),
		row("c", ptr("a"), 2*time.Minute),
		row("d", ptr("b"), 3*time.Minute),
		row("e", nil, 4*time.Minute),
		row("f", ptr("zzz"), 5*time.Minute), // dangling parent
	}

	res, err := Build(rows, Viewer{IsAuthenticated: true, UserID: "u9"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ids := collectIDs(res.Comments)
	if len(ids) != len(rows) {
		t.Fatalf("expected %d nodes, got %d (%v)", len(rows), len(ids), ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate node %s", id)
		}
		seen[id] = true
	}
	for _, r := range rows {
		if !seen[r.ID] {
			t.Fatalf("row %s missing from output", r.ID)
		}
	}
}

func TestBuild_Ordering(t *testing.T) {
	// Insert out of order; same createdAt for b1/b2 so the id breaks the tie.
	sameTime := 30 * time.Second
	rows := []store.Comment{
		row("r2", nil, time.Hour),
		row("r1", nil, 0),
		row("b2", ptr("r1"), sameTime),
		row("b1", ptr("r1"), sameTime),
	}

	res, err := Build(rows, Viewer{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Comments[0].ID != "r1" || res.Comments[1].ID != "r2" {
		t.Fatalf("roots out of order: %v", collectIDs(res.Comments))
	}
	replies := res.Comments[0].Replies
	if len(replies) != 2 || replies[0].ID != "b1" || replies[1].ID != "b2" {
		t.Fatalf("expected id tiebreak b1,b2, got %v", collectIDs(replies))
	}
}

func TestBuild_Idempotent(t *testing.T) {
	rows := []store.Comment{
		row("a", nil, 0),
		row("b", ptr("a"), time.Minute, withStatus(store.StatusSoftbanned)),
		row("c", nil, 2*time.Minute, withVisibility(store.VisibilityAnonymous)),
	}
	viewer := Viewer{UserID: "u9", IsAuthenticated: true}

	first, err := Build(rows, viewer)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := Build(rows, viewer)
	if err != nil {
		t.Fatalf("build again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestBuild_ViewerRelativity(t *testing.T) {
	authorID := "u-author"
	rows := []store.Comment{
		row("a", nil, 0, withUser(authorID), withStatus(store.StatusSoftbanned)),
	}

	// Two different strangers see the same redaction.
	s1, _ := Build(rows, Viewer{UserID: "u-x", IsAuthenticated: true})
	s2, _ := Build(rows, Viewer{UserID: "u-y", IsAuthenticated: true})
	if s1.Comments[0].Body != DeletedBody || s2.Comments[0].Body != DeletedBody {
		t.Fatal("expected soft-banned body hidden from strangers")
	}
	if s1.HiddenCount != 1 || s2.HiddenCount != 1 {
		t.Fatalf("expected hidden count 1 for strangers, got %d/%d", s1.HiddenCount, s2.HiddenCount)
	}

	// The author and admins still see the content.
	own, _ := Build(rows, Viewer{UserID: authorID, IsAuthenticated: true})
	if own.Comments[0].Body != "body of a" {
		t.Fatalf("expected author to see own soft-banned body, got %q", own.Comments[0].Body)
	}
	if own.HiddenCount != 0 {
		t.Fatalf("expected hidden count 0 for author, got %d", own.HiddenCount)
	}
	admin, _ := Build(rows, Viewer{UserID: "u-admin", IsAdmin: true, IsAuthenticated: true})
	if admin.Comments[0].Body != "body of a" {
		t.Fatalf("expected admin to see soft-banned body, got %q", admin.Comments[0].Body)
	}
	if admin.HiddenCount != 0 {
		t.Fatalf("expected hidden count 0 for admin, got %d", admin.HiddenCount)
	}
}

func TestBuild_DeletedComment(t *testing.T) {
	rows := []store.Comment{
		row("a", nil, 0, withStatus(store.StatusDeleted), func(c *store.Comment) {
			c.Attachments = []store.Attachment{{ID: "att-1", Filename: "x.pdf"}}
			c.Reactions = []store.Reaction{{Type: "like", UserID: "u1"}}
		}),
		row("b", ptr("a"), time.Minute),
	}

	// Even admins only see the deletion marker.
	res, _ := Build(rows, Viewer{UserID: "u-admin", IsAdmin: true, IsAuthenticated: true})
	node := res.Comments[0]
	if node.Body != DeletedBody {
		t.Fatalf("expected deletion marker, got %q", node.Body)
	}
	if len(node.Attachments) != 0 || len(node.Reactions) != 0 {
		t.Fatal("expected attachments and reactions emptied on deleted comment")
	}
	if len(node.Replies) != 1 || node.Replies[0].ID != "b" {
		t.Fatal("expected replies of deleted comment to stay reachable")
	}
	if node.CanReply {
		t.Fatal("expected can_reply false on deleted comment")
	}
}

func TestBuild_SoftbanKeepsReactionCounts(t *testing.T) {
	rows := []store.Comment{
		row("a", nil, 0, withStatus(store.StatusSoftbanned), func(c *store.Comment) {
			c.Attachments = []store.Attachment{{ID: "att-1", Filename: "x.pdf"}}
			c.Reactions = []store.Reaction{
				{Type: "like", UserID: "u1"},
				{Type: "like", UserID: "u2"},
				{Type: "wow", UserID: "u2"},
			}
		}),
	}

	res, _ := Build(rows, Viewer{UserID: "u2", IsAuthenticated: true})
	node := res.Comments[0]
	if node.Body != DeletedBody {
		t.Fatalf("expected hidden body, got %q", node.Body)
	}
	if len(node.Attachments) != 0 {
		t.Fatal("expected attachments hidden on soft-banned comment")
	}
	if len(node.Reactions) != 2 {
		t.Fatalf("expected 2 reaction summaries, got %d", len(node.Reactions))
	}
	if node.Reactions[0].Type != "like" || node.Reactions[0].Count != 2 || !node.Reactions[0].ViewerReacted {
		t.Fatalf("unexpected like summary: %+v", node.Reactions[0])
	}
	if node.Reactions[1].Type != "wow" || node.Reactions[1].Count != 1 {
		t.Fatalf("unexpected wow summary: %+v", node.Reactions[1])
	}
}

func TestBuild_AnonymousHidesAuthorOnly(t *testing.T) {
	authorID := "u-anon"
	rows := []store.Comment{
		row("a", nil, 0, withUser(authorID), withVisibility(store.VisibilityAnonymous)),
	}

	res, _ := Build(rows, Viewer{UserID: "u-x", IsAuthenticated: true})
	node := res.Comments[0]
	if !node.AuthorHidden || node.Author != nil {
		t.Fatal("expected author hidden for strangers")
	}
	if node.Body != "body of a" {
		t.Fatalf("expected body visible on anonymous comment, got %q", node.Body)
	}
	if !node.IsAnonymous {
		t.Fatal("expected is_anonymous flag set")
	}

	own, _ := Build(rows, Viewer{UserID: authorID, IsAuthenticated: true})
	if own.Comments[0].Author == nil || own.Comments[0].Author.ID != authorID {
		t.Fatal("expected author to see own identity")
	}
	if !own.Comments[0].IsAuthor {
		t.Fatal("expected is_author flag for the author")
	}
}

func TestBuild_HiddenCount(t *testing.T) {
	authorID := "u-mine"
	rows := []store.Comment{
		row("a", nil, 0),
		row("b", ptr("a"), time.Minute, withStatus(store.StatusDeleted)),
		row("c", nil, 2*time.Minute, withStatus(store.StatusSoftbanned)),
		row("d", nil, 3*time.Minute, withStatus(store.StatusSoftbanned), withUser(authorID)),
	}

	res, _ := Build(rows, Viewer{UserID: authorID, IsAuthenticated: true})
	// b and c are hidden; d belongs to the viewer.
	if res.HiddenCount != 2 {
		t.Fatalf("expected hidden count 2, got %d", res.HiddenCount)
	}
}

func TestBuild_GuestAuthorAndCapabilities(t *testing.T) {
	rows := []store.Comment{
		row("a", nil, 0, func(c *store.Comment) {
			c.UserID = nil
			c.Author = nil
		}),
	}

	res, _ := Build(rows, Viewer{})
	node := res.Comments[0]
	if node.Author == nil || !node.Author.IsGuest {
		t.Fatalf("expected guest author placeholder, got %+v", node.Author)
	}
	if node.CanReply {
		t.Fatal("expected can_reply false for signed-out viewer")
	}
	if node.CanEdit || node.CanModerate {
		t.Fatal("expected no edit/moderate capability for signed-out viewer")
	}

	admin, _ := Build(rows, Viewer{UserID: "adm", IsAdmin: true, IsAuthenticated: true})
	if !admin.Comments[0].CanModerate || !admin.Comments[0].CanReply {
		t.Fatal("expected admin to reply and moderate")
	}
}

func TestBuild_CycleBreaks(t *testing.T) {
	// Corrupt data: a and b are each other's parent, so neither is a root.
	rows := []store.Comment{
		row("a", ptr("b"), 0),
		row("b", ptr("a"), time.Minute),
		row("r", nil, 2*time.Minute),
	}

	res, err := Build(rows, Viewer{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ids := collectIDs(res.Comments)
	if len(ids) != 3 {
		t.Fatalf("expected every row placed once, got %v", ids)
	}
}

// The worked scenario: orphan promoted, deleted reply marked, one hidden row.
func TestBuild_Scenario(t *testing.T) {
	rows := []store.Comment{
		row("a", nil, 0, withUser("u1")),
		row("b", ptr("a"), time.Minute, withUser("u2"), withStatus(store.StatusDeleted)),
		row("c", ptr("zzz"), 2*time.Minute, withUser("u3")),
	}

	res, err := Build(rows, Viewer{UserID: "u9", IsAuthenticated: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Comments) != 2 || res.Comments[0].ID != "a" || res.Comments[1].ID != "c" {
		t.Fatalf("expected roots [a c], got %v", collectIDs(res.Comments))
	}
	a := res.Comments[0]
	if len(a.Replies) != 1 || a.Replies[0].ID != "b" {
		t.Fatalf("expected a.replies = [b], got %v", collectIDs(a.Replies))
	}
	if a.Replies[0].Body != DeletedBody {
		t.Fatalf("expected b redacted, got %q", a.Replies[0].Body)
	}
	if res.HiddenCount != 1 {
		t.Fatalf("expected hidden count 1, got %d", res.HiddenCount)
	}
}
