// Package thread assembles flat comment rows into an ordered reply forest
// with moderation and anonymity redaction applied for one viewer.
package thread

import (
	"errors"
	"sort"

	"github.com/example/course-portal/internal/store"
)

// DeletedBody replaces the body of deleted comments in rendered threads.
const DeletedBody = "[deleted]"

// ErrInvalidInput is returned when Build receives a nil row set. Callers are
// expected to pass the (possibly empty) result of a comment list query.
var ErrInvalidInput = errors.New("thread: rows must not be nil")

// ReactionSummary is the aggregated view of one reaction type on a comment.
type ReactionSummary struct {
	Type          string `json:"type"`
	Count         int    `json:"count"`
	ViewerReacted bool   `json:"viewer_reacted"`
}

// Node is one rendered comment with its ordered replies.
type Node struct {
	ID           string               `json:"id"`
	Body         string               `json:"body"`
	Status       string               `json:"status"`
	CreatedAt    string               `json:"created_at"`
	UpdatedAt    string               `json:"updated_at"`
	Author       *store.AuthorSummary `json:"author"`
	AuthorHidden bool                 `json:"author_hidden"`
	IsAnonymous  bool                 `json:"is_anonymous"`
	IsAuthor     bool                 `json:"is_author"`
	Attachments  []store.Attachment   `json:"attachments"`
	Reactions    []ReactionSummary    `json:"reactions"`
	CanReply     bool                 `json:"can_reply"`
	CanEdit      bool                 `json:"can_edit"`
	CanModerate  bool                 `json:"can_moderate"`
	Replies      []*Node              `json:"replies"`
}

// Result is the rendered forest plus the number of comments whose real
// content the viewer cannot see.
type Result struct {
	Comments    []*Node `json:"comments"`
	HiddenCount int     `json:"hidden_count"`
}

// Build turns an unordered flat row set for one discussion target into an
// ordered, redacted reply forest. It is a pure function of its arguments:
// no I/O, no shared state, deterministic output.
//
// Rows whose parent is absent from the set are kept as roots rather than
// dropped; corrupt parent cycles are broken by promoting the first unreached
// row of the cycle to a root.
func Build(rows []store.Comment, viewer Viewer) (Result, error) {
	if rows == nil {
		return Result{}, ErrInvalidInput
	}

	index := make(map[string]*store.Comment, len(rows))
	for i := range rows {
		index[rows[i].ID] = &rows[i]
	}

	children := make(map[string][]string, len(rows))
	var rootIDs []string
	for i := range rows {
		row := &rows[i]
		if row.ParentID == nil {
			rootIDs = append(rootIDs, row.ID)
			continue
		}
		if _, ok := index[*row.ParentID]; ok {
			children[*row.ParentID] = append(children[*row.ParentID], row.ID)
		} else {
			// Dangling parent, usually a race with a partial fetch.
			rootIDs = append(rootIDs, row.ID)
		}
	}

	sortIDs(rootIDs, index)
	for _, ids := range children {
		sortIDs(ids, index)
	}

	visited := make(map[string]bool, len(rows))
	var roots []*Node
	for _, id := range rootIDs {
		if n := render(id, index, children, visited, viewer); n != nil {
			roots = append(roots, n)
		}
	}

	// Rows reachable only through a parent cycle never descend from a root.
	// Promote them instead of losing them.
	if len(visited) < len(rows) {
		var stranded []string
		for i := range rows {
			if !visited[rows[i].ID] {
				stranded = append(stranded, rows[i].ID)
			}
		}
		sortIDs(stranded, index)
		for _, id := range stranded {
			if n := render(id, index, children, visited, viewer); n != nil {
				roots = append(roots, n)
			}
		}
	}

	hidden := 0
	for i := range rows {
		if hiddenFrom(rows[i], viewer) {
			hidden++
		}
	}

	if roots == nil {
		roots = []*Node{}
	}
	return Result{Comments: roots, HiddenCount: hidden}, nil
}

// render converts one row and its subtree into Nodes. Returns nil when the
// id was already placed elsewhere in the forest.
func render(id string, index map[string]*store.Comment, children map[string][]string, visited map[string]bool, viewer Viewer) *Node {
	if visited[id] {
		return nil
	}
	visited[id] = true
	row := index[id]

	n := newNode(*row, viewer)
	for _, childID := range children[id] {
		if child := render(childID, index, children, visited, viewer); child != nil {
			n.Replies = append(n.Replies, child)
		}
	}
	return n
}

func newNode(row store.Comment, viewer Viewer) *Node {
	d := visibilityDecision(row, viewer)
	author := isAuthor(row, viewer)

	n := &Node{
		ID:          row.ID,
		Body:        row.Body,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:   row.UpdatedAt.UTC().Format(timeLayout),
		IsAnonymous: row.Visibility == store.VisibilityAnonymous,
		IsAuthor:    author,
		Attachments: row.Attachments,
		Reactions:   summarizeReactions(row.Reactions, viewer),
		CanEdit:     author && row.Status == store.StatusActive,
		CanModerate: viewer.IsAdmin,
		CanReply:    viewer.IsAuthenticated && row.Status != store.StatusDeleted,
		Replies:     []*Node{},
	}

	if n.Attachments == nil {
		n.Attachments = []store.Attachment{}
	}
	if !d.ShowBody {
		n.Body = DeletedBody
	}
	if !d.ShowAttachments {
		n.Attachments = []store.Attachment{}
	}
	if row.Status == store.StatusDeleted {
		// Deletion also erases engagement; soft-ban keeps the counts.
		n.Reactions = []ReactionSummary{}
	}
	if d.ShowAuthor {
		if row.Author != nil {
			a := *row.Author
			n.Author = &a
		} else if row.UserID == nil {
			n.Author = &store.AuthorSummary{Name: "Guest", IsGuest: true}
		}
	} else {
		n.AuthorHidden = true
	}
	return n
}

func summarizeReactions(reactions []store.Reaction, viewer Viewer) []ReactionSummary {
	if len(reactions) == 0 {
		return []ReactionSummary{}
	}
	byType := make(map[string]map[string]bool)
	mine := make(map[string]bool)
	for _, r := range reactions {
		if byType[r.Type] == nil {
			byType[r.Type] = make(map[string]bool)
		}
		byType[r.Type][r.UserID] = true
		if viewer.UserID != "" && r.UserID == viewer.UserID {
			mine[r.Type] = true
		}
	}

	out := make([]ReactionSummary, 0, len(byType))
	for typ, users := range byType {
		out = append(out, ReactionSummary{Type: typ, Count: len(users), ViewerReacted: mine[typ]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// sortIDs orders sibling ids by (createdAt, id) so output is stable across
// calls and storage backends.
func sortIDs(ids []string, index map[string]*store.Comment) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := index[ids[i]], index[ids[j]]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
