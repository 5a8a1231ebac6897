package thread

import "github.com/example/course-portal/internal/store"

// Viewer is the resolved identity the tree is rendered for. A zero Viewer is
// a signed-out visitor.
type Viewer struct {
	UserID          string
	IsAdmin         bool
	IsAuthenticated bool
}

// decision is the per-comment redaction outcome. Reactions are handled
// separately: deletion empties them, soft-ban keeps the counts.
type decision struct {
	ShowBody        bool
	ShowAuthor      bool
	ShowAttachments bool
}

func isAuthor(c store.Comment, v Viewer) bool {
	return c.UserID != nil && v.UserID != "" && *c.UserID == v.UserID
}

// visibilityDecision applies the moderation and anonymity rules for one
// comment relative to one viewer.
//
// Deleted comments hide body and attachments for everyone, admins included.
// Soft-banned comments hide body and attachments from everyone except the
// author and admins. Anonymous comments hide only the author identity, again
// except from the author and admins.
func visibilityDecision(c store.Comment, v Viewer) decision {
	privileged := v.IsAdmin || isAuthor(c, v)

	d := decision{ShowBody: true, ShowAuthor: true, ShowAttachments: true}

	switch c.Status {
	case store.StatusDeleted:
		d.ShowBody = false
		d.ShowAttachments = false
	case store.StatusSoftbanned:
		if !privileged {
			d.ShowBody = false
			d.ShowAttachments = false
		}
	}

	if c.Visibility == store.VisibilityAnonymous && !privileged {
		d.ShowAuthor = false
	}
	return d
}

// hiddenFrom reports whether the viewer cannot see this comment's real
// content. Feeds the thread-level hidden count.
func hiddenFrom(c store.Comment, v Viewer) bool {
	return c.Status != store.StatusActive && !v.IsAdmin && !isAuthor(c, v)
}
