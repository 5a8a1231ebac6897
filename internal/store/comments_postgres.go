package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

const commentColumns = `c.id, c.target_type, c.target_id, c.user_id, c.parent_id, c.root_id,
       c.body, c.status, c.visibility, c.created_at, c.updated_at,
       u.id, u.name, u.image, u.is_admin, u.verified`

func (s *PostgresCommentStore) Create(ctx context.Context, p CreateCommentParams) (Comment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Comment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rootID *string
	if p.ParentID != nil {
		var parentTargetType, parentTargetID string
		var parentRoot *string
		err := tx.QueryRow(ctx,
			`SELECT target_type, target_id, root_id FROM comments WHERE id = $1`,
			*p.ParentID).Scan(&parentTargetType, &parentTargetID, &parentRoot)
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		if err != nil {
			return Comment{}, err
		}
		if parentTargetType != p.TargetType || parentTargetID != p.TargetID {
			return Comment{}, ErrParentMismatch
		}
		if parentRoot != nil {
			rootID = parentRoot
		} else {
			rootID = p.ParentID
		}
	}

	var id string
	err = tx.QueryRow(ctx,
		`INSERT INTO comments (target_type, target_id, user_id, parent_id, root_id, body, status, visibility)
		 VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)
		 RETURNING id`,
		p.TargetType, p.TargetID, p.UserID, p.ParentID, rootID, p.Body, p.Visibility).Scan(&id)
	if err != nil {
		return Comment{}, err
	}

	// A root comment is its own thread root.
	if rootID == nil {
		if _, err := tx.Exec(ctx, `UPDATE comments SET root_id = id WHERE id = $1`, id); err != nil {
			return Comment{}, err
		}
	}

	if len(p.AttachmentIDs) > 0 {
		var owned int
		err := tx.QueryRow(ctx,
			`SELECT count(*) FROM uploads
			 WHERE id = ANY($1) AND user_id = $2 AND completed_at IS NOT NULL`,
			p.AttachmentIDs, p.UserID).Scan(&owned)
		if err != nil {
			return Comment{}, err
		}
		if owned != len(p.AttachmentIDs) {
			return Comment{}, ErrInvalidAttachment
		}
		for _, uploadID := range p.AttachmentIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO comment_attachments (comment_id, upload_id)
				 VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, uploadID); err != nil {
				return Comment{}, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Comment{}, err
	}
	return s.GetByID(ctx, id)
}

func (s *PostgresCommentStore) ListByTarget(ctx context.Context, targetType, targetID string) ([]Comment, error) {
	q := fmt.Sprintf(`SELECT %s FROM comments c
	      LEFT JOIN users u ON u.id = c.user_id
	      WHERE c.target_type = $1 AND c.target_id = $2`, commentColumns)
	rows, err := s.pool.Query(ctx, q, targetType, targetID)
	if err != nil {
		return nil, err
	}
	comments, err := scanCommentRows(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachJoined(ctx, comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}

func (s *PostgresCommentStore) GetByID(ctx context.Context, commentID string) (Comment, error) {
	q := fmt.Sprintf(`SELECT %s FROM comments c
	      LEFT JOIN users u ON u.id = c.user_id
	      WHERE c.id = $1`, commentColumns)
	rows, err := s.pool.Query(ctx, q, commentID)
	if err != nil {
		return Comment{}, err
	}
	comments, err := scanCommentRows(rows)
	if err != nil {
		return Comment{}, err
	}
	if len(comments) == 0 {
		return Comment{}, ErrNotFound
	}
	if err := s.attachJoined(ctx, comments); err != nil {
		return Comment{}, err
	}
	return comments[0], nil
}

func (s *PostgresCommentStore) UpdateBody(ctx context.Context, commentID, userID, body string) error {
	const q = `UPDATE comments SET body = $1, updated_at = now()
	           WHERE id = $2 AND user_id = $3 AND status = 'active'`
	tag, err := s.pool.Exec(ctx, q, body, commentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

func (s *PostgresCommentStore) SoftDelete(ctx context.Context, commentID, userID string) error {
	const q = `UPDATE comments SET status = 'deleted', updated_at = now()
	           WHERE id = $1 AND user_id = $2 AND status <> 'deleted'`
	tag, err := s.pool.Exec(ctx, q, commentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

func (s *PostgresCommentStore) SetStatus(ctx context.Context, commentID, status string) error {
	const q = `UPDATE comments SET status = $1, updated_at = now() WHERE id = $2`
	tag, err := s.pool.Exec(ctx, q, status, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresCommentStore) AddReaction(ctx context.Context, commentID, userID, reactionType string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO comment_reactions (comment_id, user_id, type)
		 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		commentID, userID, reactionType)
	return err
}

func (s *PostgresCommentStore) RemoveReaction(ctx context.Context, commentID, userID, reactionType string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM comment_reactions WHERE comment_id = $1 AND user_id = $2 AND type = $3`,
		commentID, userID, reactionType)
	return err
}

func (s *PostgresCommentStore) ListByStatus(ctx context.Context, status string, limit int) ([]Comment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := fmt.Sprintf(`SELECT %s FROM comments c
	      LEFT JOIN users u ON u.id = c.user_id
	      WHERE c.status = $1
	      ORDER BY c.updated_at DESC
	      LIMIT $2`, commentColumns)
	rows, err := s.pool.Query(ctx, q, status, limit)
	if err != nil {
		return nil, err
	}
	comments, err := scanCommentRows(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachJoined(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func scanCommentRows(rows pgx.Rows) ([]Comment, error) {
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		var authorID, authorName, authorImage *string
		var authorAdmin, authorVerified *bool
		if err := rows.Scan(&c.ID, &c.TargetType, &c.TargetID, &c.UserID, &c.ParentID, &c.RootID,
			&c.Body, &c.Status, &c.Visibility, &c.CreatedAt, &c.UpdatedAt,
			&authorID, &authorName, &authorImage, &authorAdmin, &authorVerified); err != nil {
			return nil, err
		}
		if authorID != nil {
			c.Author = &AuthorSummary{
				ID:       *authorID,
				Name:     deref(authorName),
				Image:    deref(authorImage),
				IsAdmin:  authorAdmin != nil && *authorAdmin,
				Verified: authorVerified != nil && *authorVerified,
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// attachJoined fills attachments and reactions for the given rows in two
// bulk queries keyed by comment id.
func (s *PostgresCommentStore) attachJoined(ctx context.Context, comments []Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]string, len(comments))
	index := make(map[string]*Comment, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
		index[comments[i].ID] = &comments[i]
	}

	aRows, err := s.pool.Query(ctx,
		`SELECT a.comment_id, a.id, a.upload_id, up.filename, up.content_type, up.size
		 FROM comment_attachments a
		 JOIN uploads up ON up.id = a.upload_id
		 WHERE a.comment_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for aRows.Next() {
		var commentID string
		var a Attachment
		if err := aRows.Scan(&commentID, &a.ID, &a.UploadID, &a.Filename, &a.ContentType, &a.Size); err != nil {
			aRows.Close()
			return err
		}
		if c, ok := index[commentID]; ok {
			c.Attachments = append(c.Attachments, a)
		}
	}
	aRows.Close()
	if err := aRows.Err(); err != nil {
		return err
	}

	rRows, err := s.pool.Query(ctx,
		`SELECT comment_id, type, user_id FROM comment_reactions WHERE comment_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for rRows.Next() {
		var commentID string
		var r Reaction
		if err := rRows.Scan(&commentID, &r.Type, &r.UserID); err != nil {
			rRows.Close()
			return err
		}
		if c, ok := index[commentID]; ok {
			c.Reactions = append(c.Reactions, r)
		}
	}
	rRows.Close()
	return rRows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
