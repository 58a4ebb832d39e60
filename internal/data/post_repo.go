package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/data/pgxutil"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
)

const defaultSearchLimit = 50

// PostRepo provides database operations for posts and their gating metadata.
// Post meta is a key/value table keyed by post ID, matching the shape the
// editor UI writes.
type PostRepo struct {
	DB *sql.DB
}

// NewPostRepo creates a new PostRepo.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db}
}

// FindBySlug returns the post with the given slug.
func (r *PostRepo) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	if slug == "" {
		return nil, apperrors.Validation("slug is required")
	}

	var post model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT id, slug, title, content, post_type, created_at
			FROM posts WHERE slug = $1`, slug,
		).Scan(&post.ID, &post.Slug, &post.Title, &post.Content, &post.PostType, &post.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("post %q not found", slug)
		}
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return &post, nil
}

// Requirement reads the axis authentication requirement for a post. Absent or
// malformed metadata imposes no restriction.
func (r *PostRepo) Requirement(ctx context.Context, postID int64, axis policy.Axis) (policy.Requirement, error) {
	raw, err := r.metaValue(ctx, postID, policy.RequirementMetaKey(axis))
	if err != nil {
		return policy.RequirementNone, err
	}
	return policy.ParseRequirement(raw), nil
}

// SearchExclusion reads the axis search-exclusion flag for a post.
func (r *PostRepo) SearchExclusion(ctx context.Context, postID int64, axis policy.Axis) (policy.SearchExclusion, error) {
	raw, err := r.metaValue(ctx, postID, policy.SearchExclusionMetaKey(axis))
	if err != nil {
		return policy.ExclusionUnset, err
	}
	return policy.ParseSearchExclusion(raw), nil
}

func (r *PostRepo) metaValue(ctx context.Context, postID int64, key string) (string, error) {
	var value string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT meta_value FROM post_meta WHERE post_id = $1 AND meta_key = $2`,
			postID, key,
		).Scan(&value)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read post meta %s: %w", key, err)
	}
	return value, nil
}

// Search returns posts matching the term, filtered per the requester's
// per-axis visibility. For each axis the requester fails, a gated post stays
// visible only when its search-exclusion flag is explicitly "no"; an unset
// flag hides the row.
func (r *PostRepo) Search(ctx context.Context, q ports.SearchQuery) ([]model.Post, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := `
		SELECT p.id, p.slug, p.title, p.content, p.post_type, p.created_at
		FROM posts p`
	where := ` WHERE (p.title ILIKE $1 OR p.content ILIKE $1)`

	if q.HideMyBama {
		query += axisSearchJoin("rm", policy.MetaRequiresMyBamaAuth) +
			axisSearchJoin("rms", policy.MetaRequiresMyBamaAuthSearch)
		where += axisSearchFilter("rm", "rms")
	}
	if q.HideWordPress {
		query += axisSearchJoin("rw", policy.MetaRequiresWordPressAuth) +
			axisSearchJoin("rws", policy.MetaRequiresWordPressAuthSearch)
		where += axisSearchFilter("rw", "rws")
	}

	query += where + ` GROUP BY p.id ORDER BY p.created_at DESC LIMIT $2`

	var posts []model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, "%"+q.Term+"%", limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var post model.Post
			if scanErr := rows.Scan(&post.ID, &post.Slug, &post.Title, &post.Content, &post.PostType, &post.CreatedAt); scanErr != nil {
				return scanErr
			}
			posts = append(posts, post)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

func axisSearchJoin(alias, metaKey string) string {
	return fmt.Sprintf(
		` LEFT JOIN post_meta %[1]s ON %[1]s.post_id = p.id AND %[1]s.meta_key = '%[2]s'`,
		alias, metaKey)
}

// axisSearchFilter hides gated posts unless their search flag explicitly
// starts with "no". A gated post with no flag is hidden (safe default).
func axisSearchFilter(reqAlias, searchAlias string) string {
	return fmt.Sprintf(` AND (CASE
		WHEN %[1]s.meta_value IS NOT NULL AND %[1]s.meta_value LIKE 'yes%%'
		THEN %[2]s.meta_value IS NOT NULL AND %[2]s.meta_value LIKE 'no%%'
		ELSE TRUE END)`, reqAlias, searchAlias)
}
