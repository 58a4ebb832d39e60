package ports

import (
	"context"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
)

// SettingsStore loads and persists the policy store content. The core treats
// the persistence mechanism as a black box.
type SettingsStore interface {
	Load(ctx context.Context) (policy.Settings, error)
	Save(ctx context.Context, s policy.Settings) error
}

// ResourceMetaStore reads per-post gating metadata. The metadata is written
// by the (out-of-scope) editor UI and only read at request time.
type ResourceMetaStore interface {
	Requirement(ctx context.Context, postID int64, axis policy.Axis) (policy.Requirement, error)
	SearchExclusion(ctx context.Context, postID int64, axis policy.Axis) (policy.SearchExclusion, error)
}

// SearchQuery carries a search term plus the per-axis visibility filters for
// the current requester. A Hide* flag is set when the requester fails that
// axis, so gated rows must be filtered per their exclusion flags.
type SearchQuery struct {
	Term          string
	HideMyBama    bool
	HideWordPress bool
	Limit         int
}

// PostStore reads published content.
type PostStore interface {
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)
	Search(ctx context.Context, q SearchQuery) ([]model.Post, error)
}
