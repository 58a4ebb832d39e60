// Package policymock contains hand-written test doubles for the policy and
// content ports.
package policymock

import (
	"context"
	"strings"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.ResourceMetaStore = (*MemoryMetaStore)(nil)
	_ ports.PostStore         = (*MemoryPostStore)(nil)
)

// MemoryMetaStore serves per-post gating metadata from maps keyed by
// post ID and axis.
type MemoryMetaStore struct {
	Requirements map[int64]map[policy.Axis]policy.Requirement
	Exclusions   map[int64]map[policy.Axis]policy.SearchExclusion
	Err          error
}

// NewMemoryMetaStore creates an empty metadata store.
func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{
		Requirements: make(map[int64]map[policy.Axis]policy.Requirement),
		Exclusions:   make(map[int64]map[policy.Axis]policy.SearchExclusion),
	}
}

// SetRequirement records a requirement for a post on one axis.
func (m *MemoryMetaStore) SetRequirement(postID int64, axis policy.Axis, req policy.Requirement) {
	if m.Requirements[postID] == nil {
		m.Requirements[postID] = make(map[policy.Axis]policy.Requirement)
	}
	m.Requirements[postID][axis] = req
}

// SetExclusion records a search-exclusion flag for a post on one axis.
func (m *MemoryMetaStore) SetExclusion(postID int64, axis policy.Axis, excl policy.SearchExclusion) {
	if m.Exclusions[postID] == nil {
		m.Exclusions[postID] = make(map[policy.Axis]policy.SearchExclusion)
	}
	m.Exclusions[postID][axis] = excl
}

func (m *MemoryMetaStore) Requirement(_ context.Context, postID int64, axis policy.Axis) (policy.Requirement, error) {
	if m.Err != nil {
		return policy.RequirementNone, m.Err
	}
	return m.Requirements[postID][axis], nil
}

func (m *MemoryMetaStore) SearchExclusion(_ context.Context, postID int64, axis policy.Axis) (policy.SearchExclusion, error) {
	if m.Err != nil {
		return policy.ExclusionUnset, m.Err
	}
	return m.Exclusions[postID][axis], nil
}

// MemoryPostStore serves posts from a slice and filters search results the
// way the SQL store does, using a companion MemoryMetaStore.
type MemoryPostStore struct {
	Posts []model.Post
	Meta  *MemoryMetaStore
	Err   error
}

// NewMemoryPostStore creates a post store backed by the given metadata store.
func NewMemoryPostStore(meta *MemoryMetaStore) *MemoryPostStore {
	return &MemoryPostStore{Meta: meta}
}

func (m *MemoryPostStore) FindBySlug(_ context.Context, slug string) (*model.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Posts {
		if m.Posts[i].Slug == slug {
			copied := m.Posts[i]
			return &copied, nil
		}
	}
	return nil, apperrors.NotFoundf("post %q not found", slug)
}

func (m *MemoryPostStore) Search(ctx context.Context, q ports.SearchQuery) ([]model.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.Post
	for _, p := range m.Posts {
		if !strings.Contains(strings.ToLower(p.Title+" "+p.Content), strings.ToLower(q.Term)) {
			continue
		}
		if q.HideMyBama && !m.visible(ctx, p.ID, policy.AxisMyBama) {
			continue
		}
		if q.HideWordPress && !m.visible(ctx, p.ID, policy.AxisWordPress) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryPostStore) visible(ctx context.Context, postID int64, axis policy.Axis) bool {
	req, _ := m.Meta.Requirement(ctx, postID, axis)
	excl, _ := m.Meta.SearchExclusion(ctx, postID, axis)
	return policy.SearchRowVisible(req, excl, false)
}
