package service

import (
	"context"
	"log/slog"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
)

// AccessState captures which authentication axes the current requester
// satisfies.
type AccessState struct {
	MyBama    bool
	WordPress bool
}

// For returns the state for the given axis.
func (a AccessState) For(axis policy.Axis) bool {
	if axis == policy.AxisWordPress {
		return a.WordPress
	}
	return a.MyBama
}

// GateServiceOptions groups dependencies for GateService.
type GateServiceOptions struct {
	Meta   ports.ResourceMetaStore
	Posts  ports.PostStore
	Logger *slog.Logger
}

// GateService applies per-post access gating across both authentication axes.
// Metadata read failures degrade to "no requirement": a broken meta store
// must never lock visitors out of ungated content.
type GateService struct {
	meta   ports.ResourceMetaStore
	posts  ports.PostStore
	logger *slog.Logger
}

// NewGateService constructs a new GateService.
func NewGateService(opts GateServiceOptions) *GateService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GateService{meta: opts.Meta, posts: opts.Posts, logger: logger}
}

// requirement loads the effective requirement for one axis, honoring the
// axis's gating toggle and post-type scoping.
func (g *GateService) requirement(ctx context.Context, post *model.Post, axis policy.Axis, settings policy.Settings) policy.Requirement {
	if !settings.GatingAppliesTo(axis, post.PostType) {
		return policy.RequirementNone
	}
	req, err := g.meta.Requirement(ctx, post.ID, axis)
	if err != nil {
		g.logger.Warn("requirement lookup failed",
			slog.Int64("post_id", post.ID),
			slog.String("axis", string(axis)),
			slog.String("error", err.Error()))
		return policy.RequirementNone
	}
	return req
}

// Page evaluates the full-page requirement for both axes. When authentication
// must be forced, the returned axis tells the caller which flow to start: the
// external redirect for the myBama axis, the local login form for the
// WordPress axis. The myBama axis is checked first.
func (g *GateService) Page(ctx context.Context, post *model.Post, state AccessState, settings policy.Settings) (policy.PageDecision, policy.Axis) {
	for _, axis := range policy.Axes() {
		req := g.requirement(ctx, post, axis, settings)
		decision := policy.EvaluatePage(req, state.For(axis))
		if decision.ForceAuthenticate {
			return decision, axis
		}
	}
	return policy.PageDecision{Allow: true}, ""
}

// Content returns the post body with content-level gating applied for both
// axes. A failed axis substitutes its message for the body; the result is
// stable across repeated renders.
func (g *GateService) Content(ctx context.Context, post *model.Post, state AccessState, settings policy.Settings) string {
	content := post.Content
	for _, axis := range policy.Axes() {
		req := g.requirement(ctx, post, axis, settings)
		content = policy.EvaluateContent(req, state.For(axis), content, policy.SubstituteMessage(axis))
	}
	return content
}

// Search runs a content search with gated rows hidden per the requester's
// access state. An axis only filters when its gating toggle is enabled and
// the requester fails it.
func (g *GateService) Search(ctx context.Context, term string, state AccessState, settings policy.Settings) ([]model.Post, error) {
	q := ports.SearchQuery{
		Term:          term,
		HideMyBama:    settings.GatingEnabled(policy.AxisMyBama) && !state.MyBama,
		HideWordPress: settings.GatingEnabled(policy.AxisWordPress) && !state.WordPress,
	}
	return g.posts.Search(ctx, q)
}
