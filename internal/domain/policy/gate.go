package policy

// The access gate: pure, side-effect-free evaluators shared by the page,
// content, and search code paths. Callers supply the requirement metadata and
// current authentication state; nothing here touches storage or the network.

// PageDecision is the outcome of evaluating a full-page requirement.
// ForceAuthenticate means the caller must trigger authentication (CAS
// redirect for the myBama axis, login redirect for the WordPress axis)
// before rendering.
type PageDecision struct {
	Allow             bool
	ForceAuthenticate bool
}

// EvaluatePage decides whether the page may render for the given requirement.
// A content-only requirement allows the page; gating is deferred to
// EvaluateContent.
func EvaluatePage(req Requirement, authenticated bool) PageDecision {
	if req == RequirementPage && !authenticated {
		return PageDecision{ForceAuthenticate: true}
	}
	return PageDecision{Allow: true}
}

// EvaluateContent returns the original content when the requirement permits
// it, and the substitute message otherwise. It is idempotent and pure; it is
// invoked on every render of the content body.
func EvaluateContent(req Requirement, authenticated bool, content, substitute string) string {
	if req != RequirementContent {
		return content
	}
	if authenticated {
		return content
	}
	return substitute
}

// SearchRowVisible reports whether a post may appear in search listings for
// one axis. Gated posts are hidden from requesters failing the axis unless
// the exclusion flag is explicitly "no"; an unset flag defaults to excluded.
// Requesters already satisfying the axis always see the row.
func SearchRowVisible(req Requirement, excl SearchExclusion, authenticated bool) bool {
	if authenticated {
		return true
	}
	if !req.Required() {
		return true
	}
	return excl == ExclusionNo
}

// Allowed evaluates a username against a whitelist/blacklist pair. The
// blacklist always takes precedence; a populated whitelist admits only its
// members; empty lists impose no restriction.
func Allowed(username string, whitelist, blacklist []string) bool {
	for _, entry := range blacklist {
		if entry == username {
			return false
		}
	}
	if len(whitelist) == 0 {
		return true
	}
	for _, entry := range whitelist {
		if entry == username {
			return true
		}
	}
	return false
}
