package policy

import "strings"

// Axis is one of the two independent authentication requirement dimensions
// that content gating and search-visibility rules are evaluated against.
type Axis string

const (
	// AxisMyBama gates on the external CAS identity.
	AxisMyBama Axis = "mybama"
	// AxisWordPress gates on the local site session.
	AxisWordPress Axis = "wordpress"
)

// Axes lists both gating axes in evaluation order.
func Axes() []Axis { return []Axis{AxisMyBama, AxisWordPress} }

// Requirement is the per-post authentication requirement for one axis.
type Requirement string

const (
	RequirementNone    Requirement = ""
	RequirementPage    Requirement = "yes_for_page"
	RequirementContent Requirement = "yes_for_content"
)

// ParseRequirement maps raw metadata to a Requirement. Absent or malformed
// values impose no restriction.
func ParseRequirement(raw string) Requirement {
	switch Requirement(strings.TrimSpace(raw)) {
	case RequirementPage:
		return RequirementPage
	case RequirementContent:
		return RequirementContent
	}
	return RequirementNone
}

// Required reports whether the requirement restricts anything at all.
func (r Requirement) Required() bool { return r != RequirementNone }

// SearchExclusion is the per-post "exclude from search when ungated" flag for
// one axis. When the flag is absent and the post is gated, the safe default is
// to exclude the post from search listings.
type SearchExclusion string

const (
	ExclusionUnset SearchExclusion = ""
	ExclusionYes   SearchExclusion = "yes"
	ExclusionNo    SearchExclusion = "no"
)

// ParseSearchExclusion maps raw metadata to a SearchExclusion. Malformed
// values are treated as unset, which excludes gated posts from search.
func ParseSearchExclusion(raw string) SearchExclusion {
	switch v := strings.TrimSpace(raw); {
	case strings.HasPrefix(v, "no"):
		return ExclusionNo
	case strings.HasPrefix(v, "yes"):
		return ExclusionYes
	}
	return ExclusionUnset
}

// Post meta keys holding the gating state, per axis.
const (
	MetaRequiresMyBamaAuth          = "_requires_mybama_authentication"
	MetaRequiresMyBamaAuthSearch    = "_requires_mybama_authentication_wp_search_results"
	MetaRequiresWordPressAuth       = "_requires_wordpress_authentication"
	MetaRequiresWordPressAuthSearch = "_requires_wordpress_authentication_wp_search_results"
)

// RequirementMetaKey returns the post meta key carrying the axis requirement.
func RequirementMetaKey(axis Axis) string {
	if axis == AxisWordPress {
		return MetaRequiresWordPressAuth
	}
	return MetaRequiresMyBamaAuth
}

// SearchExclusionMetaKey returns the post meta key carrying the axis
// search-exclusion flag.
func SearchExclusionMetaKey(axis Axis) string {
	if axis == AxisWordPress {
		return MetaRequiresWordPressAuthSearch
	}
	return MetaRequiresMyBamaAuthSearch
}

// SubstituteMessage is the inline text rendered in place of gated content.
func SubstituteMessage(axis Axis) string {
	if axis == AxisWordPress {
		return "This content requires WordPress authentication."
	}
	return "This content requires myBama authentication."
}
