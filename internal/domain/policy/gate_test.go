package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatePage(t *testing.T) {
	tests := []struct {
		name          string
		req           Requirement
		authenticated bool
		allow         bool
		force         bool
	}{
		{name: "no requirement unauthenticated", req: RequirementNone, authenticated: false, allow: true},
		{name: "no requirement authenticated", req: RequirementNone, authenticated: true, allow: true},
		{name: "page requirement unauthenticated forces auth", req: RequirementPage, authenticated: false, force: true},
		{name: "page requirement authenticated", req: RequirementPage, authenticated: true, allow: true},
		{name: "content requirement never blocks the page", req: RequirementContent, authenticated: false, allow: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluatePage(tt.req, tt.authenticated)
			assert.Equal(t, tt.allow, d.Allow)
			assert.Equal(t, tt.force, d.ForceAuthenticate)
		})
	}
}

func TestEvaluateContent(t *testing.T) {
	const content = "the secret syllabus"
	const substitute = "This content requires myBama authentication."

	assert.Equal(t, content, EvaluateContent(RequirementNone, false, content, substitute))
	assert.Equal(t, content, EvaluateContent(RequirementPage, false, content, substitute))
	assert.Equal(t, substitute, EvaluateContent(RequirementContent, false, content, substitute))
	assert.Equal(t, content, EvaluateContent(RequirementContent, true, content, substitute))
}

func TestEvaluateContent_Idempotent(t *testing.T) {
	const substitute = "This content requires WordPress authentication."
	first := EvaluateContent(RequirementContent, false, "body", substitute)
	second := EvaluateContent(RequirementContent, false, first, substitute)
	assert.Equal(t, first, second)
}

func TestSearchRowVisible(t *testing.T) {
	tests := []struct {
		name          string
		req           Requirement
		excl          SearchExclusion
		authenticated bool
		visible       bool
	}{
		{name: "authenticated always sees the row", req: RequirementPage, excl: ExclusionYes, authenticated: true, visible: true},
		{name: "ungated row always visible", req: RequirementNone, excl: ExclusionUnset, visible: true},
		{name: "gated row with unset flag defaults to hidden", req: RequirementPage, excl: ExclusionUnset, visible: false},
		{name: "gated row explicitly excluded", req: RequirementContent, excl: ExclusionYes, visible: false},
		{name: "gated row explicitly included", req: RequirementPage, excl: ExclusionNo, visible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, SearchRowVisible(tt.req, tt.excl, tt.authenticated))
		})
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		whitelist []string
		blacklist []string
		allowed   bool
	}{
		{name: "empty lists allow everyone", username: "jdoe", allowed: true},
		{name: "whitelist member", username: "jdoe", whitelist: []string{"jdoe"}, allowed: true},
		{name: "not on whitelist", username: "other", whitelist: []string{"jdoe"}, allowed: false},
		{name: "blacklisted", username: "jdoe", blacklist: []string{"jdoe"}, allowed: false},
		{name: "blacklist beats whitelist", username: "jdoe", whitelist: []string{"jdoe"}, blacklist: []string{"jdoe"}, allowed: false},
		{name: "blacklist alone does not restrict others", username: "other", blacklist: []string{"jdoe"}, allowed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, Allowed(tt.username, tt.whitelist, tt.blacklist))
		})
	}
}
