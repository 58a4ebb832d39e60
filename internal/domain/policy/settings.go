// Package policy holds the resolved plugin configuration (the policy store)
// and the pure access-gate evaluators. It has no storage or network side
// effects; persistence is behind ports.SettingsStore.
package policy

import (
	"sort"
	"strings"
)

// Setting keys. Values are stored as strings; booleans as "true"/"false",
// username lists as newline-delimited text.
const (
	SettingEnableTestMode = "enable_test_mode"

	SettingCASProductionHostAddress = "cas_production_host_address"
	SettingCASProductionContext     = "cas_production_context"
	SettingCASTestHostAddress       = "cas_test_host_address"
	SettingCASTestContext           = "cas_test_context"

	SettingEnableSingleSignOn         = "enable_single_sign_on"
	SettingSSOAddMyBamaButton         = "sso_add_mybama_button_to_login_form"
	SettingSSOHideWordPressLoginForm  = "sso_hide_wordpress_login_form"
	SettingSSOMatchUserData           = "sso_match_user_data"
	SettingSSOCreateMatchingProfile   = "sso_create_matching_profile"
	SettingSSOMatchingProfileUserRole = "sso_matching_profile_user_role"

	SettingMyBamaUsernameWhitelist = "mybama_username_whitelist"
	SettingMyBamaUsernameBlacklist = "mybama_username_blacklist"

	SettingWordPressLoginWhitelist = "wordpress_login_whitelist"
	SettingWordPressLoginBlacklist = "wordpress_login_blacklist"

	SettingEnablePostMyBamaAuthSetting   = "enable_post_mybama_authentication_setting"
	SettingPostMyBamaAuthPostTypes       = "post_mybama_authentication_setting_post_types"
	SettingSSOEnablePostWordPressSetting = "sso_enable_post_wordpress_authentication_setting"
	SettingSSOPostWordPressAuthPostTypes = "sso_post_wordpress_authentication_setting_post_types"
)

// Settings is the flat option-name to value mapping described by the policy
// store. An empty value is treated the same as an absent key.
type Settings map[string]string

// Defaults returns the settings every installation starts from.
func Defaults() Settings {
	return Settings{
		SettingEnableTestMode:                "false",
		SettingEnablePostMyBamaAuthSetting:   "false",
		SettingEnableSingleSignOn:            "false",
		SettingSSOAddMyBamaButton:            "true",
		SettingSSOHideWordPressLoginForm:     "false",
		SettingSSOMatchUserData:              "true",
		SettingSSOCreateMatchingProfile:      "true",
		SettingSSOEnablePostWordPressSetting: "false",
	}
}

// WithDefaults overlays s on top of the defaults and returns the merge.
// The receiver is not modified.
func (s Settings) WithDefaults() Settings {
	merged := Defaults()
	for k, v := range s {
		merged[k] = v
	}
	return merged
}

// Get returns the raw value for key, and false when the key is absent or empty.
func (s Settings) Get(key string) (string, bool) {
	v, ok := s[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Bool reports whether key holds an enabled boolean value.
func (s Settings) Bool(key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// AsList normalizes a list-valued setting: the raw value may be stored as
// newline-delimited text. Entries are trimmed and de-duplicated in order.
// Read-time normalization does not re-sort; Sanitize handles that before
// persisting.
func (s Settings) AsList(key string) []string {
	raw, ok := s.Get(key)
	if !ok {
		return nil
	}
	return normalizeList(raw, false)
}

// IsTestMode reports whether the test CAS server endpoint should be used.
func (s Settings) IsTestMode() bool { return s.Bool(SettingEnableTestMode) }

// IsSingleSignOn reports whether CAS identities are bridged into local sessions.
func (s Settings) IsSingleSignOn() bool { return s.Bool(SettingEnableSingleSignOn) }

// MatchUserData reports whether local profile fields are overwritten from CAS
// attributes on sign-in. Enabled by default.
func (s Settings) MatchUserData() bool { return s.Bool(SettingSSOMatchUserData) }

// CreateMatchingProfile reports whether a local account is auto-provisioned
// for an unknown CAS username. Enabled by default.
func (s Settings) CreateMatchingProfile() bool { return s.Bool(SettingSSOCreateMatchingProfile) }

// MatchingProfileRole returns the role assigned to auto-provisioned accounts.
func (s Settings) MatchingProfileRole() (string, bool) {
	return s.Get(SettingSSOMatchingProfileUserRole)
}

// ResolvedHost picks the test host when test mode is enabled and populated,
// falling back to the production host.
func (s Settings) ResolvedHost() (string, bool) {
	if s.IsTestMode() {
		if v, ok := s.Get(SettingCASTestHostAddress); ok {
			return v, true
		}
	}
	return s.Get(SettingCASProductionHostAddress)
}

// ResolvedContext picks the test context when test mode is enabled and
// populated, falling back to the production context.
func (s Settings) ResolvedContext() (string, bool) {
	if s.IsTestMode() {
		if v, ok := s.Get(SettingCASTestContext); ok {
			return v, true
		}
	}
	return s.Get(SettingCASProductionContext)
}

// Lists returns the (whitelist, blacklist) pair for the given axis. The
// myBama axis gates who may authenticate at all; the WordPress axis gates
// who may be bridged into a local session afterwards.
func (s Settings) Lists(axis Axis) (whitelist, blacklist []string) {
	switch axis {
	case AxisWordPress:
		return s.AsList(SettingWordPressLoginWhitelist), s.AsList(SettingWordPressLoginBlacklist)
	default:
		return s.AsList(SettingMyBamaUsernameWhitelist), s.AsList(SettingMyBamaUsernameBlacklist)
	}
}

// GatingEnabled reports whether per-post gating is switched on at all for the
// given axis, regardless of post type.
func (s Settings) GatingEnabled(axis Axis) bool {
	switch axis {
	case AxisWordPress:
		return s.Bool(SettingSSOEnablePostWordPressSetting)
	default:
		return s.Bool(SettingEnablePostMyBamaAuthSetting)
	}
}

// GatingAppliesTo reports whether the per-post authentication requirement is
// honored for the given post type on the given axis. When the axis toggle is
// off, requirement metadata is ignored entirely.
func (s Settings) GatingAppliesTo(axis Axis, postType string) bool {
	var enableKey, typesKey string
	switch axis {
	case AxisWordPress:
		enableKey, typesKey = SettingSSOEnablePostWordPressSetting, SettingSSOPostWordPressAuthPostTypes
	default:
		enableKey, typesKey = SettingEnablePostMyBamaAuthSetting, SettingPostMyBamaAuthPostTypes
	}
	if !s.Bool(enableKey) {
		return false
	}
	types := s.AsList(typesKey)
	if len(types) == 0 {
		return false
	}
	for _, t := range types {
		if t == postType {
			return true
		}
	}
	return false
}

// Sanitize normalizes the list-valued settings in place for persistence:
// entries are trimmed, de-duplicated, and sorted alphabetically.
func (s Settings) Sanitize() {
	for _, key := range []string{
		SettingMyBamaUsernameWhitelist,
		SettingMyBamaUsernameBlacklist,
		SettingWordPressLoginWhitelist,
		SettingWordPressLoginBlacklist,
		SettingPostMyBamaAuthPostTypes,
		SettingSSOPostWordPressAuthPostTypes,
	} {
		if raw, ok := s.Get(key); ok {
			s[key] = strings.Join(normalizeList(raw, true), "\n")
		}
	}
}

func normalizeList(raw string, sorted bool) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range strings.Split(raw, "\n") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	if sorted {
		sort.Strings(out)
	}
	return out
}
