package storefront

import "strings"

// AllowList decides which accounts may reach the admin back office. The
// membership is injected from configuration, never compiled in, so changing
// it is a config rollout rather than a redeploy.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList builds an allow list from configured emails. Comparison is
// case-insensitive and whitespace-tolerant.
func NewAllowList(emails []string) *AllowList {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return &AllowList{emails: set}
}

// IsAdmin reports whether the email belongs to the allow list.
func (a *AllowList) IsAdmin(email string) bool {
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Len returns the number of configured admin accounts.
func (a *AllowList) Len() int {
	return len(a.emails)
}
