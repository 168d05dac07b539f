package identity

import "strings"

// AllowList is the configured set of known administrator emails. It exists
// purely as a diagnostic cross-check against the store role; membership never
// grants privilege and absence never revokes it.
type AllowList []string

// NewAllowList normalizes the configured emails for case-insensitive lookups.
func NewAllowList(emails []string) AllowList {
	out := make(AllowList, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether the email is on the allow-list.
func (a AllowList) Contains(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	for _, e := range a {
		if e == email {
			return true
		}
	}
	return false
}
