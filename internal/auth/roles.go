package auth

import (
	"strings"

	"github.com/bcnelson/pricing-catalog/internal/domain"
)

// RolePolicy maps OIDC users to catalog roles. Users that match nothing get
// DefaultRole, or viewer when it is unset.
type RolePolicy struct {
	AdminEmails   []string
	EditorEmails  []string
	EditorDomains []string
	DefaultRole   domain.Role
}

// RoleFor returns the role granted to email.
func (p RolePolicy) RoleFor(email string) domain.Role {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if containsFold(p.AdminEmails, email) {
			return domain.RoleAdmin
		}
		if containsFold(p.EditorEmails, email) {
			return domain.RoleEditor
		}
		if d, ok := emailDomain(email); ok && containsFold(p.EditorDomains, d) {
			return domain.RoleEditor
		}
	}
	if p.DefaultRole.Valid() {
		return p.DefaultRole
	}
	return domain.RoleViewer
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
