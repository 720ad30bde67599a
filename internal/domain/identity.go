package domain

// Role is the access level of an authenticated caller.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// CanEdit reports whether the role may mutate the pricing catalog.
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleEditor
}

// Identity is the authenticated caller, either an API key holder or an OIDC user.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Role    Role   `json:"role"`
	Source  string `json:"source"`
}

// Identity sources.
const (
	IdentitySourceAPIKey    = "api_key"
	IdentitySourceBootstrap = "bootstrap"
	IdentitySourceOIDC      = "oidc"
	IdentitySourceCLI       = "cli"
	IdentitySourceSystem    = "system"
)
