package models

import "context"

type principalContextKey struct{}

// Principal is the verified identity behind an admin bearer token.
type Principal struct {
	AdminId     string
	Email       string
	Role        string
	Permissions AdminPermissions
}

// IsSuperAdmin reports whether the principal holds the super-admin role.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == AdminRoleSuperAdmin
}

// WithPrincipal attaches a verified principal to a context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// GetPrincipal retrieves the principal from context, or nil if absent.
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
