package models

import (
	"context"
	"strings"

	"github.com/brightpath/adjustments_backend/appctx"
	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	Center   string   `json:"center"`
}

func NewPrincipal(username string, role string, center string) Principal {
	return Principal{
		Username: strings.TrimSpace(username),
		Role:     ParseUserRole(role),
		Center:   strings.TrimSpace(center),
	}
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) Authenticated() bool {
	return p.Username != ""
}

// CanAccessCenter reports whether p may read or write data of center.
func (p Principal) CanAccessCenter(center string) bool {
	return p.IsAdmin() || utils.SameCenter(p.Center, center)
}

// ReadScope resolves the center a read is narrowed to and whether it is
// narrowed at all. Admins pick one (blank or "ALL" means every center);
// everyone else is pinned to their own.
func (p Principal) ReadScope(requested string) (string, bool) {
	if !p.IsAdmin() {
		return p.Center, true
	}
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, AllCenters) {
		return "", false
	}
	return requested, true
}

func (p Principal) scopedContext(ctx context.Context, requested string) (context.Context, string) {
	center, scoped := p.ReadScope(requested)
	if !scoped {
		return ctx, ""
	}
	return config.ScopeToCenter(ctx, center), center
}

func requireSession(p Principal) error {
	if !p.Authenticated() {
		return utils.ErrUnauthenticated
	}
	return nil
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(appctx.ContextKeyPrincipal).(Principal)
	if !ok || !p.Authenticated() {
		return Principal{}, false
	}
	return p, true
}
