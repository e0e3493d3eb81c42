package config

import (
	"context"
	"strings"

	"github.com/brightpath/adjustments_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const centerColumn = "centre"

// CenterGuardPlugin narrows reads on any model with a centre column to the
// center carried by the request context, compared case-insensitively. An
// explicit centre filter in the query can only narrow further.
//
// NOTE:
//   - Writes are not touched. Ownership of a write is checked in models
//     against the linked enrollment, which a row filter can't express.
//   - Raw SQL is not scoped.
type CenterGuardPlugin struct{}

func NewCenterGuardPlugin() *CenterGuardPlugin { return &CenterGuardPlugin{} }

func (p *CenterGuardPlugin) Name() string { return "center_guard" }

func (p *CenterGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("center_guard:query", centerGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("center_guard:row", centerGuardCallback); err != nil {
		return err
	}
	return nil
}

func centerGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if shouldBypassCenterScope(ctx) {
		return
	}
	center, scoped := centerScopeFromContext(ctx)
	if !scoped {
		return
	}

	if db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.LookUpField(centerColumn) == nil {
		return
	}

	// ANDed with whatever the query already filters on, centre included
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{centerEquals(clause.CurrentTable, center)},
	})
}

// centerEquals builds LOWER(TRIM(<table>.centre)) = <center>, center already normalized.
func centerEquals(table string, center string) clause.Expression {
	return clause.Expr{
		SQL:  "LOWER(TRIM(?)) = ?",
		Vars: []interface{}{clause.Column{Table: table, Name: centerColumn}, center},
	}
}

// ScopeToCenter returns ctx narrowed to center. A blank center still scopes,
// matching only rows whose centre is blank.
func ScopeToCenter(ctx context.Context, center string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyCenterScope, strings.ToLower(strings.TrimSpace(center)))
}

func centerScopeFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyCenterScope)
}

func shouldBypassCenterScope(ctx context.Context) bool {
	v, ok := appctx.GetBool(ctx, appctx.ContextKeySkipCenterScope)
	return ok && v
}
