package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyPrincipal     = ContextKey("Principal")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeyCenterScope holds the lower-cased center every read on a
	// centre-bearing table is narrowed to. Missing means unscoped.
	ContextKeyCenterScope = ContextKey("CenterScope")

	// ContextKeySkipCenterScope forces center scoping off for the request.
	// Internal ops only (seeding, startup import).
	ContextKeySkipCenterScope = ContextKey("SkipCenterScope")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	v, ok := ctx.Value(key).(bool)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
