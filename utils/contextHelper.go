package utils

import (
	"context"

	"github.com/brightpath/adjustments_backend/appctx"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId

	ContextKeySkipCenterScope = appctx.ContextKeySkipCenterScope
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetSkipCenterScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipCenterScope, skip)
}
