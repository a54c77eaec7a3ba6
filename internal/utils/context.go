package utils

import "context"

type syncContext struct {
	AccountID string
}

var syncContextKey = "SYNC_CONTEXT"

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, syncContextKey, &syncContext{AccountID: accountID})
}

func GetAccountIDFromContext(ctx context.Context) string {
	sc, ok := ctx.Value(syncContextKey).(*syncContext)
	if !ok || sc == nil {
		return ""
	}
	return sc.AccountID
}
