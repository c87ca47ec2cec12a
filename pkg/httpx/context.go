package httpx

import "context"

type ctxKey string

const (
	// CtxKeyAdminID carries the authenticated admin's ID through the request context.
	CtxKeyAdminID ctxKey = "admin_id"
)

// AdminIDFromContext returns the authenticated admin ID, or "" if the
// request was not authenticated.
func AdminIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAdminID).(string); ok {
		return v
	}
	return ""
}

func contextWithAdminID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxKeyAdminID, id)
}
