// Package userctx carries the authenticated subject (JWT "sub") through a
// request context.
package userctx

import "context"

type subjectKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(subjectKey{}).(string)
	return userID, ok && userID != ""
}

// UserIDOr returns the subject or fallback for anonymous requests.
func UserIDOr(ctx context.Context, fallback string) string {
	if id, ok := GetUserID(ctx); ok {
		return id
	}
	return fallback
}
