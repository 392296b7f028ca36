package backendtest

import "context"

func contextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func userIDFromContext(ctx context.Context) int {
	id, _ := ctx.Value(userIDKey).(int)
	return id
}
