package httpx

import "context"

type ctxKey string

const (
	CtxKeySubject   ctxKey = "subject"
	CtxKeyRealm     ctxKey = "realm"
	CtxKeyAbilities ctxKey = "abilities"
)

// Principal is the authenticated caller as far as generic middleware cares.
type Principal struct {
	Subject   string
	Realm     string
	Abilities []string
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubject, p.Subject)
	ctx = context.WithValue(ctx, CtxKeyRealm, p.Realm)
	ctx = context.WithValue(ctx, CtxKeyAbilities, p.Abilities)
	return ctx
}

func SubjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeySubject).(string)
	return v
}

func RealmFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyRealm).(string)
	return v
}

func abilitiesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyAbilities).([]string); ok {
		return v
	}
	return nil
}
