package route

import "context"

type paramsKey struct{}

// WithParams returns a context carrying the path parameters of a match.
func WithParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

// ParamsFrom returns the path parameters stored by WithParams, or nil.
func ParamsFrom(ctx context.Context) map[string]string {
	params, _ := ctx.Value(paramsKey{}).(map[string]string)
	return params
}
