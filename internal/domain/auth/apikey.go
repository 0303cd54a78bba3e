package auth

import "context"

// Scopes understood by the API surface.
const (
	ScopeOrdersWrite = "orders:write"
	ScopeOrdersAdmin = "orders:admin"
)

// APIKeyInfo holds the identity and permission data for a validated API key.
// ActorID is the user the key acts on behalf of: a customer for storefront
// keys, a staff member for POS terminal keys.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	ActorID string
	Scopes  []string
}

// HasScope reports whether the key carries the given scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

type ctxKey struct{}

// WithKey returns a context carrying the validated API key.
func WithKey(ctx context.Context, info *APIKeyInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// KeyFromContext returns the validated API key stored by WithKey, or nil.
func KeyFromContext(ctx context.Context) *APIKeyInfo {
	info, _ := ctx.Value(ctxKey{}).(*APIKeyInfo)
	return info
}
