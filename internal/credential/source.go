package credential

import "context"

// Source yields credentials in the order they should be rotated through.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Credential, error)
}
