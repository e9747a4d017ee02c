package patient

import "context"

// SearchRepository runs a patient lookup against the hospital API.
type SearchRepository interface {
	Search(ctx context.Context, term string) ([]Summary, error)
}
