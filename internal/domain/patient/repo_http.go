package patient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/drishti-hms/pos/internal/platform/upstream"
)

type searchRepoHTTP struct {
	client *upstream.Client
}

// NewSearchRepoHTTP returns a SearchRepository backed by the hospital
// API's patient search endpoint.
func NewSearchRepoHTTP(client *upstream.Client) SearchRepository {
	return &searchRepoHTTP{client: client}
}

func (r *searchRepoHTTP) Search(ctx context.Context, term string) ([]Summary, error) {
	q := url.Values{}
	q.Set("q", term)
	var resp struct {
		Results []Summary `json:"results"`
	}
	if err := r.client.GetJSON(ctx, "/patients/search", q, &resp); err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return resp.Results, nil
}
