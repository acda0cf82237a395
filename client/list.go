package client

import (
	"context"
	"net/url"

	"github.com/crmarques/intersync/query"
	"github.com/crmarques/intersync/resource"
)

// ListAll walks a paginated collection and returns every matching body. The
// supplied parameters are copied before pagination windows are added.
func (c *Client) ListAll(ctx context.Context, path string, params url.Values) ([]resource.Body, error) {
	var all []resource.Body
	for skip := 0; ; skip += c.pageSize {
		page := url.Values{}
		for key, values := range params {
			page[key] = append([]string(nil), values...)
		}
		query.WithPage(page, c.pageSize, skip)

		response, err := c.Get(ctx, path, page)
		if err != nil {
			return nil, err
		}

		results, ok := response.Results()
		if !ok {
			// Collection reads always answer with a Results envelope when
			// anything matched; a body without one means no matches.
			return all, nil
		}

		all = append(all, results...)
		if len(results) < c.pageSize {
			return all, nil
		}
	}
}
