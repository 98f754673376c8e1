// Package steps accumulates complete step result sets from the paged
// query API.
package steps

import (
	"context"
	"fmt"

	"github.com/stepframe/stepframe/pkg/testmonitor"
)

// DefaultTake is the page size used when a query does not specify one.
const DefaultTake = 1000

// Query describes a complete step query. Steps must match both the step
// filter and the result filter of the owning result.
type Query struct {
	// StepFilter is the filter expression applied to steps.
	StepFilter string

	// ResultFilter restricts steps to those owned by matching results.
	ResultFilter string

	// Projection whitelists the fields to retrieve. Nil retrieves all
	// fields.
	Projection []testmonitor.StepField

	// Take is the page size. Zero or negative means DefaultTake.
	Take int
}

// QueryAll returns every step matching the query, following continuation
// tokens until the server reports no more pages. Order is preserved from
// the server responses, concatenated across pages.
//
// Pagination is ordered by the last-updated timestamp so that pages are
// deterministic. A failure on any page aborts the whole query; no partial
// result set is returned and no retries are attempted.
func QueryAll(
	ctx context.Context,
	client testmonitor.Client,
	q Query,
) ([]testmonitor.Step, error) {
	take := q.Take
	if take <= 0 {
		take = DefaultTake
	}

	req := &testmonitor.QueryStepsRequest{
		Filter:       q.StepFilter,
		ResultFilter: q.ResultFilter,
		OrderBy:      testmonitor.OrderByUpdatedAt,
		Projection:   q.Projection,
		Take:         take,
	}

	var all []testmonitor.Step

	resp, err := client.QuerySteps(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}

	all = append(all, resp.Steps...)

	for resp.ContinuationToken != "" {
		req.ContinuationToken = resp.ContinuationToken

		resp, err = client.QuerySteps(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("querying steps continuation: %w", err)
		}

		all = append(all, resp.Steps...)
	}

	return all, nil
}
