// Package frame turns paged step query results into flat tables with
// deterministic, semantically grouped column ordering.
package frame

import (
	"context"
	"fmt"

	"github.com/stepframe/stepframe/pkg/steps"
	"github.com/stepframe/stepframe/pkg/table"
	"github.com/stepframe/stepframe/pkg/testmonitor"
)

// GetStepsTable fetches every step matching the step and result filters
// and normalizes the complete result set into a table. A nil projection
// retrieves all fields; a non-nil projection restricts each step to the
// listed fields.
//
// The full result set is materialized in memory before normalization.
// Query failures abort the operation; the caller owns any retry policy.
func GetStepsTable(
	ctx context.Context,
	client testmonitor.Client,
	stepFilter, resultFilter string,
	projection []testmonitor.StepField,
) (*table.Table, error) {
	all, err := steps.QueryAll(ctx, client, steps.Query{
		StepFilter:   stepFilter,
		ResultFilter: resultFilter,
		Projection:   projection,
		Take:         steps.DefaultTake,
	})
	if err != nil {
		return nil, err
	}

	t, err := Normalize(all)
	if err != nil {
		return nil, fmt.Errorf("normalizing %d steps: %w", len(all), err)
	}

	return t, nil
}
