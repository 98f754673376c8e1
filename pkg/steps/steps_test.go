package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stepframe/stepframe/pkg/testmonitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves canned pages and records each request it sees.
type fakeClient struct {
	pages    []*testmonitor.QueryStepsResponse
	failAt   int // 1-based call number to fail on; 0 never fails
	requests []testmonitor.QueryStepsRequest
}

var _ testmonitor.Client = (*fakeClient)(nil)

var errFake = errors.New("query failed")

func (f *fakeClient) QuerySteps(
	_ context.Context, req *testmonitor.QueryStepsRequest,
) (*testmonitor.QueryStepsResponse, error) {
	// Copy the request: the paginator mutates it between calls.
	f.requests = append(f.requests, *req)

	if f.failAt > 0 && len(f.requests) == f.failAt {
		return nil, errFake
	}

	page := f.pages[len(f.requests)-1]

	return page, nil
}

func makeSteps(ids ...string) []testmonitor.Step {
	out := make([]testmonitor.Step, len(ids))
	for i, id := range ids {
		out[i] = testmonitor.Step{StepID: id}
	}

	return out
}

func TestQueryAll_SinglePage(t *testing.T) {
	client := &fakeClient{
		pages: []*testmonitor.QueryStepsResponse{
			{Steps: makeSteps("s1", "s2")},
		},
	}

	got, err := QueryAll(context.Background(), client, Query{
		StepFilter:   `name == "boot"`,
		ResultFilter: `programName == "smoke"`,
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].StepID)
	assert.Equal(t, "s2", got[1].StepID)

	require.Len(t, client.requests, 1)

	req := client.requests[0]
	assert.Equal(t, `name == "boot"`, req.Filter)
	assert.Equal(t, `programName == "smoke"`, req.ResultFilter)
	assert.Equal(t, testmonitor.OrderByUpdatedAt, req.OrderBy)
	assert.Equal(t, DefaultTake, req.Take)
	assert.Empty(t, req.ContinuationToken)
}

func TestQueryAll_FollowsContinuationTokens(t *testing.T) {
	client := &fakeClient{
		pages: []*testmonitor.QueryStepsResponse{
			{Steps: makeSteps("s1", "s2"), ContinuationToken: "t1"},
			{Steps: makeSteps("s3"), ContinuationToken: "t2"},
			{Steps: makeSteps("s4", "s5")},
		},
	}

	got, err := QueryAll(context.Background(), client, Query{Take: 2})
	require.NoError(t, err)

	// One call per page, record count is the sum of the page sizes,
	// order concatenated across pages.
	require.Len(t, client.requests, 3)
	require.Len(t, got, 5)

	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.StepID
	}

	assert.Equal(t, []string{"s1", "s2", "s3", "s4", "s5"}, ids)

	// Each continuation request carries the token the server issued,
	// with filters and page size unchanged.
	assert.Empty(t, client.requests[0].ContinuationToken)
	assert.Equal(t, "t1", client.requests[1].ContinuationToken)
	assert.Equal(t, "t2", client.requests[2].ContinuationToken)

	for _, req := range client.requests {
		assert.Equal(t, 2, req.Take)
		assert.Equal(t, testmonitor.OrderByUpdatedAt, req.OrderBy)
	}
}

func TestQueryAll_ProjectionForwarded(t *testing.T) {
	client := &fakeClient{
		pages: []*testmonitor.QueryStepsResponse{{}},
	}

	projection := []testmonitor.StepField{
		testmonitor.FieldStepID,
		testmonitor.FieldInputs,
	}

	_, err := QueryAll(context.Background(), client, Query{
		Projection: projection,
	})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	assert.Equal(t, projection, client.requests[0].Projection)
}

func TestQueryAll_ErrorAbortsPagination(t *testing.T) {
	client := &fakeClient{
		pages: []*testmonitor.QueryStepsResponse{
			{Steps: makeSteps("s1"), ContinuationToken: "t1"},
			nil,
		},
		failAt: 2,
	}

	got, err := QueryAll(context.Background(), client, Query{})
	require.Error(t, err)
	require.ErrorIs(t, err, errFake)

	// Already-accumulated records are discarded, not partially returned.
	assert.Nil(t, got)
	assert.Len(t, client.requests, 2)
}

func TestQueryAll_InitialErrorPropagates(t *testing.T) {
	client := &fakeClient{
		pages:  []*testmonitor.QueryStepsResponse{nil},
		failAt: 1,
	}

	_, err := QueryAll(context.Background(), client, Query{})
	require.ErrorIs(t, err, errFake)
}

func TestQueryAll_EmptyResultSet(t *testing.T) {
	client := &fakeClient{
		pages: []*testmonitor.QueryStepsResponse{{}},
	}

	got, err := QueryAll(context.Background(), client, Query{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
