package testmonitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func TestQuerySteps(t *testing.T) {
	var gotReq QueryStepsRequest

	var gotAPIKey string

	r := chi.NewRouter()
	r.Post("/nitestmonitor/v2/query-steps",
		func(w http.ResponseWriter, req *http.Request) {
			gotAPIKey = req.Header.Get("x-ni-api-key")

			require.NoError(t,
				json.NewDecoder(req.Body).Decode(&gotReq))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(&QueryStepsResponse{
				Steps: []Step{
					{StepID: "s1", Name: "boot"},
				},
				ContinuationToken: "t1",
			})
		})

	srv := httptest.NewServer(r)
	defer srv.Close()

	client, err := New(testLogger(), &Config{
		URL:    srv.URL,
		APIKey: "secret",
	})
	require.NoError(t, err)

	resp, err := client.QuerySteps(context.Background(), &QueryStepsRequest{
		Filter:       `name == "boot"`,
		ResultFilter: `programName == "smoke"`,
		OrderBy:      OrderByUpdatedAt,
		Take:         100,
	})
	require.NoError(t, err)

	assert.Equal(t, "secret", gotAPIKey)
	assert.Equal(t, `name == "boot"`, gotReq.Filter)
	assert.Equal(t, `programName == "smoke"`, gotReq.ResultFilter)
	assert.Equal(t, OrderByUpdatedAt, gotReq.OrderBy)
	assert.Equal(t, 100, gotReq.Take)

	require.Len(t, resp.Steps, 1)
	assert.Equal(t, "s1", resp.Steps[0].StepID)
	assert.Equal(t, "t1", resp.ContinuationToken)
}

func TestQuerySteps_WrappedErrorMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/nitestmonitor/v2/query-steps",
		func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(
				`{"error":{"name":"Unauthorized","message":"invalid api key"}}`,
			))
		})

	srv := httptest.NewServer(r)
	defer srv.Close()

	client, err := New(testLogger(), &Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = client.QuerySteps(context.Background(), &QueryStepsRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)

	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid api key", apiErr.Message)
}

func TestQuerySteps_PlainTextError(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/nitestmonitor/v2/query-steps",
		func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "internal error", http.StatusInternalServerError)
		})

	srv := httptest.NewServer(r)
	defer srv.Close()

	client, err := New(testLogger(), &Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = client.QuerySteps(context.Background(), &QueryStepsRequest{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)

	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "internal error", apiErr.Message)
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(testLogger(), &Config{})
	assert.Error(t, err)
}

func TestParseStepField(t *testing.T) {
	f, err := ParseStepField("inputs")
	require.NoError(t, err)
	assert.Equal(t, FieldInputs, f)

	f, err = ParseStepField(" Data_Model ")
	require.NoError(t, err)
	assert.Equal(t, FieldDataModel, f)

	_, err = ParseStepField("bogus")
	assert.Error(t, err)
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{StatusCode: 503}
	assert.Equal(t, "query api returned status 503", err.Error())

	err = &APIError{StatusCode: 400, Message: "bad filter"}
	assert.Equal(t, "query api returned status 400: bad filter", err.Error())
}
