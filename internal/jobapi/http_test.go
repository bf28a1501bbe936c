package jobapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/rsilvagit/joblist/internal/httpclient"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
	"github.com/rsilvagit/joblist/internal/session"
)

func newHTTP(t *testing.T, handler http.Handler) *HTTP {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := httpclient.New(httpclient.Options{}, arbor.NewLogger())
	require.NoError(t, err)
	return NewHTTP(client, srv.URL+"/v1/")
}

func signedIn() context.Context {
	return session.WithUser(context.Background(), &model.User{ID: "u1", Email: "ana@example.com", Token: "tok"})
}

func TestHTTP_ListJobsSendsWireParams(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	api := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "j1", "name": "Go Dev", "companyName": "Acme", "tags": []string{"go"}}},
			"meta": map[string]any{"total": 95},
		})
	}))

	params := query.Params{
		Page:             3,
		PerPage:          10,
		SearchField:      query.FieldLocation,
		SearchQuery:      "remote",
		OrderByField:     "createdAt",
		OrderByDirection: query.Desc,
	}
	page, err := api.ListJobs(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "/v1/jobs", gotPath)
	assert.Equal(t, "3", gotQuery.Get("page"))
	assert.Equal(t, "10", gotQuery.Get("perPage"))
	assert.Equal(t, "location", gotQuery.Get("searchField"))
	assert.Equal(t, "remote", gotQuery.Get("searchQuery"))
	assert.Equal(t, "createdAt", gotQuery.Get("orderByField"))
	assert.Equal(t, "desc", gotQuery.Get("orderByDirection"))

	require.Len(t, page.Data, 1)
	assert.Equal(t, "Acme", page.Data[0].CompanyName)
	assert.Equal(t, []string{"go"}, page.Data[0].Tags)
	assert.Equal(t, 95, page.Meta.Total)
}

func TestHTTP_ListJobsForwardsToken(t *testing.T) {
	var auth string
	api := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":null,"meta":{"total":0}}`))
	}))

	page, err := api.ListJobs(signedIn(), query.Default())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestHTTP_ListJobsErrorStatus(t *testing.T) {
	api := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"forbidden"}`))
	}))

	_, err := api.ListJobs(context.Background(), query.Default())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "forbidden", apiErr.Message)
}

func TestHTTP_ListJobsMalformedBody(t *testing.T) {
	api := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))

	_, err := api.ListJobs(context.Background(), query.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestHTTP_Withdraw(t *testing.T) {
	var method, path string
	api := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, api.WithdrawApplication(signedIn(), "job 7"))
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/v1/jobs/job 7/withdraw", path)
}

func TestHTTP_WithdrawRequiresUser(t *testing.T) {
	called := false
	api := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	err := api.WithdrawApplication(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, called)
}

func TestHTTP_AppliedJobs(t *testing.T) {
	api := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/jobs/applied", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"j2","name":"SRE"}]}`))
	}))

	jobs, err := api.AppliedJobs(signedIn())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "SRE", jobs[0].Name)
}

func TestAPIError_Message(t *testing.T) {
	assert.Equal(t, "jobapi: unexpected status 502", (&APIError{StatusCode: 502}).Error())
	assert.Equal(t, "jobapi: status 400: bad", (&APIError{StatusCode: 400, Message: "bad"}).Error())
}
