package jobapi

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
)

func numberedJobs(n int) []model.Job {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := make([]model.Job, n)
	for i := range jobs {
		jobs[i] = model.Job{
			ID:          fmt.Sprintf("j%03d", i+1),
			Name:        fmt.Sprintf("Job %03d", i+1),
			CompanyName: []string{"Acme", "Globex"}[i%2],
			Location:    "Remote",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
	}
	return jobs
}

func TestMemory_Paginates(t *testing.T) {
	api := NewMemory(numberedJobs(95))

	p := query.Default()
	p.Page = 10
	page, err := api.ListJobs(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 95, page.Meta.Total)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "j091", page.Data[0].ID)
	assert.Equal(t, 10, query.TotalPages(page.Meta.Total, p.PerPage))
}

func TestMemory_PastLastPageIsEmpty(t *testing.T) {
	api := NewMemory(numberedJobs(95))

	p := query.Default()
	p.Page = 11
	page, err := api.ListJobs(context.Background(), p)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 95, page.Meta.Total)
}

func TestMemory_HugePageIsEmpty(t *testing.T) {
	api := NewMemory(numberedJobs(95))

	p := query.Default()
	p.Page = math.MaxInt / 10
	require.NoError(t, p.Validate())

	page, err := api.ListJobs(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 95, page.Meta.Total)
}

func TestMemory_FiltersAndSorts(t *testing.T) {
	api := NewMemory(numberedJobs(6))

	p := query.Default()
	p.SearchField = query.FieldCompanyName
	p.SearchQuery = "globex"
	p.OrderByDirection = query.Desc

	page, err := api.ListJobs(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Meta.Total)

	var got []string
	for _, j := range page.Data {
		got = append(got, j.ID)
	}
	assert.Equal(t, []string{"j006", "j004", "j002"}, got)
}

func TestMemory_SortByName(t *testing.T) {
	api := NewMemory([]model.Job{
		{ID: "a", Name: "zeta"},
		{ID: "b", Name: "Alpha"},
		{ID: "c", Name: "mid"},
	})
	p := query.Default()
	p.OrderByField = "name"

	page, err := api.ListJobs(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "b", page.Data[0].ID)
	assert.Equal(t, "a", page.Data[2].ID)
}

func TestMemory_RejectsInvalidParams(t *testing.T) {
	api := NewMemory(numberedJobs(3))
	p := query.Default()
	p.Page = 0

	_, err := api.ListJobs(context.Background(), p)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestMemory_ApplyWithdrawApplied(t *testing.T) {
	api := NewMemory(numberedJobs(5))
	ctx := signedIn()

	require.NoError(t, api.Apply(ctx, "j002"))
	require.NoError(t, api.Apply(ctx, "j004"))
	assert.ErrorIs(t, api.Apply(ctx, "nope"), ErrNotFound)

	applied, err := api.AppliedJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 2)

	require.NoError(t, api.WithdrawApplication(ctx, "j002"))
	assert.ErrorIs(t, api.WithdrawApplication(ctx, "j002"), ErrNotApplied)

	applied, err = api.AppliedJobs(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "j004", applied[0].ID)
}

func TestMemory_RequiresUser(t *testing.T) {
	api := NewMemory(numberedJobs(1))
	ctx := context.Background()

	assert.ErrorIs(t, api.Apply(ctx, "j001"), ErrUnauthenticated)
	assert.ErrorIs(t, api.WithdrawApplication(ctx, "j001"), ErrUnauthenticated)
	_, err := api.AppliedJobs(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSeed(t *testing.T) {
	jobs, err := Seed()
	require.NoError(t, err)
	require.NotEmpty(t, jobs)
	for _, j := range jobs {
		assert.NotEmpty(t, j.ID)
		assert.NotEmpty(t, j.CompanyName)
		assert.False(t, j.CreatedAt.IsZero())
	}
}
