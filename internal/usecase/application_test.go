package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
	"github.com/fairyhunter13/ai-placement-coach/internal/pipeline"
)

func TestApplicationCreate(t *testing.T) {
	t.Parallel()
	apps := newFakeAppRepo()
	svc := NewApplicationService(apps, pipeline.NewPolicy(pipeline.DefaultTables()))

	app, err := svc.Create(context.Background(), domain.Identity{UserID: "u1"}, domain.CompanyTCS)
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, "u1", app.UserID)
	assert.Equal(t, "foundation", app.CurrentStage)
	assert.Equal(t, domain.StatusInProgress, app.Status)

	wipro, err := svc.Create(context.Background(), domain.Identity{UserID: "u1"}, domain.CompanyWipro)
	require.NoError(t, err)
	assert.Equal(t, "aptitude", wipro.CurrentStage)
}

func TestApplicationCreateUnknownCompany(t *testing.T) {
	t.Parallel()
	svc := NewApplicationService(newFakeAppRepo(), pipeline.NewPolicy(pipeline.DefaultTables()))
	_, err := svc.Create(context.Background(), domain.Identity{UserID: "u1"}, "Infosys")
	require.ErrorIs(t, err, domain.ErrUnknownCompany)
}

func TestApplicationGetOwnership(t *testing.T) {
	t.Parallel()
	apps := newFakeAppRepo()
	svc := NewApplicationService(apps, pipeline.NewPolicy(pipeline.DefaultTables()))
	app, err := svc.Create(context.Background(), domain.Identity{UserID: "u1"}, domain.CompanyTCS)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), domain.Identity{UserID: "u1"}, app.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), domain.Identity{UserID: "u2"}, app.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(context.Background(), domain.Identity{UserID: "u2", Admin: true}, app.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), domain.Identity{UserID: "u1"}, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResultListForUser(t *testing.T) {
	t.Parallel()
	results := &fakeResultRepo{}
	_, err := results.Append(context.Background(), domain.TestResult{UserID: "u1", TestID: "TCS-foundation", Score: 7, Total: 10})
	require.NoError(t, err)
	_, err = results.Append(context.Background(), domain.TestResult{UserID: "u2", TestID: "TCS-foundation", Score: 5, Total: 10})
	require.NoError(t, err)

	svc := NewResultService(results)

	own, err := svc.ListForUser(context.Background(), domain.Identity{UserID: "u1"}, "u1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, 7, own[0].Score)

	_, err = svc.ListForUser(context.Background(), domain.Identity{UserID: "u1"}, "u2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	other, err := svc.ListForUser(context.Background(), domain.Identity{UserID: "ops", Admin: true}, "u2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}
