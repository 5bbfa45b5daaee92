package workflow_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PedroGalveias/farms-rotator/internal/dotenv"
	"github.com/PedroGalveias/farms-rotator/internal/migrate"
	"github.com/PedroGalveias/farms-rotator/internal/testlib"
	"github.com/PedroGalveias/farms-rotator/internal/workflow"
	"github.com/PedroGalveias/farms-rotator/model"
)

type fakeMigrator struct {
	calls []string
	err   error
}

func (m *fakeMigrator) Run(databaseURL string) error {
	m.calls = append(m.calls, databaseURL)
	return m.err
}

type fakeVerifier struct {
	count int64
	err   error
}

func (v *fakeVerifier) AppliedMigrations(databaseURL string) (int64, error) {
	return v.count, v.err
}

func setupRotateFlow(t *testing.T, fake *testlib.FakeRender, migrator *fakeMigrator, params workflow.RotateFlowParams) (*workflow.RotateFlow, *dotenv.Store) {
	fake.AddPostgres(&model.Postgres{ID: "dpg-old", Status: model.PostgresStatusAvailable}, &model.ConnectionInfo{
		ExternalConnectionString: "postgres://farmer@dpg-old.example.com/farms",
	})

	env, err := dotenv.Load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	if params.CreateRequest == nil {
		params.CreateRequest = &model.CreatePostgresRequest{
			Name:         "farms-db",
			DatabaseName: "farms",
			DatabaseUser: "farmer",
			Plan:         "free",
			Region:       "frankfurt",
			Version:      "18",
		}
	}
	params.ServiceID = "srv-1"
	params.ServiceBaseURL = fake.URL()
	params.ReadyTimeout = time.Second
	params.ReadyInterval = time.Millisecond
	params.HealthTimeout = time.Second
	params.HealthInterval = time.Millisecond

	client := model.NewClient(fake.URL(), "api-key")
	flow := workflow.NewRotateFlow(params, client, env, migrator, &fakeVerifier{count: 2}, testlib.MakeLogger(t))

	return flow, env
}

func TestRotateWorkflow(t *testing.T) {
	fake := testlib.NewFakeRender()
	defer fake.Close()
	fake.ReadyAfterPolls = 2

	migrator := &fakeMigrator{}
	flow, env := setupRotateFlow(t, fake, migrator, workflow.RotateFlowParams{})

	err := workflow.RunWorkflow(workflow.NewRotateWorkflow(flow), testlib.MakeLogger(t))
	require.NoError(t, err)

	// Exactly one delete, one create, three env var updates, one restart.
	assert.Equal(t, 1, fake.DeleteCalls)
	assert.Equal(t, 1, fake.CreateCalls)
	require.Len(t, fake.EnvVarUpdates, 3)
	assert.Equal(t, workflow.EnvKeyDatabaseName, fake.EnvVarUpdates[0].Key)
	assert.Equal(t, "farms", fake.EnvVarUpdates[0].Value)
	assert.Equal(t, workflow.EnvKeyDatabaseHost, fake.EnvVarUpdates[1].Key)
	assert.Equal(t, flow.Meta.NewPostgres.ID, fake.EnvVarUpdates[1].Value)
	assert.Equal(t, workflow.EnvKeyDatabasePass, fake.EnvVarUpdates[2].Key)
	assert.Equal(t, 1, fake.RestartCalls)

	// Both service endpoints probed after restart.
	assert.GreaterOrEqual(t, fake.HealthCheckCalls, 2)
	assert.Equal(t, 1, fake.FarmsCalls)

	// Migration ran once against the new database.
	require.Len(t, migrator.calls, 1)
	assert.Equal(t, flow.Meta.ConnectionInfo.ExternalConnectionString, migrator.calls[0])
	assert.Equal(t, int64(2), flow.Meta.AppliedMigrations)

	// Connection string persisted locally.
	content, err := os.ReadFile(env.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), flow.Meta.ConnectionInfo.ExternalConnectionString)
	assert.Equal(t, flow.Meta.ConnectionInfo.ExternalConnectionString, env.Get(dotenv.DatabaseURLKey))
}

func TestRotateWorkflowUpdatesDatabaseURLWhenRequested(t *testing.T) {
	fake := testlib.NewFakeRender()
	defer fake.Close()

	migrator := &fakeMigrator{}
	flow, _ := setupRotateFlow(t, fake, migrator, workflow.RotateFlowParams{UpdateDatabaseURL: true})

	err := workflow.RunWorkflow(workflow.NewRotateWorkflow(flow), testlib.MakeLogger(t))
	require.NoError(t, err)

	require.Len(t, fake.EnvVarUpdates, 4)
	assert.Equal(t, workflow.EnvKeyDatabaseURL, fake.EnvVarUpdates[3].Key)
	assert.Equal(t, flow.Meta.ConnectionInfo.InternalConnectionString, fake.EnvVarUpdates[3].Value)
}

func TestRotateWorkflowMigrationFailureAborts(t *testing.T) {
	fake := testlib.NewFakeRender()
	defer fake.Close()

	migrator := &fakeMigrator{err: &migrate.RunError{ExitCode: 1, Stderr: "relation already exists"}}
	flow, _ := setupRotateFlow(t, fake, migrator, workflow.RotateFlowParams{})

	err := workflow.RunWorkflow(workflow.NewRotateWorkflow(flow), testlib.MakeLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step RunMigration failed")

	// The service must not be repointed or restarted after a failed migration.
	assert.Empty(t, fake.EnvVarUpdates)
	assert.Equal(t, 0, fake.RestartCalls)
}

func TestRotateWorkflowMigrationFailureIgnored(t *testing.T) {
	fake := testlib.NewFakeRender()
	defer fake.Close()

	migrator := &fakeMigrator{err: &migrate.RunError{ExitCode: 1}}
	flow, _ := setupRotateFlow(t, fake, migrator, workflow.RotateFlowParams{IgnoreMigrationFailure: true})

	err := workflow.RunWorkflow(workflow.NewRotateWorkflow(flow), testlib.MakeLogger(t))
	require.NoError(t, err)

	assert.Len(t, fake.EnvVarUpdates, 3)
	assert.Equal(t, 1, fake.RestartCalls)
}

func TestRotateWorkflowSkipMigration(t *testing.T) {
	fake := testlib.NewFakeRender()
	defer fake.Close()

	migrator := &fakeMigrator{}
	flow, _ := setupRotateFlow(t, fake, migrator, workflow.RotateFlowParams{SkipMigration: true})

	err := workflow.RunWorkflow(workflow.NewRotateWorkflow(flow), testlib.MakeLogger(t))
	require.NoError(t, err)

	assert.Empty(t, migrator.calls)
	assert.Len(t, fake.EnvVarUpdates, 3)
}

func TestRotateWorkflowFailsWhenNoDatabaseExists(t *testing.T) {
	fake := testlib.NewFakeRender()
	defer fake.Close()

	env, err := dotenv.Load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	params := workflow.RotateFlowParams{
		ServiceID:      "srv-1",
		ServiceBaseURL: fake.URL(),
		CreateRequest:  &model.CreatePostgresRequest{Name: "farms-db"},
		ReadyTimeout:   time.Second,
		ReadyInterval:  time.Millisecond,
		HealthTimeout:  time.Second,
		HealthInterval: time.Millisecond,
	}

	client := model.NewClient(fake.URL(), "api-key")
	flow := workflow.NewRotateFlow(params, client, env, &fakeMigrator{}, &fakeVerifier{}, testlib.MakeLogger(t))

	err = workflow.RunWorkflow(workflow.NewRotateWorkflow(flow), testlib.MakeLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step LookupDatabase failed")

	// Nothing was created or deleted.
	assert.Equal(t, 0, fake.DeleteCalls)
	assert.Equal(t, 0, fake.CreateCalls)
}
