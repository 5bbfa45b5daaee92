package workflow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PedroGalveias/farms-rotator/internal/dotenv"
	"github.com/PedroGalveias/farms-rotator/internal/testlib"
	"github.com/PedroGalveias/farms-rotator/internal/workflow"
	"github.com/PedroGalveias/farms-rotator/model"
)

func TestResyncWorkflow(t *testing.T) {
	fake := testlib.NewFakeRender()
	defer fake.Close()
	fake.AddPostgres(&model.Postgres{ID: "db-1", Status: model.PostgresStatusAvailable}, &model.ConnectionInfo{
		ExternalConnectionString: "postgres://x",
	})

	env, err := dotenv.Load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	migrator := &fakeMigrator{}
	client := model.NewClient(fake.URL(), "api-key")
	flow := workflow.NewResyncFlow(workflow.ResyncFlowParams{}, client, env, migrator, testlib.MakeLogger(t))

	err = workflow.RunWorkflow(workflow.NewResyncWorkflow(flow), testlib.MakeLogger(t))
	require.NoError(t, err)

	// Local file updated and migration invoked exactly once.
	content, err := os.ReadFile(env.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), `DATABASE_URL="postgres://x"`)

	require.Len(t, migrator.calls, 1)
	assert.Equal(t, "postgres://x", migrator.calls[0])

	// No remote mutation of any kind.
	assert.Equal(t, 0, fake.DeleteCalls)
	assert.Equal(t, 0, fake.CreateCalls)
	assert.Equal(t, 0, fake.RestartCalls)
	assert.Empty(t, fake.EnvVarUpdates)
}

func TestResyncWorkflowFailsWithoutDatabase(t *testing.T) {
	fake := testlib.NewFakeRender()
	defer fake.Close()

	env, err := dotenv.Load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	migrator := &fakeMigrator{}
	client := model.NewClient(fake.URL(), "api-key")
	flow := workflow.NewResyncFlow(workflow.ResyncFlowParams{}, client, env, migrator, testlib.MakeLogger(t))

	err = workflow.RunWorkflow(workflow.NewResyncWorkflow(flow), testlib.MakeLogger(t))
	require.Error(t, err)
	assert.Empty(t, migrator.calls)
}
