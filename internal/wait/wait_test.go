package wait_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PedroGalveias/farms-rotator/internal/testlib"
	"github.com/PedroGalveias/farms-rotator/internal/wait"
	"github.com/PedroGalveias/farms-rotator/model"
)

func TestForFunc(t *testing.T) {
	t.Run("becomes ready", func(t *testing.T) {
		attempts := 0
		err := wait.ForFunc(time.Second, time.Millisecond, func() (bool, error) {
			attempts++
			return attempts >= 3, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("times out", func(t *testing.T) {
		err := wait.ForFunc(10*time.Millisecond, time.Millisecond, func() (bool, error) {
			return false, nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("propagates error", func(t *testing.T) {
		err := wait.ForFunc(time.Second, time.Millisecond, func() (bool, error) {
			return false, errors.New("boom")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestForPostgresReady(t *testing.T) {
	logger := testlib.MakeLogger(t)

	t.Run("becomes available after polls", func(t *testing.T) {
		fake := testlib.NewFakeRender()
		defer fake.Close()
		fake.ReadyAfterPolls = 2

		client := model.NewClient(fake.URL(), "api-key")
		postgres, err := client.CreatePostgres(&model.CreatePostgresRequest{Name: "farms-db"})
		require.NoError(t, err)
		require.Equal(t, model.PostgresStatusCreating, postgres.Status)

		err = wait.ForPostgresReady(client, postgres.ID, time.Second, time.Millisecond, logger)
		require.NoError(t, err)
	})

	t.Run("unavailable is terminal", func(t *testing.T) {
		fake := testlib.NewFakeRender()
		defer fake.Close()
		fake.AddPostgres(&model.Postgres{ID: "dpg-bad", Status: model.PostgresStatusUnavailable}, &model.ConnectionInfo{})

		client := model.NewClient(fake.URL(), "api-key")

		err := wait.ForPostgresReady(client, "dpg-bad", time.Second, time.Millisecond, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unavailable")
	})
}

func TestForServiceHealthy(t *testing.T) {
	logger := testlib.MakeLogger(t)

	fake := testlib.NewFakeRender()
	defer fake.Close()

	err := wait.ForServiceHealthy(fake.URL()+"/health_check", time.Second, time.Millisecond, logger)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fake.HealthCheckCalls, 1)

	err = wait.ForServiceHealthy(fake.URL()+"/nonexistent", 10*time.Millisecond, time.Millisecond, logger)
	require.Error(t, err)
}
