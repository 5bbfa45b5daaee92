package wait

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/PedroGalveias/farms-rotator/model"
)

// ForFunc polls isReady at the given interval until it reports true, errors,
// or the timeout elapses.
func ForFunc(timeout time.Duration, interval time.Duration, isReady func() (bool, error)) error {
	done := time.After(timeout)

	for {
		ready, err := isReady()
		if err != nil {
			return errors.Wrap(err, "while checking if condition is ready")
		}

		if ready {
			return nil
		}

		select {
		case <-done:
			return fmt.Errorf("timeout waiting for condition")
		default:
			time.Sleep(interval)
		}
	}
}

// ForPostgresReady polls the postgres instance until its status is
// available. Unavailable is treated as terminal.
func ForPostgresReady(client *model.Client, postgresID string, timeout, interval time.Duration, log logrus.FieldLogger) error {
	err := ForFunc(timeout, interval, func() (bool, error) {
		postgres, err := client.GetPostgres(postgresID)
		if err != nil {
			return false, errors.Wrap(err, "while waiting for postgres to become available")
		}

		if postgres.Status == model.PostgresStatusAvailable {
			return true, nil
		}
		if postgres.Status == model.PostgresStatusUnavailable {
			return false, fmt.Errorf("postgres instance %q entered status %s", postgresID, postgres.Status)
		}

		log.Infof("Postgres %s not ready: %s", postgresID, postgres.Status)
		return false, nil
	})
	return err
}

// ForServiceHealthy polls the given URL until it returns HTTP 200.
func ForServiceHealthy(url string, timeout, interval time.Duration, log logrus.FieldLogger) error {
	err := ForFunc(timeout, interval, func() (bool, error) {
		resp, err := http.Get(url)
		if err != nil {
			log.WithError(err).Infof("Service at %s not reachable yet", url)
			return false, nil
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return true, nil
		}

		log.Infof("Service at %s not healthy: status %d", url, resp.StatusCode)
		return false, nil
	})
	return err
}
