package migrate

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultCommand is the schema migration tool invocation used when no
// override is given.
var DefaultCommand = []string{"sqlx", "migrate", "run"}

// RunError carries the captured output and exit code of a failed migration
// run so callers can log it in full before deciding what to do.
type RunError struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("migration command failed with exit code %d", e.ExitCode)
}

// Runner shells out to the external schema migration tool. The tool locates
// the target database through the DATABASE_URL environment variable, which
// is supplied explicitly per run.
type Runner struct {
	command []string
	logger  logrus.FieldLogger
}

// NewRunner creates a Runner for the given command line. An empty command
// falls back to DefaultCommand.
func NewRunner(command []string, logger logrus.FieldLogger) *Runner {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Runner{
		command: command,
		logger:  logger.WithField("tool", "migrate"),
	}
}

// Run executes the migration command against the given database. A non-zero
// exit returns a *RunError; it never terminates the process.
func (r *Runner) Run(databaseURL string) error {
	r.logger.Infof("Running migration command: %v", r.command)

	cmd := exec.Command(r.command[0], r.command[1:]...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("DATABASE_URL=%s", databaseURL))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return errors.Wrapf(err, "failed to start migration command %q", r.command[0])
		}
		return &RunError{
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}

	r.logger.Info("Migration successful")
	if stdout.Len() > 0 {
		r.logger.Infof("Output: %s", stdout.String())
	}
	if stderr.Len() > 0 {
		r.logger.Infof("Stderr: %s", stderr.String())
	}

	return nil
}
