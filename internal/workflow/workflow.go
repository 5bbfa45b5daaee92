package workflow

import (
	"context"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Step is a single named unit of a workflow. DependsOn is declarative
// documentation of ordering that the runner validates against the actual
// declaration order.
type Step struct {
	Name      string
	Func      func(ctx context.Context) error
	DependsOn []string
}

// Workflow is an ordered list of steps run sequentially.
type Workflow struct {
	Steps []*Step
}

// NewWorkflow creates a workflow from the given steps.
func NewWorkflow(steps []*Step) *Workflow {
	return &Workflow{Steps: steps}
}

// RunWorkflow executes the workflow's steps in order, stopping at the first
// failure. There is no rollback; a partial run leaves whatever state the
// completed steps produced.
func RunWorkflow(workflow *Workflow, logger logrus.FieldLogger) error {
	logger = logger.WithField("run", uuid.New())

	completed := make(map[string]bool, len(workflow.Steps))
	for _, step := range workflow.Steps {
		if completed[step.Name] {
			return errors.Errorf("duplicate step name %q", step.Name)
		}
		for _, dep := range step.DependsOn {
			if !completed[dep] {
				return errors.Errorf("step %q depends on %q which has not run", step.Name, dep)
			}
		}

		logger.Infof("Running step %s", step.Name)
		err := step.Func(context.Background())
		if err != nil {
			return errors.Wrapf(err, "step %s failed", step.Name)
		}
		completed[step.Name] = true
	}

	return nil
}
