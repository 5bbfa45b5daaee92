package workflow

// NewRotateWorkflow builds the step sequence of the rotate workflow.
func NewRotateWorkflow(flow *RotateFlow) *Workflow {
	steps := []*Step{
		{
			Name:      "LookupDatabase",
			Func:      flow.LookupDatabase,
			DependsOn: []string{},
		},
		{
			Name:      "DeleteDatabase",
			Func:      flow.DeleteDatabase,
			DependsOn: []string{"LookupDatabase"},
		},
		{
			Name:      "CreateDatabase",
			Func:      flow.CreateDatabase,
			DependsOn: []string{"DeleteDatabase"},
		},
		{
			Name:      "WaitForDatabaseReady",
			Func:      flow.WaitForDatabaseReady,
			DependsOn: []string{"CreateDatabase"},
		},
		{
			Name:      "FetchConnectionInfo",
			Func:      flow.FetchConnectionInfo,
			DependsOn: []string{"WaitForDatabaseReady"},
		},
		{
			Name:      "PersistConnectionString",
			Func:      flow.PersistConnectionString,
			DependsOn: []string{"FetchConnectionInfo"},
		},
	}

	lastStep := "PersistConnectionString"
	if !flow.Params.SkipMigration {
		steps = append(steps, &Step{
			Name:      "RunMigration",
			Func:      flow.RunMigration,
			DependsOn: []string{lastStep},
		})
		steps = append(steps, &Step{
			Name:      "VerifyMigration",
			Func:      flow.VerifyMigration,
			DependsOn: []string{"RunMigration"},
		})
		lastStep = "VerifyMigration"
	}

	steps = append(steps,
		&Step{
			Name:      "UpdateServiceEnvVars",
			Func:      flow.UpdateServiceEnvVars,
			DependsOn: []string{lastStep},
		},
		&Step{
			Name:      "RestartService",
			Func:      flow.RestartService,
			DependsOn: []string{"UpdateServiceEnvVars"},
		},
		&Step{
			Name:      "WaitForServiceHealthy",
			Func:      flow.WaitForServiceHealthy,
			DependsOn: []string{"RestartService"},
		},
		&Step{
			Name:      "CheckEndpoints",
			Func:      flow.CheckEndpoints,
			DependsOn: []string{"WaitForServiceHealthy"},
		},
	)

	return NewWorkflow(steps)
}

// NewResyncWorkflow builds the step sequence of the re-sync workflow.
func NewResyncWorkflow(flow *ResyncFlow) *Workflow {
	steps := []*Step{
		{
			Name:      "LookupDatabase",
			Func:      flow.LookupDatabase,
			DependsOn: []string{},
		},
		{
			Name:      "FetchConnectionInfo",
			Func:      flow.FetchConnectionInfo,
			DependsOn: []string{"LookupDatabase"},
		},
		{
			Name:      "PersistConnectionString",
			Func:      flow.PersistConnectionString,
			DependsOn: []string{"FetchConnectionInfo"},
		},
	}

	if !flow.Params.SkipMigration {
		steps = append(steps, &Step{
			Name:      "RunMigration",
			Func:      flow.RunMigration,
			DependsOn: []string{"PersistConnectionString"},
		})
	}

	return NewWorkflow(steps)
}
