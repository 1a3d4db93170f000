package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/edlund/sentinel/internal/export"
)

type RetentionWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *RetentionWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *RetentionWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *RetentionWorkflowTestSuite) TestPurgeWithoutArchive() {
	s.env.OnActivity("PurgeOldAttacks", mock.Anything, 90).
		Return(int64(120), nil)
	s.env.OnActivity("DeleteOldAuditLogs", mock.Anything, 365).
		Return(int64(30), nil)

	s.env.ExecuteWorkflow(RetentionWorkflow, RetentionParams{
		AttackRetentionDays:   90,
		AuditLogRetentionDays: 365,
	})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *RetentionWorkflowTestSuite) TestArchivesBeforePurge() {
	s.env.OnActivity("RunExport", mock.Anything, []string{"live_attacks", "blocked_attacks"}).
		Return(&export.Result{Bucket: "sentinel-archive"}, nil)
	s.env.OnActivity("PurgeOldAttacks", mock.Anything, 90).
		Return(int64(120), nil)
	s.env.OnActivity("DeleteOldAuditLogs", mock.Anything, 365).
		Return(int64(30), nil)

	s.env.ExecuteWorkflow(RetentionWorkflow, RetentionParams{
		AttackRetentionDays:   90,
		AuditLogRetentionDays: 365,
		ArchiveBeforePurge:    true,
	})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *RetentionWorkflowTestSuite) TestArchiveFailureStopsPurge() {
	s.env.OnActivity("RunExport", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("export storage is not configured"))

	s.env.ExecuteWorkflow(RetentionWorkflow, RetentionParams{
		AttackRetentionDays:   90,
		AuditLogRetentionDays: 365,
		ArchiveBeforePurge:    true,
	})
	s.True(s.env.IsWorkflowCompleted())
	// Without the archive, purging would lose history; the run must fail.
	s.Error(s.env.GetWorkflowError())
}

func TestRetentionWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(RetentionWorkflowTestSuite))
}
