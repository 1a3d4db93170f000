package workflow

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/edlund/sentinel/internal/activity"
	"github.com/edlund/sentinel/internal/core"
)

type MonitorHealthWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *MonitorHealthWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *MonitorHealthWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *MonitorHealthWorkflowTestSuite) TestAllMonitorsHealthy() {
	s.env.OnActivity("MarkStaleMonitorsOffline", mock.Anything, 10).
		Return([]core.StaleMonitor{}, nil)

	s.env.ExecuteWorkflow(MonitorHealthWorkflow, 10)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *MonitorHealthWorkflowTestSuite) TestOfflineMonitorOpensIncident() {
	stale := core.StaleMonitor{ID: "mon-1", Name: "edge feed poller", Kind: "feed"}

	s.env.OnActivity("MarkStaleMonitorsOffline", mock.Anything, 10).
		Return([]core.StaleMonitor{stale}, nil)
	s.env.OnActivity("CreateIncident", mock.Anything, mock.MatchedBy(func(p activity.CreateIncidentParams) bool {
		return p.DedupeKey == "monitor_offline:mon-1" &&
			p.Type == "monitor_offline" &&
			p.Severity == "high" &&
			p.Source == "monitor-health-cron"
	})).Return(&activity.CreateIncidentResult{ID: "inc-1", Created: true}, nil)

	s.env.ExecuteWorkflow(MonitorHealthWorkflow, 10)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *MonitorHealthWorkflowTestSuite) TestDedupedIncidentNotRecreated() {
	stale := core.StaleMonitor{ID: "mon-1", Name: "edge feed poller", Kind: "feed"}

	s.env.OnActivity("MarkStaleMonitorsOffline", mock.Anything, 10).
		Return([]core.StaleMonitor{stale}, nil)
	// Still offline from the last run; Create dedupes on the key.
	s.env.OnActivity("CreateIncident", mock.Anything, mock.Anything).
		Return(&activity.CreateIncidentResult{ID: "inc-1", Created: false}, nil)

	s.env.ExecuteWorkflow(MonitorHealthWorkflow, 10)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func TestMonitorHealthWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(MonitorHealthWorkflowTestSuite))
}
