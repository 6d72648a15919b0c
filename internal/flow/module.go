package flow

import (
	"go.uber.org/fx"

	"github.com/dwellio/voicebridge/internal/config"
	"github.com/dwellio/voicebridge/internal/scheduling"
)

// Module provides the script library and appointment planner.
var Module = fx.Module("flow",
	fx.Provide(
		NewLibrary,
		NewPlanner,
	),
)

// NewLibrary loads the script tables configured for this process.
func NewLibrary(cfg *config.Config) (*Library, error) {
	return LoadLibrary(cfg.Flows.ScriptsPath)
}

// NewPlannerParams holds dependencies for NewPlanner.
type NewPlannerParams struct {
	fx.In
	Calendar scheduling.Calendar
	Assigner scheduling.Assigner
}

// NewPlanner composes the calendar and assigner behind the engine-facing
// planner interface.
func NewPlanner(params NewPlannerParams) Planner {
	return &schedulingPlanner{calendar: params.Calendar, assigner: params.Assigner}
}

type schedulingPlanner struct {
	calendar scheduling.Calendar
	assigner scheduling.Assigner
}

func (p *schedulingPlanner) NextSlots(n int) []scheduling.Slot {
	return p.calendar.NextSlots(n)
}

func (p *schedulingPlanner) NextAgent() string {
	return p.assigner.NextAgent()
}
