package possession

import "github.com/tactabot/regista/internal/domain/event"

// Stats aggregates completed chains for dashboards. Rates are fractions in
// [0,1] of the chains counted.
type Stats struct {
	TotalChains          int     `json:"totalChains"`
	TransitionChains     int     `json:"transitionChains"`
	AvgDurationMs        float64 `json:"avgDurationMs"`
	AvgPassesPerChain    float64 `json:"avgPassesPerChain"`
	ShotRate             float64 `json:"shotRate"`
	GoalRate             float64 `json:"goalRate"`
	LossRate             float64 `json:"lossRate"`
	TransitionToShotRate float64 `json:"transitionToShotRate"`
	TransitionToGoalRate float64 `json:"transitionToGoalRate"`
	FinalThirdEntryRate  float64 `json:"finalThirdEntryRate"`
	BoxEntryRate         float64 `json:"boxEntryRate"`
	ProgressivePassRate  float64 `json:"progressivePassRate"`
	FastBuildUps         int     `json:"fastBuildUps"`
	SlowBuildUps         int     `json:"slowBuildUps"`
}

// ComputeStats aggregates completed chains, optionally filtered to one
// team (TeamNone counts both sides). Empty input yields the zero struct;
// no division by zero anywhere.
func ComputeStats(chains []Chain, team event.Team) Stats {
	var (
		s                     Stats
		totalDuration         int64
		totalPasses           int
		totalProgressive      int
		shots, goals, losses  int
		transShots, transGoal int
		finals, boxes         int
	)

	for _, c := range chains {
		if team.Valid() && c.Team != team {
			continue
		}
		s.TotalChains++
		totalDuration += c.DurationMs
		totalPasses += c.PassCount
		totalProgressive += c.ProgressivePassCount
		if c.ShotTaken {
			shots++
		}
		if c.Outcome == OutcomeGoal {
			goals++
		}
		if c.Outcome == OutcomeLoss {
			losses++
		}
		if c.FromTransition {
			s.TransitionChains++
			if c.ShotTaken {
				transShots++
			}
			if c.Outcome == OutcomeGoal {
				transGoal++
			}
		}
		if c.EnteredFinalThird {
			finals++
		}
		if c.EnteredBox {
			boxes++
		}
		switch c.BuildUpSpeed {
		case SpeedFast:
			s.FastBuildUps++
		case SpeedSlow:
			s.SlowBuildUps++
		}
	}

	if s.TotalChains == 0 {
		return Stats{}
	}

	n := float64(s.TotalChains)
	s.AvgDurationMs = float64(totalDuration) / n
	s.AvgPassesPerChain = float64(totalPasses) / n
	s.ShotRate = float64(shots) / n
	s.GoalRate = float64(goals) / n
	s.LossRate = float64(losses) / n
	if s.TransitionChains > 0 {
		s.TransitionToShotRate = float64(transShots) / float64(s.TransitionChains)
		s.TransitionToGoalRate = float64(transGoal) / float64(s.TransitionChains)
	}
	s.FinalThirdEntryRate = float64(finals) / n
	s.BoxEntryRate = float64(boxes) / n
	if totalPasses > 0 {
		s.ProgressivePassRate = float64(totalProgressive) / float64(totalPasses)
	}
	return s
}
