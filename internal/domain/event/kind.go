package event

import "strings"

// Kind is one entry of the closed tag vocabulary. Raw names outside the
// vocabulary map to KindUnrecognized and only touch state metadata.
type Kind string

// The recognized vocabulary.
const (
	KindUnrecognized Kind = ""

	KindInterception       Kind = "interception"
	KindTurnover           Kind = "turnover"
	KindTransitionOffStart Kind = "transition_off_start"
	KindTransitionDefStart Kind = "transition_def_start"
	KindFinalThirdEntry    Kind = "final_third_entry"
	KindSwitchOfPlay       Kind = "switch_of_play"
	KindPressingTrigger    Kind = "pressing_trigger"
	KindPhaseHighPress     Kind = "phase_highpress"
	KindPhaseLowBlock      Kind = "phase_lowblock"
	KindPhaseBuildUpEnd    Kind = "phase_buildup_end"
	KindPhaseConsolidation Kind = "phase_consolidation"
	KindPhaseFinalThird    Kind = "phase_final_third"
	KindDangerousAttack    Kind = "dangerous_attack"
	KindBigChance          Kind = "big_chance"
	KindShotStart          Kind = "shot_start"
	KindFreeKick           Kind = "free_kick"
	KindPenalty            Kind = "penalty"
	KindCornerStart        Kind = "corner_start"
	KindFoul               Kind = "foul"
	KindPassStart          Kind = "pass_start"
	KindPassEnd            Kind = "pass_end"
	KindCarryStart         Kind = "carry_start"
	KindClearance          Kind = "clearance"
	KindGoal               Kind = "goal"
	KindOffside            Kind = "offside"
)

var kinds = map[string]Kind{
	string(KindInterception):       KindInterception,
	string(KindTurnover):           KindTurnover,
	string(KindTransitionOffStart): KindTransitionOffStart,
	string(KindTransitionDefStart): KindTransitionDefStart,
	string(KindFinalThirdEntry):    KindFinalThirdEntry,
	string(KindSwitchOfPlay):       KindSwitchOfPlay,
	string(KindPressingTrigger):    KindPressingTrigger,
	string(KindPhaseHighPress):     KindPhaseHighPress,
	string(KindPhaseLowBlock):      KindPhaseLowBlock,
	string(KindPhaseBuildUpEnd):    KindPhaseBuildUpEnd,
	string(KindPhaseConsolidation): KindPhaseConsolidation,
	string(KindPhaseFinalThird):    KindPhaseFinalThird,
	string(KindDangerousAttack):    KindDangerousAttack,
	string(KindBigChance):          KindBigChance,
	string(KindShotStart):          KindShotStart,
	string(KindFreeKick):           KindFreeKick,
	string(KindPenalty):            KindPenalty,
	string(KindCornerStart):        KindCornerStart,
	string(KindFoul):               KindFoul,
	string(KindPassStart):          KindPassStart,
	string(KindPassEnd):            KindPassEnd,
	string(KindCarryStart):         KindCarryStart,
	string(KindClearance):          KindClearance,
	string(KindGoal):               KindGoal,
	string(KindOffside):            KindOffside,
}

// KindOf maps a raw tag name onto the vocabulary. Unknown names yield
// KindUnrecognized.
func KindOf(name string) Kind {
	return kinds[name]
}

// IsPass reports whether the kind starts or completes a pass.
func (k Kind) IsPass() bool {
	return k == KindPassStart || k == KindPassEnd
}

// IsUIControl reports whether a raw tag name is a client UI control signal
// rather than a match event. Controls carry the "ui_" prefix and are
// excluded from pattern learning.
func IsUIControl(name string) bool {
	return strings.HasPrefix(name, "ui_")
}
