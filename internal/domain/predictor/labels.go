package predictor

import "strings"

// placeholderLabel is shown for event names outside the known vocabulary.
const placeholderLabel = "EVENT"

type uiLabel struct {
	label       string
	description string
}

// uiLabels maps event names to the button label and description the
// tagging UI renders on prediction chips.
var uiLabels = map[string]uiLabel{
	"pass_start":           {"PASS", "Pass started"},
	"pass_end":             {"RECEIVE", "Pass received"},
	"carry_start":          {"CARRY", "Ball carried forward"},
	"interception":         {"INT", "Interception"},
	"turnover":             {"TURNOVER", "Possession lost"},
	"shot_start":           {"SHOT", "Shot taken"},
	"goal":                 {"GOAL", "Goal scored"},
	"clearance":            {"CLEAR", "Ball cleared"},
	"foul":                 {"FOUL", "Foul committed"},
	"offside":              {"OFFSIDE", "Offside flagged"},
	"free_kick":            {"FK", "Free kick awarded"},
	"penalty":              {"PEN", "Penalty awarded"},
	"corner_start":         {"CORNER", "Corner kick"},
	"final_third_entry":    {"F3 ENTRY", "Entry into the final third"},
	"switch_of_play":       {"SWITCH", "Switch of play"},
	"pressing_trigger":     {"PRESS", "Pressing trigger"},
	"dangerous_attack":     {"DANGER", "Dangerous attack"},
	"big_chance":           {"BIG CHANCE", "Big chance created"},
	"transition_off_start": {"TRANS OFF", "Offensive transition"},
	"transition_def_start": {"TRANS DEF", "Defensive transition"},
	"phase_highpress":      {"HIGH PRESS", "High pressing phase"},
	"phase_lowblock":       {"LOW BLOCK", "Low block phase"},
	"phase_buildup_end":    {"BUILD-UP", "Build-up phase"},
	"phase_consolidation":  {"CONSOLIDATE", "Consolidation phase"},
	"phase_final_third":    {"FINAL THIRD", "Final third phase"},
}

func labelFor(name string) string {
	if l, ok := uiLabels[name]; ok {
		return l.label
	}
	return placeholderLabel
}

func describe(name string) string {
	if l, ok := uiLabels[name]; ok {
		return l.description
	}
	return strings.ReplaceAll(name, "_", " ")
}
