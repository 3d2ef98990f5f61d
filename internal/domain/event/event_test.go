package event

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKindOf(t *testing.T) {
	Convey("Given the tag vocabulary", t, func() {
		Convey("When mapping recognized names", func() {
			Convey("Then each resolves to its kind", func() {
				So(KindOf("interception"), ShouldEqual, KindInterception)
				So(KindOf("turnover"), ShouldEqual, KindTurnover)
				So(KindOf("pass_start"), ShouldEqual, KindPassStart)
				So(KindOf("penalty"), ShouldEqual, KindPenalty)
				So(KindOf("phase_buildup_end"), ShouldEqual, KindPhaseBuildUpEnd)
			})
		})

		Convey("When mapping an unrecognized name", func() {
			Convey("Then it yields the unrecognized kind", func() {
				So(KindOf("throw_in"), ShouldEqual, KindUnrecognized)
				So(KindOf(""), ShouldEqual, KindUnrecognized)
			})
		})
	})
}

func TestKindIsPass(t *testing.T) {
	Convey("Given pass and non-pass kinds", t, func() {
		Convey("Then only pass starts and completions qualify", func() {
			So(KindPassStart.IsPass(), ShouldBeTrue)
			So(KindPassEnd.IsPass(), ShouldBeTrue)
			So(KindCarryStart.IsPass(), ShouldBeFalse)
			So(KindShotStart.IsPass(), ShouldBeFalse)
			So(KindUnrecognized.IsPass(), ShouldBeFalse)
		})
	})
}

func TestIsUIControl(t *testing.T) {
	Convey("Given raw tag names", t, func() {
		Convey("Then ui_ prefixed names are control signals", func() {
			So(IsUIControl("ui_button_press"), ShouldBeTrue)
			So(IsUIControl("ui_undo"), ShouldBeTrue)
			So(IsUIControl("pass_start"), ShouldBeFalse)
			So(IsUIControl("gui_click"), ShouldBeFalse)
		})
	})
}

func TestTeam(t *testing.T) {
	Convey("Given the two sides", t, func() {
		Convey("Then opponents pair up", func() {
			So(TeamA.Opponent(), ShouldEqual, TeamB)
			So(TeamB.Opponent(), ShouldEqual, TeamA)
			So(TeamNone.Opponent(), ShouldEqual, TeamNone)
		})

		Convey("Then only named sides are valid", func() {
			So(TeamA.Valid(), ShouldBeTrue)
			So(TeamB.Valid(), ShouldBeTrue)
			So(TeamNone.Valid(), ShouldBeFalse)
			So(Team("TEAM_C").Valid(), ShouldBeFalse)
		})
	})
}

func TestTaggedEventJSON(t *testing.T) {
	Convey("Given a tagged event from a client", t, func() {
		raw := `{
			"id": 42,
			"eventName": "final_third_entry",
			"team": "TEAM_A",
			"timestamp": "2025-03-01T20:15:04Z",
			"matchTime": "23:41",
			"zone": 14,
			"player": {"id": 9, "name": "Nunez"}
		}`

		Convey("When decoding it", func() {
			var ev TaggedEvent
			err := json.Unmarshal([]byte(raw), &ev)

			Convey("Then all fields land", func() {
				So(err, ShouldBeNil)
				So(ev.ID, ShouldEqual, 42)
				So(ev.EventName, ShouldEqual, "final_third_entry")
				So(ev.Team, ShouldEqual, TeamA)
				So(ev.MatchTime, ShouldEqual, "23:41")
				So(ev.Zone, ShouldEqual, 14)
				So(ev.Player, ShouldNotBeNil)
				So(ev.Player.Name, ShouldEqual, "Nunez")
				So(ev.Kind(), ShouldEqual, KindFinalThirdEntry)
			})
		})

		Convey("When optional fields are absent", func() {
			var ev TaggedEvent
			err := json.Unmarshal([]byte(`{"id":1,"eventName":"goal","team":"TEAM_B"}`), &ev)

			Convey("Then they stay at their zero values", func() {
				So(err, ShouldBeNil)
				So(ev.Zone, ShouldEqual, 0)
				So(ev.Player, ShouldBeNil)
				So(ev.VideoTime, ShouldEqual, 0)
			})
		})
	})
}
