//go:build linux

package lifecycle

import (
	"testing"

	"github.com/godbus/dbus/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSleepState(t *testing.T) {
	Convey("sleepState", t, func() {
		name := login1Interface + "." + login1Member

		state, ok := sleepState(&dbus.Signal{Name: name, Body: []interface{}{true}})
		So(ok, ShouldBeTrue)
		So(state, ShouldEqual, Background)

		state, ok = sleepState(&dbus.Signal{Name: name, Body: []interface{}{false}})
		So(ok, ShouldBeTrue)
		So(state, ShouldEqual, Foreground)

		_, ok = sleepState(&dbus.Signal{Name: "org.freedesktop.login1.Manager.SessionNew", Body: []interface{}{true}})
		So(ok, ShouldBeFalse)

		_, ok = sleepState(&dbus.Signal{Name: name, Body: []interface{}{"yes"}})
		So(ok, ShouldBeFalse)

		_, ok = sleepState(nil)
		So(ok, ShouldBeFalse)
	})
}
