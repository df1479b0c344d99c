package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	Convey("command picks the handler of each platform", t, func() {
		cmd, ok := command("linux", "https://vimeo.com/76979871")
		So(ok, ShouldBeTrue)
		So(cmd.Args, ShouldResemble, []string{"xdg-open", "https://vimeo.com/76979871"})

		cmd, ok = command("darwin", "https://vimeo.com/76979871")
		So(ok, ShouldBeTrue)
		So(cmd.Args[0], ShouldEqual, "open")

		_, ok = command("plan9", "https://vimeo.com/76979871")
		So(ok, ShouldBeFalse)
	})
}
