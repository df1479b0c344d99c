package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidtune-cli/vidtune/filesystem"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "position", "positions"), ShouldEqual, "1 position")
		So(Quantify(2, "position", "positions"), ShouldEqual, "2 positions")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(7, 0, 5), ShouldEqual, 5)
		So(Clamp(-1, 0, 5), ShouldEqual, 0)
		So(Clamp(3, 0, 5), ShouldEqual, 3)
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a directory on the in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()
		So(filesystem.API().MkdirAll("/tmp/vidtune/sockets", 0o755), ShouldBeNil)
		So(filesystem.API().WriteFile("/tmp/vidtune/sockets/a.sock", []byte("abcd"), 0o644), ShouldBeNil)

		Convey("Delete removes it recursively and reports its size", func() {
			size, err := Delete("/tmp/vidtune")
			So(err, ShouldBeNil)
			So(size, ShouldEqual, 4)
			exists, _ := filesystem.API().Exists("/tmp/vidtune/sockets/a.sock")
			So(exists, ShouldBeFalse)
		})

		Convey("Delete reports a missing path", func() {
			_, err := Delete("/nope")
			So(err, ShouldNotBeNil)
		})
	})
}
