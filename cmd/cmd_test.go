package cmd

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidtune-cli/vidtune/config"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/vidtune-cli/vidtune/position"
	"github.com/vidtune-cli/vidtune/video"
)

func TestParseVideos(t *testing.T) {
	Convey("parseVideos", t, func() {
		Convey("Normalizes every accepted form", func() {
			videos, err := parseVideos([]string{
				"76979871",
				"https://player.vimeo.com/video/22439234?h=8272103f6e",
				"1084537: Intro",
			})
			So(err, ShouldBeNil)
			So(videos, ShouldResemble, []video.Video{
				{ID: "76979871"},
				{ID: "22439234"},
				{ID: "1084537", Title: "Intro"},
			})
		})

		Convey("Rejects arguments without an id", func() {
			_, err := parseVideos([]string{"76979871", "hello"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "hello")
		})
	})
}

func TestFormatOffset(t *testing.T) {
	Convey("formatOffset", t, func() {
		So(formatOffset(0), ShouldEqual, "0:00")
		So(formatOffset(65.9), ShouldEqual, "1:05")
		So(formatOffset(3725), ShouldEqual, "1:02:05")
	})
}

func TestErrUnknownVideo(t *testing.T) {
	Convey("errUnknownVideo suggests the closest saved id", t, func() {
		known := []position.StoredPosition{{VideoID: "76979871"}, {VideoID: "22439234"}}
		err := errUnknownVideo("7697987", known)
		So(err.Error(), ShouldContainSubstring, "76979871")

		So(errUnknownVideo("7697987", nil).Error(), ShouldNotContainSubstring, "did you mean")
	})
}

func TestParseValue(t *testing.T) {
	Convey("parseValue", t, func() {
		Convey("Converts to the type of the default", func() {
			v, err := parseValue(config.Default[key.PlaybackMaxRetries], "5")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 5)

			v, err = parseValue(config.Default[key.PlayerMuted], "true")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, true)
		})

		Convey("Rejects malformed numbers and booleans", func() {
			_, err := parseValue(config.Default[key.PlaybackMaxRetries], "three")
			So(err, ShouldNotBeNil)

			_, err = parseValue(config.Default[key.PlayerMuted], "maybe")
			So(err, ShouldNotBeNil)
		})

		Convey("Rejects values outside the choices", func() {
			_, err := parseValue(config.Default[key.PositionsBackend], "redis")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "sqlite")
		})
	})
}
