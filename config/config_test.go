package config

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/filesystem"
	"github.com/vidtune-cli/vidtune/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Every registered default is visible through viper", func() {
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Playback timings default to the documented values", func() {
			So(Duration(key.PlaybackTransitionWindowMs), ShouldEqual, 100*time.Millisecond)
			So(Duration(key.PlaybackReadyGraceMs), ShouldEqual, 100*time.Millisecond)
			So(Duration(key.PlaybackTimeQueryTimeoutMs), ShouldEqual, 2500*time.Millisecond)
			So(viper.GetInt(key.PlaybackMaxRetries), ShouldEqual, 3)
			So(viper.GetInt(key.PlaybackSaveIntervalSeconds), ShouldEqual, 5)
		})

		Convey("Environment variables override defaults", func() {
			t.Setenv("VIDTUNE_PLAYBACK_MAX_RETRIES", "5")
			So(viper.GetInt(key.PlaybackMaxRetries), ShouldEqual, 5)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("playback.max_retries"), ShouldEqual, "playback_max_retries")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.PositionsBackend]

		Convey("Env is prefixed with the app name", func() {
			So(field.Env(), ShouldEqual, "VIDTUNE_POSITIONS_BACKEND")
		})

		Convey("It marshals with its type and default", func() {
			data, err := json.Marshal(&field)
			So(err, ShouldBeNil)

			var decoded map[string]any
			So(json.Unmarshal(data, &decoded), ShouldBeNil)
			So(decoded["key"], ShouldEqual, key.PositionsBackend)
			So(decoded["default"], ShouldEqual, "file")
			So(decoded["type"], ShouldEqual, "string")
			So(decoded["choices"], ShouldContain, "sqlite")
		})

		Convey("Section is the key prefix", func() {
			So(field.Section(), ShouldEqual, "positions")
		})

		Convey("Only listed backends are accepted", func() {
			So(field.Accepts("sqlite"), ShouldBeTrue)
			So(field.Accepts("redis"), ShouldBeFalse)
		})

		Convey("Pretty names the choices", func() {
			So(field.Pretty(), ShouldContainSubstring, "sqlite")
		})
	})

	Convey("Fields without choices accept anything", t, func() {
		field := Default[key.PlayerBinary]
		So(field.Accepts("/opt/mpv/bin/mpv"), ShouldBeTrue)
	})
}
