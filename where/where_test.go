package where

import (
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidtune-cli/vidtune/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Config() honors the override variable", func() {
			t.Setenv(EnvConfigPath, filepath.Join("custom", "vidtune"))
			So(Config(), ShouldEqual, filepath.Join("custom", "vidtune"))
			So(lo.Must(filesystem.API().IsDir(Config())), ShouldBeTrue)
		})

		Convey("Logs()", func() {
			path := Logs()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Positions() and Database() live in the config dir", func() {
			So(filepath.Dir(Positions()), ShouldEqual, Config())
			So(filepath.Dir(Database()), ShouldEqual, Config())
		})

		Convey("Temp()", func() {
			So(lo.Must(filesystem.API().IsDir(Temp())), ShouldBeTrue)
		})

		Convey("Videos() lives in the cache dir", func() {
			So(filepath.Dir(Videos()), ShouldEqual, Cache())
			So(lo.Must(filesystem.API().IsDir(Videos())), ShouldBeTrue)
		})
	})
}
