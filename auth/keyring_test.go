package auth

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/zalando/go-keyring"
)

func TestKeyring(t *testing.T) {
	Convey("Given a mock keyring", t, func() {
		keyring.MockInit()
		Reset(func() { viper.Set(key.AuthToken, "") })

		Convey("No token reads as empty", func() {
			token, err := GetToken()
			So(err, ShouldBeNil)
			So(token, ShouldBeEmpty)
		})

		Convey("A stored token is returned trimmed", func() {
			So(SetToken("  secret\n"), ShouldBeNil)
			token, err := GetToken()
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "secret")

			Convey("and can be deleted twice", func() {
				So(DeleteToken(), ShouldBeNil)
				So(DeleteToken(), ShouldBeNil)
				token, _ := GetToken()
				So(token, ShouldBeEmpty)
			})
		})

		Convey("The provider prefers the configured token", func() {
			So(SetToken("from-keyring"), ShouldBeNil)

			token, err := Provider{}.CurrentToken(context.Background())
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "from-keyring")

			viper.Set(key.AuthToken, "from-config")
			token, err = Provider{}.CurrentToken(context.Background())
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "from-config")
		})
	})
}
