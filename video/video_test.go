package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeID(t *testing.T) {
	Convey("NormalizeID", t, func() {
		Convey("Keeps digit-only identifiers", func() {
			id, ok := NormalizeID("123456789")
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "123456789")
		})

		Convey("Strips every non-digit", func() {
			id, ok := NormalizeID(" 12-34 56/78 ")
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "12345678")
		})

		Convey("Rejects short or non-numeric input", func() {
			_, ok := NormalizeID("ab")
			So(ok, ShouldBeFalse)

			_, ok = NormalizeID("12345")
			So(ok, ShouldBeFalse)

			_, ok = NormalizeID("")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Parse", t, func() {
		So(Parse("76979871"), ShouldResemble, Video{ID: "76979871"})
		So(Parse("76979871: Night drive"), ShouldResemble, Video{ID: "76979871", Title: "Night drive"})
		So(Parse("https://vimeo.com/76979871"), ShouldResemble, Video{ID: "76979871"})
		So(Parse("https://player.vimeo.com/video/76979871?h=8272103f6e"), ShouldResemble, Video{ID: "76979871"})
	})
}

func TestLookup(t *testing.T) {
	Convey("Given an oEmbed endpoint", t, func() {
		var asked string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			asked = r.URL.Query().Get("url")
			if strings.HasSuffix(asked, "/404404404") {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`{"type":"video","title":"Night drive","duration":312,"video_id":76979871}`))
		}))
		Reset(srv.Close)

		Convey("Title and duration are returned", func() {
			v, err := Lookup(context.Background(), srv.URL, "76979871")
			So(err, ShouldBeNil)
			So(v, ShouldResemble, Video{ID: "76979871", Title: "Night drive", DurationSeconds: 312})
			So(asked, ShouldEqual, "https://vimeo.com/76979871")
		})

		Convey("Unknown videos are an error", func() {
			_, err := Lookup(context.Background(), srv.URL, "404404404")
			So(err, ShouldNotBeNil)
		})
	})
}
