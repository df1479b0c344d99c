package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidtune-cli/vidtune/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	backends := map[string]func() Store{
		"memory": func() Store { return NewMemory() },
		"file": func() Store {
			return NewFile(filepath.Join("/state", t.Name(), "positions.json"))
		},
		"sqlite": func() Store {
			s, err := NewSQLite(":memory:")
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
	}

	for name, open := range backends {
		Convey("Given the "+name+" store", t, func() {
			filesystem.SetMemMapFs()
			store := open()
			Reset(func() { _ = store.Close() })

			Convey("A missing key is reported without an error", func() {
				_, ok, err := store.GetItem(ctx, "position:123456")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("When an item is set", func() {
				So(store.SetItem(ctx, "position:123456", "42"), ShouldBeNil)

				Convey("It can be read back", func() {
					v, ok, err := store.GetItem(ctx, "position:123456")
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
					So(v, ShouldEqual, "42")
				})

				Convey("Setting it again overwrites the value", func() {
					So(store.SetItem(ctx, "position:123456", "43"), ShouldBeNil)
					v, _, _ := store.GetItem(ctx, "position:123456")
					So(v, ShouldEqual, "43")
				})

				Convey("It is listed by Keys", func() {
					keys, err := store.Keys(ctx)
					So(err, ShouldBeNil)
					So(keys, ShouldContain, "position:123456")
				})

				Convey("RemoveItem deletes it", func() {
					So(store.RemoveItem(ctx, "position:123456"), ShouldBeNil)
					_, ok, err := store.GetItem(ctx, "position:123456")
					So(err, ShouldBeNil)
					So(ok, ShouldBeFalse)
				})
			})

			Convey("Removing a missing key is not an error", func() {
				So(store.RemoveItem(ctx, "nope"), ShouldBeNil)
			})
		})
	}
}

func TestOpen(t *testing.T) {
	Convey("Open", t, func() {
		Convey("Rejects unknown backends", func() {
			_, err := Open("redis")
			So(errors.Is(err, ErrUnknownBackend), ShouldBeTrue)
		})

		Convey("Returns the memory backend", func() {
			s, err := Open(BackendMemory)
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &Memory{})
		})

		Convey("Defaults to the file backend", func() {
			s, err := Open("")
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &File{})
		})
	})
}
