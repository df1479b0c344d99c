package position

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidtune-cli/vidtune/kv"
)

// failingStore fails every operation.
type failingStore struct{ kv.Memory }

var errBroken = errors.New("disk on fire")

func (*failingStore) GetItem(context.Context, string) (string, bool, error) { return "", false, errBroken }
func (*failingStore) SetItem(context.Context, string, string) error        { return errBroken }

func TestStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		items := kv.NewMemory()
		store := New(items)
		clock := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return clock }

		Convey("Load of an unknown video is 0", func() {
			So(store.Load(ctx, "123456789"), ShouldEqual, 0)
		})

		Convey("When a position is saved", func() {
			store.Save(ctx, "123456789", 42.5, SaveOptions{})

			Convey("Load returns it", func() {
				So(store.Load(ctx, "123456789"), ShouldEqual, 42.5)
			})

			Convey("The record carries the id and the save time", func() {
				p, ok, err := store.Get(ctx, "123456789")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(p.VideoID, ShouldEqual, "123456789")
				So(p.SavedAt.Equal(clock), ShouldBeTrue)
			})

			Convey("Reset sets it back to 0 without deleting it", func() {
				store.Reset(ctx, "123456789")
				So(store.Load(ctx, "123456789"), ShouldEqual, 0)
				_, ok, _ := store.Get(ctx, "123456789")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("Negative offsets are stored as 0", func() {
			store.Save(ctx, "123456789", -3, SaveOptions{Immediate: true})
			So(store.Load(ctx, "123456789"), ShouldEqual, 0)
		})

		Convey("List orders records by save time", func() {
			store.Save(ctx, "111111", 1, SaveOptions{})
			clock = clock.Add(time.Minute)
			store.Save(ctx, "222222", 2, SaveOptions{})

			positions, err := store.List(ctx)
			So(err, ShouldBeNil)
			So(len(positions), ShouldEqual, 2)
			So(positions[0].VideoID, ShouldEqual, "222222")
			So(positions[1].VideoID, ShouldEqual, "111111")
		})
	})

	Convey("Given a legacy entry", t, func() {
		items := kv.NewMemory()
		So(items.SetItem(ctx, "lastPosition_123456789", "73.25"), ShouldBeNil)
		store := New(items)

		Convey("The first Load migrates it", func() {
			So(store.Load(ctx, "123456789"), ShouldEqual, 73.25)

			_, legacy, _ := items.GetItem(ctx, "lastPosition_123456789")
			So(legacy, ShouldBeFalse)
			_, canonical, _ := items.GetItem(ctx, "position:123456789")
			So(canonical, ShouldBeTrue)
		})

		Convey("An existing canonical entry wins", func() {
			store.Save(ctx, "123456789", 10, SaveOptions{})
			store.migrated = make(map[string]struct{})

			So(store.Load(ctx, "123456789"), ShouldEqual, 10)
			_, legacy, _ := items.GetItem(ctx, "lastPosition_123456789")
			So(legacy, ShouldBeFalse)
		})

		Convey("Migrate converts every legacy entry", func() {
			So(items.SetItem(ctx, "lastPosition_987654", "5"), ShouldBeNil)

			n, err := store.Migrate(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
			So(store.Load(ctx, "987654"), ShouldEqual, 5)
		})
	})

	Convey("Given a broken backing store", t, func() {
		store := New(&failingStore{})

		Convey("Save swallows the failure", func() {
			So(func() { store.Save(ctx, "123456789", 1, SaveOptions{Immediate: true}) }, ShouldNotPanic)
		})

		Convey("Load falls back to 0", func() {
			So(store.Load(ctx, "123456789"), ShouldEqual, 0)
		})
	})
}
