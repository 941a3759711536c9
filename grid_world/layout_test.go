package grid_world

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFromLayout(t *testing.T) {
	Convey("When the debug layout is converted", t, func() {
		grid, err := FromLayout(DebugLayout)
		So(err, ShouldBeNil)

		So(grid.Rows(), ShouldEqual, len(DebugLayout))
		So(grid.Cols(), ShouldEqual, len(DebugLayout[0]))
		So(grid.Start(), ShouldResemble, Coord{Row: 2, Col: 2})
		So(grid.Finish(), ShouldResemble, Coord{Row: 2, Col: 8})
		So(len(grid.Walls()), ShouldEqual, 5)

		Convey("It renders back to the same layout", func() {
			So(grid.Render(nil, nil), ShouldResemble, DebugLayout)
		})
	})

	Convey("When an overlay is rendered", t, func() {
		grid, err := FromLayout([]string{
			"SooF",
			"oWoo",
		})
		So(err, ShouldBeNil)

		visited := []Coord{{0, 0}, {0, 1}, {1, 0}, {0, 2}, {1, 2}, {0, 3}}
		path := []Coord{{0, 0}, {0, 1}, {0, 2}, {0, 3}}
		So(grid.Render(visited, path), ShouldResemble, []string{
			"S**F",
			".W.o",
		})
	})

	Convey("When a layout is malformed", t, func() {
		_, err := FromLayout(nil)
		So(errors.Is(err, ErrLayout), ShouldBeTrue)

		_, err = FromLayout([]string{"SoF", "oo"})
		So(errors.Is(err, ErrLayout), ShouldBeTrue)

		_, err = FromLayout([]string{"SoX", "ooF"})
		So(errors.Is(err, ErrLayout), ShouldBeTrue)

		_, err = FromLayout([]string{"Sooo", "oooo"})
		So(errors.Is(err, ErrLayout), ShouldBeTrue)

		_, err = FromLayout([]string{"SoSF"})
		So(errors.Is(err, ErrLayout), ShouldBeTrue)
	})
}
