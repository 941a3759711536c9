package pathfinding

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"pathviz/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

type coord = grid_world.Coord

func mustGrid(rows, cols int, start, finish coord, walls ...coord) *grid_world.Grid {
	grid, err := grid_world.NewGrid(rows, cols, start, finish)
	if err != nil {
		panic(err)
	}
	for _, wall := range walls {
		if grid, err = grid.ToggleWall(wall.Row, wall.Col); err != nil {
			panic(err)
		}
	}
	return grid
}

// Random walls with the given density, never on the markers.
func randomGrid(r *rand.Rand, rows, cols int, density float64) *grid_world.Grid {
	start := coord{Row: r.Intn(rows), Col: r.Intn(cols)}
	finish := coord{Row: r.Intn(rows), Col: r.Intn(cols)}
	grid := mustGrid(rows, cols, start, finish)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			c := coord{Row: row, Col: col}
			if c == start || c == finish || r.Float64() >= density {
				continue
			}
			grid, _ = grid.ToggleWall(row, col)
		}
	}
	return grid
}

// bfsDistances is an independent oracle for unit-weight shortest distances.
func bfsDistances(grid *grid_world.Grid, start coord) map[coord]int {
	dist := map[coord]int{start: 0}
	queue := []coord{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range directions {
			next := coord{Row: cur.Row + d.Row, Col: cur.Col + d.Col}
			if !grid.InBounds(next) || grid.Node(next).IsWall {
				continue
			}
			if _, seen := dist[next]; !seen {
				dist[next] = dist[cur] + 1
				queue = append(queue, next)
			}
		}
	}
	return dist
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func TestSearch(t *testing.T) {
	Convey("When start and finish are the only cell", t, func() {
		grid := mustGrid(1, 1, coord{}, coord{})
		result, err := Search(grid, coord{}, coord{})
		So(err, ShouldBeNil)
		So(result.VisitedCoords(), ShouldResemble, []coord{{}})
		So(result.PathCoords(), ShouldResemble, []coord{{}})
		So(result.Found, ShouldBeTrue)
	})

	Convey("When the grid is a single open row", t, func() {
		grid := mustGrid(1, 5, coord{Row: 0, Col: 0}, coord{Row: 0, Col: 4})
		result, err := Search(grid, grid.Start(), grid.Finish())
		So(err, ShouldBeNil)

		expected := []coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 0, Col: 3}, {Row: 0, Col: 4}}
		So(result.PathCoords(), ShouldResemble, expected)
		So(result.VisitedCoords(), ShouldResemble, expected)
		So(result.Visited[len(result.Visited)-1].Coord(), ShouldResemble, grid.Finish())
	})

	Convey("When a wall separates start from finish", t, func() {
		grid := mustGrid(3, 3, coord{Row: 0, Col: 0}, coord{Row: 2, Col: 2},
			coord{Row: 0, Col: 2}, coord{Row: 1, Col: 1}, coord{Row: 2, Col: 0})
		result, err := Search(grid, grid.Start(), grid.Finish())
		So(err, ShouldBeNil)

		So(result.Path, ShouldBeEmpty)
		So(result.Found, ShouldBeFalse)
		So(result.VisitedCoords(), ShouldResemble, []coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}})
		So(math.IsInf(result.Distance(grid.Finish()), 1), ShouldBeTrue)
		So(result.Grid().Node(coord{Row: 1, Col: 2}).IsVisited, ShouldBeFalse)
	})

	Convey("When ties occur, they resolve in row-major order", t, func() {
		grid := mustGrid(2, 3, coord{Row: 0, Col: 0}, coord{Row: 1, Col: 2})
		result, err := Search(grid, grid.Start(), grid.Finish())
		So(err, ShouldBeNil)

		So(result.VisitedCoords(), ShouldResemble, []coord{
			{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 0, Col: 2}, {Row: 1, Col: 1}, {Row: 1, Col: 2},
		})
		So(result.PathCoords(), ShouldResemble, []coord{
			{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 2},
		})
	})

	Convey("When the search routes around a wall", t, func() {
		grid, err := grid_world.FromLayout([]string{
			"SoWoF",
			"ooWoo",
			"ooooo",
		})
		So(err, ShouldBeNil)
		result, err := Search(grid, grid.Start(), grid.Finish())
		So(err, ShouldBeNil)

		So(result.Found, ShouldBeTrue)
		So(len(result.Path), ShouldEqual, 9)
		So(result.Distance(grid.Finish()), ShouldEqual, 8.0)
		for _, node := range result.Path {
			So(node.IsWall, ShouldBeFalse)
		}
	})
}

func TestSearchPreconditions(t *testing.T) {
	Convey("When endpoints are invalid", t, func() {
		grid := mustGrid(3, 3, coord{Row: 0, Col: 0}, coord{Row: 2, Col: 2}, coord{Row: 1, Col: 1})

		_, err := Search(grid, coord{Row: -1, Col: 0}, grid.Finish())
		So(errors.Is(err, ErrInvalidEndpoint), ShouldBeTrue)
		So(errors.Is(err, grid_world.ErrOutOfBounds), ShouldBeTrue)

		_, err = Search(grid, grid.Start(), coord{Row: 1, Col: 1})
		So(errors.Is(err, ErrInvalidEndpoint), ShouldBeTrue)
		So(errors.Is(err, grid_world.ErrWallOccupied), ShouldBeTrue)
	})
}

func TestSearchProperties(t *testing.T) {
	Convey("On open grids the path length is the Manhattan distance plus one", t, func() {
		r := rand.New(rand.NewSource(7))
		for i := 0; i < 50; i++ {
			rows, cols := 1+r.Intn(8), 1+r.Intn(8)
			start := coord{Row: r.Intn(rows), Col: r.Intn(cols)}
			finish := coord{Row: r.Intn(rows), Col: r.Intn(cols)}
			grid := mustGrid(rows, cols, start, finish)

			result, err := Search(grid, start, finish)
			So(err, ShouldBeNil)
			So(len(result.Path), ShouldEqual, abs(start.Row-finish.Row)+abs(start.Col-finish.Col)+1)
			So(result.Path[0].Coord(), ShouldResemble, start)
			So(result.Path[len(result.Path)-1].Coord(), ShouldResemble, finish)
		}
	})

	Convey("On random grids", t, func() {
		r := rand.New(rand.NewSource(42))
		for i := 0; i < 100; i++ {
			grid := randomGrid(r, 2+r.Intn(10), 2+r.Intn(12), 0.3)
			start, finish := grid.Start(), grid.Finish()
			before := grid.Clone()

			result, err := Search(grid, start, finish)
			So(err, ShouldBeNil)

			oracle := bfsDistances(grid, start)
			want, reachable := oracle[finish]

			// Path is empty exactly when finish stays at infinite distance.
			So(len(result.Path) == 0, ShouldEqual, math.IsInf(result.Distance(finish), 1))
			So(result.Found, ShouldEqual, reachable)

			seen := map[coord]bool{}
			for _, node := range result.Visited {
				So(seen[node.Coord()], ShouldBeFalse)
				seen[node.Coord()] = true
				So(node.IsWall, ShouldBeFalse)
				So(node.Distance, ShouldEqual, float64(oracle[node.Coord()]))
			}

			if reachable {
				So(result.Visited[len(result.Visited)-1].Coord(), ShouldResemble, finish)
				So(len(result.Path), ShouldEqual, want+1)

				// The Previous chain reaches start in len(path)-1 steps.
				steps := 0
				for cur := result.Grid().Node(finish); cur.Previous != nil; cur = result.Grid().Node(*cur.Previous) {
					steps++
					So(steps, ShouldBeLessThan, len(result.Path))
				}
				So(steps, ShouldEqual, len(result.Path)-1)

				// Consecutive path nodes are adjacent.
				for j := 1; j < len(result.Path); j++ {
					a, b := result.Path[j-1], result.Path[j]
					So(abs(a.Row-b.Row)+abs(a.Col-b.Col), ShouldEqual, 1)
				}
			} else {
				// Everything reachable was visited.
				So(len(result.Visited), ShouldEqual, len(oracle))
			}

			// The caller's grid is untouched.
			So(grid, ShouldResemble, before)
		}
	})

	Convey("Searching the same snapshot twice yields identical orders", t, func() {
		r := rand.New(rand.NewSource(3))
		grid := randomGrid(r, 20, 50, 0.25)

		first, err := Search(grid, grid.Start(), grid.Finish())
		So(err, ShouldBeNil)
		second, err := Search(grid, grid.Start(), grid.Finish())
		So(err, ShouldBeNil)

		So(second.VisitedCoords(), ShouldResemble, first.VisitedCoords())
		So(second.PathCoords(), ShouldResemble, first.PathCoords())
	})

	Convey("The heap and scan frontiers produce identical orders", t, func() {
		r := rand.New(rand.NewSource(11))
		for i := 0; i < 40; i++ {
			grid := randomGrid(r, 2+r.Intn(15), 2+r.Intn(20), 0.2)

			fast, err := Search(grid, grid.Start(), grid.Finish())
			So(err, ShouldBeNil)
			slow, err := Search(grid, grid.Start(), grid.Finish(), WithFrontier(ScanFrontier))
			So(err, ShouldBeNil)

			So(fast.VisitedCoords(), ShouldResemble, slow.VisitedCoords())
			So(fast.PathCoords(), ShouldResemble, slow.PathCoords())
		}
	})
}

func TestPathOrder(t *testing.T) {
	Convey("When finish was never visited", t, func() {
		grid := mustGrid(2, 2, coord{Row: 0, Col: 0}, coord{Row: 1, Col: 1})
		So(PathOrder(grid, grid.Finish()), ShouldBeEmpty)
		So(PathOrder(grid, coord{Row: 5, Col: 5}), ShouldBeEmpty)
	})
}
