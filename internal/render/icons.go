package render

import "image"

// Icon is a sequence of animation frames, each a list of lit pixel offsets.
type Icon [][]image.Point

func mustIcon(frames ...[]string) Icon {
	icon := make(Icon, 0, len(frames))
	for _, rows := range frames {
		var pts []image.Point
		for y, row := range rows {
			for x, ch := range row {
				if ch == '#' {
					pts = append(pts, image.Point{X: x, Y: y})
				}
			}
		}
		icon = append(icon, pts)
	}
	return icon
}

// Draw paints frame idx of the icon at (x, y), each pixel scaled to a
// scale x scale block.
func (icon Icon) Draw(f *Frame, idx, x, y, scale int) {
	if len(icon) == 0 {
		return
	}
	scale = max(1, scale)
	for _, p := range icon[idx%len(icon)] {
		px, py := x+p.X*scale, y+p.Y*scale
		f.FillRect(px, py, px+scale-1, py+scale-1)
	}
}

// Size returns the width and height of the icon at scale 1.
func (icon Icon) Size() (w, h int) {
	for _, frame := range icon {
		for _, p := range frame {
			w = max(w, p.X+1)
			h = max(h, p.Y+1)
		}
	}
	return w, h
}

// Rebuild spins while an array is syncing. It has four frames.
var Rebuild = mustIcon(
	[]string{
		"....######....",
		"...#......#...",
		"..#........#..",
		".#...#......#.",
		"#...#........#",
		"#..#..##.....#",
		"#.#..#..#..#.#",
		"#.#..#..#..#.#",
		"#.....##..#..#",
		"#........#...#",
		".#......#...#.",
		"..#........#..",
		"...#......#...",
		"....######....",
	},
	[]string{
		"....######....",
		"...#......#...",
		"..#...##...#..",
		".#...#..#...#.",
		"#...#........#",
		"#.....##.....#",
		"#....#..#....#",
		"#....#..#....#",
		"#.....##.....#",
		"#........#...#",
		".#...#..#...#.",
		"..#...##...#..",
		"...#......#...",
		"....######....",
	},
	[]string{
		"....######....",
		"...#......#...",
		"..#....#...#..",
		".#......#...#.",
		"#........#...#",
		"#.....##..#..#",
		"#....#..#..#.#",
		"#.#..#..#....#",
		"#..#..##.....#",
		"#...#........#",
		".#...#......#.",
		"..#...#....#..",
		"...#......#...",
		"....######....",
	},
	[]string{
		"....######....",
		"...#......#...",
		"..#........#..",
		".#..........#.",
		"#........#...#",
		"#..#..##..#..#",
		"#.#..#..#..#.#",
		"#.#..#..#..#.#",
		"#..#..##..#..#",
		"#...#........#",
		".#..........#.",
		"..#........#..",
		"...#......#...",
		"....######....",
	},
)

// Degraded blinks an exclamation mark inside a circle.
var Degraded = mustIcon(
	[]string{
		"....######....",
		"...#......#...",
		"..#........#..",
		".#....##....#.",
		"#.....##.....#",
		"#.....##.....#",
		"#.....##.....#",
		"#.....##.....#",
		"#............#",
		"#.....##.....#",
		".#....##....#.",
		"..#........#..",
		"...#......#...",
		"....######....",
	},
	[]string{
		"....######....",
		"...#......#...",
		"..#........#..",
		".#..........#.",
		"#............#",
		"#............#",
		"#............#",
		"#............#",
		"#............#",
		"#............#",
		".#..........#.",
		"..#........#..",
		"...#......#...",
		"....######....",
	},
)

// Clean is a tick inside a circle.
var Clean = mustIcon([]string{
	"....######....",
	"..##......#.##",
	"..#.........##",
	".#.........##.",
	"#.........##..",
	"#........##..#",
	"#...#...##...#",
	"#...##.##....#",
	"#....###.....#",
	"#.....#......#",
	".#..........#.",
	"..#........#..",
	"...#......#...",
	"....######....",
})

// Power is the header warning shown on under-voltage or throttling.
var Power = mustIcon(
	[]string{
		"..............",
		".##...........",
		".##......#....",
		".##......#....",
		".##....#.#.#..",
		".##...#..#..#.",
		".##..#...#...#",
		".##..#.......#",
		".##..#.......#",
		"......#.....#.",
		".......#...#..",
		".##.....###...",
		".##...........",
		"..............",
	},
	[]string{
		"..............",
		"..............",
		".........#....",
		".........#....",
		".......#.#.#..",
		"......#..#..#.",
		".....#...#...#",
		".....#.......#",
		".....#.......#",
		"......#.....#.",
		".......#...#..",
		"........###...",
		"..............",
		"..............",
	},
)

// DegradedBig is a 28 px warning triangle drawn at scale 1. Its second
// frame drops the exclamation mark so it blinks.
var DegradedBig = mustIcon(
	[]string{
		".............##.............",
		"............####............",
		"...........##..##...........",
		"..........##....##..........",
		".........##......##.........",
		"........##........##........",
		".......##....##....##.......",
		"......##.....##.....##......",
		".....##......##......##.....",
		"....##.......##.......##....",
		"...##........##........##...",
		"..##.........##.........##..",
		".##..........##..........##.",
		"##...........##...........##",
		"##...........##...........##",
		"##...........##...........##",
		"##.......................##",
		"##.......................##",
		"##.......................##",
		"##.......................##",
		"##.......................##",
		"##.......................##",
		"##..........####.........##",
		"##..........####.........##",
		"##.......................##",
		".##.....................##.",
		"..##...................##..",
		"....################....",
	},
	[]string{
		".............##.............",
		"............####............",
		"...........##..##...........",
		"..........##....##..........",
		".........##......##.........",
		"........##........##........",
		".......##..........##.......",
		"......##............##......",
		".....##..............##.....",
		"....##................##....",
		"...##..................##...",
		"..##....................##..",
		".##......................##.",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		"##........................##",
		".##......................##.",
		"..##....................##..",
		"....################....",
	},
)
