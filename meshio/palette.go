package meshio

import "github.com/lucasb-eyer/go-colorful"

// palette holds the colors assigned to labels, label l gets palette[l%10].
var palette = [10]colorful.Color{
	rgb255(142, 207, 201), // background
	rgb255(255, 190, 122),
	rgb255(250, 127, 111),
	rgb255(130, 176, 210),
	rgb255(190, 184, 220),
	rgb255(40, 120, 181),
	rgb255(248, 172, 140),
	rgb255(255, 136, 132),
	rgb255(84, 179, 69),
	rgb255(137, 131, 191),
}

func rgb255(r, g, b float64) colorful.Color {
	return colorful.Color{R: r / 255, G: g / 255, B: b / 255}
}

// LabelColor returns the display color of a label. Negative labels wrap
// around the palette as well.
func LabelColor(label int) colorful.Color {
	i := label % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}

// ColorLabel returns the label in [0,10) whose palette color is closest to c.
func ColorLabel(c colorful.Color) int {
	best, bestDist := 0, c.DistanceRgb(palette[0])
	for i := 1; i < len(palette); i++ {
		if d := c.DistanceRgb(palette[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
