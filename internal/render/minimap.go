// Package render draws the top-down minimap served to the HUD and the
// level CLI. The browser renders the 3D scene; this stays server-side.
package render

import (
	"bytes"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"pizza-rush/internal/game"
	"pizza-rush/internal/world"
)

// Minimap rasterizes a city plus live entities to a square PNG.
type Minimap struct {
	size   int
	extent float64 // World half-extent mapped to the image
}

// NewMinimap creates a renderer. A zero size defaults to 512px.
func NewMinimap(size int, extent float64) *Minimap {
	if size <= 0 {
		size = 512
	}
	if extent <= 0 {
		extent = 250
	}
	return &Minimap{size: size, extent: extent}
}

// toPx maps world X/Z to image coordinates centered on (cx, cz).
func (m *Minimap) toPx(x, z, cx, cz float64) (float64, float64) {
	scale := float64(m.size) / (2 * m.extent)
	return float64(m.size)/2 + (x-cx)*scale, float64(m.size)/2 + (z-cz)*scale
}

// Render draws the city around center (cx, cz). Snapshot may be nil for
// a static map (the level CLI path).
func (m *Minimap) Render(c *world.City, snap *game.GameSnapshot, cx, cz float64) ([]byte, error) {
	dc := gg.NewContext(m.size, m.size)
	scale := float64(m.size) / (2 * m.extent)

	// Night asphalt background
	dc.SetColor(color.RGBA{16, 16, 26, 255})
	dc.DrawRectangle(0, 0, float64(m.size), float64(m.size))
	dc.Fill()

	// Roads
	dc.SetColor(color.RGBA{52, 52, 66, 255})
	for _, r := range c.Roads {
		dc.SetLineWidth(r.Width * scale)
		for i := 0; i+1 < len(r.Points); i++ {
			x1, y1 := m.toPx(r.Points[i][0], r.Points[i][1], cx, cz)
			x2, y2 := m.toPx(r.Points[i+1][0], r.Points[i+1][1], cx, cz)
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
		}
	}

	// Building footprints
	for _, b := range c.Buildings {
		col, err := parseHex(b.Color)
		if err != nil {
			col = color.RGBA{120, 120, 120, 255}
		}
		dc.SetColor(col)
		x, y := m.toPx(b.Position[0]-b.Scale[0]/2, b.Position[2]-b.Scale[2]/2, cx, cz)
		dc.DrawRectangle(x, y, b.Scale[0]*scale, b.Scale[2]*scale)
		dc.Fill()
	}

	// Pizzeria marker
	px, py := m.toPx(c.Pizzeria[0], c.Pizzeria[1], cx, cz)
	dc.SetColor(color.RGBA{255, 180, 40, 255})
	dc.DrawCircle(px, py, 6)
	dc.Fill()

	if snap != nil {
		m.drawEntities(dc, snap, cx, cz)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(err, "encoding minimap png")
	}
	return buf.Bytes(), nil
}

func (m *Minimap) drawEntities(dc *gg.Context, snap *game.GameSnapshot, cx, cz float64) {
	for _, o := range snap.Obstacles {
		x, y := m.toPx(o.X, o.Z, cx, cz)
		switch o.Kind {
		case "car":
			dc.SetColor(color.RGBA{200, 60, 60, 255})
			dc.DrawCircle(x, y, 3)
		case "drone":
			dc.SetColor(color.RGBA{90, 200, 255, 255})
			dc.DrawCircle(x, y, 2)
		case "pedestrian":
			dc.SetColor(color.RGBA{190, 190, 190, 255})
			dc.DrawCircle(x, y, 1.5)
		}
		dc.Fill()
	}

	// Active delivery destination
	if snap.Delivery.Active {
		x, y := m.toPx(snap.Delivery.DestX, snap.Delivery.DestZ, cx, cz)
		dc.SetColor(color.RGBA{60, 230, 120, 255})
		dc.DrawCircle(x, y, 6)
		dc.Stroke()
		dc.DrawCircle(x, y, 2)
		dc.Fill()
	}

	// Rider last so nothing covers it
	x, y := m.toPx(snap.Rider.X, snap.Rider.Z, cx, cz)
	dc.SetColor(color.RGBA{255, 255, 255, 255})
	dc.DrawCircle(x, y, 4)
	dc.Fill()
}

// parseHex decodes "#rrggbb" into an RGBA color.
func parseHex(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, errors.Errorf("bad color %q", s)
	}
	var out [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexVal(s[1+i*2])
		lo, ok2 := hexVal(s[2+i*2])
		if !ok1 || !ok2 {
			return color.RGBA{}, errors.Errorf("bad color %q", s)
		}
		out[i] = hi<<4 | lo
	}
	return color.RGBA{out[0], out[1], out[2], 255}, nil
}

func hexVal(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
