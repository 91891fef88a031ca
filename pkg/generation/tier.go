package generation

// Tier is the visual band a generation is drawn in.
type Tier struct {
	Name  string
	Color string // CSS hex colour
}

// DefaultColor is used for negative levels, which only occur with bad input.
const DefaultColor = "#D3D3D3"

var palette = []Tier{
	{Name: "gold", Color: "#FFD700"},
	{Name: "sky blue", Color: "#87CEEB"},
	{Name: "pale green", Color: "#98FB98"},
	{Name: "plum", Color: "#DDA0DD"},
	{Name: "light coral", Color: "#F08080"},
}

// TierOf returns the tier for a level. The palette repeats every five
// generations.
func TierOf(level int) Tier {
	if level < 0 {
		return Tier{Name: "default", Color: DefaultColor}
	}
	return palette[level%len(palette)]
}

// TierColor returns the tier colour for a level.
func TierColor(level int) string { return TierOf(level).Color }
