package game

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/Garsondee/fincraft/internal/sim"
)

// spriteSpec describes one optional image: where it lives under the assets
// directory, the size it is drawn at, and the fraction of the image that sits
// on the entity's ground anchor.
type spriteSpec struct {
	Name             string
	Path             string
	DisplayW         float64
	DisplayH         float64
	AnchorX, AnchorY float64
}

var spriteSpecs = []spriteSpec{
	{"town-hall", "buildings/town-hall.png", 150, 104, 0.5, 0.7},
	{"mine", "buildings/mine-401k.png", 80, 100, 0.5, 0.7},
	{"storehouse", "buildings/building-storagehouse.png", 100, 75, 0.5, 0.7},
	{"tower", "buildings/building-tower.png", 100, 125, 0.5, 0.7},
	{"debt", "buildings/building-debt.png", 100, 75, 0.5, 0.7},
	{"statue", "buildings/building-statue.png", 100, 122, 0.5, 0.7},
	{"peon", "units/peon.png", 32, 32, 0.5, 0.8},
	{"enemy-small", "units/enemy-small.png", 32, 32, 0.5, 0.5},
	{"enemy-debt", "units/enemy-debt.png", 48, 48, 0.5, 0.5},
	{"grass", "terrain/grass.png", sim.TileW, sim.TileH, 0.5, 0.5},
}

// AssetResult is the outcome of loading one sprite. Image is nil when the
// file was missing or unreadable; the renderer then draws a procedural stand-in.
type AssetResult struct {
	Spec   spriteSpec
	Image  *ebiten.Image
	Loaded bool
	Err    error
}

// Assets holds every sprite the renderer may use.
type Assets struct {
	byName map[string]AssetResult
}

// imageLoader reads an image from disk. Swapped in tests.
var imageLoader = func(path string) (*ebiten.Image, error) {
	img, _, err := ebitenutil.NewImageFromFile(path)
	return img, err
}

// maxTier is the highest level with its own art. Richer buildings keep the
// top tier's look.
const maxTier = 5

// visualTier clamps a building or hub level to the tiers that have art.
func visualTier(level int) int {
	if level < 0 {
		return 0
	}
	if level > maxTier {
		return maxTier
	}
	return level
}

// tieredSpec is the level-specific variant of a building sprite, stored next
// to the base art as "<file>-l<tier>.png".
func tieredSpec(spec spriteSpec, tier int) spriteSpec {
	ext := filepath.Ext(spec.Path)
	spec.Path = fmt.Sprintf("%s-l%d%s", strings.TrimSuffix(spec.Path, ext), tier, ext)
	spec.Name = fmt.Sprintf("%s-l%d", spec.Name, tier)
	return spec
}

// LoadAssets tries every sprite under dir. Failures never abort: each one is
// reported in its AssetResult and drawn procedurally. Level variants of the
// building art are optional; only the ones found are kept.
func LoadAssets(dir string) (*Assets, []AssetResult) {
	a := &Assets{byName: make(map[string]AssetResult, len(spriteSpecs))}
	results := make([]AssetResult, 0, len(spriteSpecs))
	for _, spec := range spriteSpecs {
		r := AssetResult{Spec: spec}
		if dir != "" {
			img, err := imageLoader(filepath.Join(dir, filepath.FromSlash(spec.Path)))
			if err != nil {
				r.Err = fmt.Errorf("load %s: %w", spec.Name, err)
			} else {
				r.Image, r.Loaded = img, true
			}
		}
		a.byName[spec.Name] = r
		results = append(results, r)

		if dir == "" || !strings.HasPrefix(spec.Path, "buildings/") {
			continue
		}
		for tier := 1; tier <= maxTier; tier++ {
			ts := tieredSpec(spec, tier)
			if img, err := imageLoader(filepath.Join(dir, filepath.FromSlash(ts.Path))); err == nil {
				a.byName[ts.Name] = AssetResult{Spec: ts, Image: img, Loaded: true}
			}
		}
	}
	return a, results
}

// Get returns the asset for name; the zero result means "draw the fallback".
func (a *Assets) Get(name string) AssetResult {
	if a == nil {
		return AssetResult{}
	}
	return a.byName[name]
}

// Tier returns the art for name at level, falling back to the base art when
// no variant exists for that tier.
func (a *Assets) Tier(name string, level int) AssetResult {
	if t := visualTier(level); t > 0 {
		if r := a.Get(fmt.Sprintf("%s-l%d", name, t)); r.Image != nil {
			return r
		}
	}
	return a.Get(name)
}

// buildingSprite picks the art for an account category.
func buildingSprite(c sim.Category) string {
	switch c {
	case sim.CategoryDepository:
		return "storehouse"
	case sim.CategoryInvestments:
		return "tower"
	case sim.CategoryCreditCards, sim.CategoryLoans:
		return "debt"
	}
	return "statue"
}

func landmarkSprite(k sim.LandmarkKind) string {
	if k == sim.LandmarkHub {
		return "town-hall"
	}
	return "mine"
}

func unitSprite(k sim.UnitKind) string {
	switch k {
	case sim.UnitInterestThreat:
		return "enemy-debt"
	case sim.UnitExpenseAttacker:
		return "enemy-small"
	}
	return "peon"
}

// spriteOptions positions an image so its anchor fraction lands on the world
// point (wx, wy), scaled to the display size and mirrored when flip is set.
func spriteOptions(r AssetResult, wx, wy, scale float64, flip bool) *ebiten.DrawImageOptions {
	op := &ebiten.DrawImageOptions{}
	w, h := r.Image.Bounds().Dx(), r.Image.Bounds().Dy()
	sx := r.Spec.DisplayW / float64(w) * scale
	sy := r.Spec.DisplayH / float64(h) * scale
	op.GeoM.Translate(-r.Spec.AnchorX*float64(w), -r.Spec.AnchorY*float64(h))
	if flip {
		sx = -sx
	}
	op.GeoM.Scale(sx, sy)
	op.GeoM.Translate(wx, wy)
	op.Filter = ebiten.FilterLinear
	return op
}
