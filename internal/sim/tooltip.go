package sim

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	tooltipEasing  = 0.2
	tooltipOffsetX = 18
	tooltipOffsetY = -64
	tooltipMinShow = 0.01
)

// Tooltip is the eased info panel for the selected entity, in viewport coordinates.
type Tooltip struct {
	Title string
	Lines []string

	X, Y    float64
	Opacity float64

	targetX, targetY float64
	targetOpacity    float64
}

// Visible reports whether the tooltip should be drawn.
func (t *Tooltip) Visible() bool {
	return t.Opacity > tooltipMinShow || t.targetOpacity > 0
}

// Text returns the tooltip contents as plain text.
func (t *Tooltip) Text() string {
	if t.Title == "" {
		return ""
	}
	return t.Title + "\n" + strings.Join(t.Lines, "\n")
}

func (t *Tooltip) show() {
	if t.Opacity <= tooltipMinShow {
		t.X, t.Y = t.targetX, t.targetY
	}
	t.targetOpacity = 1
}

func (t *Tooltip) hide() {
	t.targetOpacity = 0
}

func (t *Tooltip) ease() {
	t.Opacity += (t.targetOpacity - t.Opacity) * tooltipEasing
	t.X += (t.targetX - t.X) * tooltipEasing
	t.Y += (t.targetY - t.Y) * tooltipEasing
	if t.targetOpacity == 0 && t.Opacity < tooltipMinShow {
		t.Opacity = 0
		t.Title, t.Lines = "", nil
	}
}

// refreshTooltip rebuilds the content for the selection and re-aims its position at
// the selection's screen anchor.
func (s *State) refreshTooltip() {
	sel := s.UI.Selected
	if sel.None() {
		return
	}
	ax, ay := sel.Anchor()
	sx, sy := s.Camera.WorldToScreen(ax, ay)
	s.Tooltip.targetX, s.Tooltip.targetY = sx+tooltipOffsetX, sy+tooltipOffsetY
	s.Tooltip.Title, s.Tooltip.Lines = s.describe(sel)
}

func (s *State) describe(t Target) (string, []string) {
	if b := t.Building; b != nil {
		lines := []string{"Balance: " + FormatMoney(b.Balance)}
		if b.APR != 0 {
			lines = append(lines, fmt.Sprintf("APR: %s%%", decimal.NewFromFloat(b.APR).StringFixed(2)))
		}
		switch {
		case b.IsDebt:
			lines = append(lines, "Spawns threats")
		case b.Category.IsAsset():
			lines = append(lines, "Sends income")
		default:
			lines = append(lines, "Holding")
		}
		lines = append(lines, fmt.Sprintf("Level %d", b.Level))
		return b.Name, lines
	}
	if t.Landmark.Kind == LandmarkHub {
		return "Town Hall", []string{
			"Net worth: " + FormatMoney(s.NetWorth),
			fmt.Sprintf("Level %d", s.Hub.Level),
		}
	}
	return "Income Source", []string{"Income arrives here"}
}

// FormatMoney renders an amount as "$1,234.56" or "-$1,234.56".
func FormatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return sign + "$" + sb.String() + "." + frac
}
