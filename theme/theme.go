package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Panel lights
	LightOff rune // ○
	LightDim rune // ◐ partially lit
	LightOn  rune // ●

	// Pattern walk
	Step     rune // · pitch in the set
	Playhead rune // ▶ current step
}

// New builds a theme around palette. A nil palette uses DefaultPalette.
func New(palette *Palette) *Theme {
	if palette == nil || len(palette.Colors) == 0 {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			LightOff: '○',
			LightDim: '◐',
			LightOn:  '●',

			Step:     '·',
			Playhead: '▶',
		},
	}
}

// Default is New(nil)
func Default() *Theme {
	return New(nil)
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep blue
	RoleSurface = 0.1 // indigo
	RoleMuted   = 0.2 // purple
	RoleFG      = 0.4 // magenta (readable)
	RoleAccent  = 0.5 // rose
	RoleCursor  = 0.6 // salmon
	RoleActive  = 0.7 // orange
	RoleWarning = 0.8 // amber
	RoleSuccess = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Light maps a light brightness (0-1) onto the upper half of the palette,
// so an unlit light is still visible against the background.
func (t *Theme) Light(brightness float64) lipgloss.Color {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 1 {
		brightness = 1
	}
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess - (1-brightness)*(RoleSuccess-RoleMuted)))
}

// LightRune picks the glyph for a brightness
func (t *Theme) LightRune(brightness float64) rune {
	switch {
	case brightness >= 0.75:
		return t.Symbols.LightOn
	case brightness > 0.05:
		return t.Symbols.LightDim
	}
	return t.Symbols.LightOff
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// RGB returns raw RGB for any normalized value
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
