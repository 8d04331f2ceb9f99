package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// FitsViewTheme provides a custom theme for the viewer. Image areas stay on a
// neutral dark background so the colormap is not tinted by the chrome.
type FitsViewTheme struct{}

var _ fyne.Theme = (*FitsViewTheme)(nil)

func (t *FitsViewTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF} // Red keeps night vision
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0x60}
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *FitsViewTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *FitsViewTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *FitsViewTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12 // Dense info rows
	case theme.SizeNamePadding:
		return 3
	default:
		return theme.DefaultTheme().Size(name)
	}
}
