package theme

import (
	"image/color"
)

// Theme defines the colors of the annotate window.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window background around the image
	Foreground color.RGBA // Status line text

	// Toolbar
	ToolbarBackground color.RGBA
	ButtonBackground  color.RGBA
	ButtonActive      color.RGBA // Selected tool
	ButtonText        color.RGBA
	ButtonBorder      color.RGBA

	// Canvas
	StateOverlay color.RGBA // Masks of other annotations, drawn faintly
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        color.RGBA{220, 220, 220, 255},
		Foreground:        color.RGBA{0, 0, 0, 255},
		ToolbarBackground: color.RGBA{220, 220, 220, 255},
		ButtonBackground:  color.RGBA{200, 200, 200, 255},
		ButtonActive:      color.RGBA{150, 150, 150, 255},
		ButtonText:        color.RGBA{0, 0, 0, 255},
		ButtonBorder:      color.RGBA{0, 0, 0, 255},
		StateOverlay:      color.RGBA{0, 0, 255, 64},
		CheckerLight:      color.RGBA{220, 220, 220, 255},
		CheckerDark:       color.RGBA{192, 192, 192, 255},
	}
}
