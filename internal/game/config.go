package game

import "tilestream/internal/tile"

// Frame loop.
const (
	MaxFrameDT = 0.1 // seconds; longer frames are clamped
)

// Debug overlay.
const (
	OverlayWidth    = 360
	OverlayHeight   = 140
	OverlayMargin   = 8
	OverlayFontSize = 13.0
	OverlayRefresh  = 0.25 // seconds between redraws
)

// ClearColor fills the screen behind the chunks.
var ClearColor = tile.RGB{R: 24, G: 24, B: 30}
