// Package trickplay locates scrub preview thumbnails within sprite sheets.
package trickplay

import (
	"fmt"
	"net/url"

	"github.com/tessro/finch/internal/core"
)

// Tile is the location of one thumbnail.
type Tile struct {
	Index int // thumbnail number across all sheets
	Sheet int // sprite sheet number
	X     int // pixel offset within the sheet
	Y     int
	W     int
	H     int
}

// Locate returns the thumbnail covering pos. ok is false when the item
// has no usable trickplay data or pos is unknown.
func Locate(info *core.Trickplay, pos core.Position) (Tile, bool) {
	if info == nil || !pos.Known || info.Interval <= 0 || info.TileWidth <= 0 ||
		info.TileHeight <= 0 || info.ThumbnailCount <= 0 {
		return Tile{}, false
	}

	ms := int64(pos.Ticks) / 10_000
	if ms < 0 {
		ms = 0
	}
	index := int(ms / int64(info.Interval))
	if index >= info.ThumbnailCount {
		index = info.ThumbnailCount - 1
	}

	perSheet := info.TileWidth * info.TileHeight
	local := index % perSheet
	height := info.Height
	if height == 0 {
		height = info.Width * 9 / 16
	}

	return Tile{
		Index: index,
		Sheet: index / perSheet,
		X:     (local % info.TileWidth) * info.Width,
		Y:     (local / info.TileWidth) * height,
		W:     info.Width,
		H:     height,
	}, true
}

// Sheets returns how many sprite sheets exist for the resolution.
func Sheets(info *core.Trickplay) int {
	if info == nil || info.TileWidth <= 0 || info.TileHeight <= 0 {
		return 0
	}
	perSheet := info.TileWidth * info.TileHeight
	return (info.ThumbnailCount + perSheet - 1) / perSheet
}

// SheetPath returns the server path of a sprite sheet.
func SheetPath(itemID string, width, sheet int) string {
	return fmt.Sprintf("/Videos/%s/Trickplay/%d/%d.jpg", url.PathEscape(itemID), width, sheet)
}
