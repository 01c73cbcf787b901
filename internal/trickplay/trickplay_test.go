package trickplay

import (
	"testing"

	"github.com/tessro/finch/internal/core"
)

func TestLocate(t *testing.T) {
	info := &core.Trickplay{
		Width:          320,
		Height:         180,
		TileWidth:      10,
		TileHeight:     10,
		ThumbnailCount: 250,
		Interval:       10_000,
	}

	tests := []struct {
		name string
		pos  core.Position
		want Tile
	}{
		{"start", core.At(0), Tile{Index: 0, Sheet: 0, X: 0, Y: 0, W: 320, H: 180}},
		{"second thumb", core.At(10 * core.TicksPerSecond), Tile{Index: 1, Sheet: 0, X: 320, Y: 0, W: 320, H: 180}},
		{"next row", core.At(125 * core.TicksPerSecond), Tile{Index: 12, Sheet: 0, X: 640, Y: 180, W: 320, H: 180}},
		{"second sheet", core.At(1010 * core.TicksPerSecond), Tile{Index: 101, Sheet: 1, X: 320, Y: 0, W: 320, H: 180}},
		{"past end clamps", core.At(99999 * core.TicksPerSecond), Tile{Index: 249, Sheet: 2, X: 2880, Y: 720, W: 320, H: 180}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Locate(info, tt.pos)
			if !ok {
				t.Fatal("Locate() ok = false")
			}
			if got != tt.want {
				t.Errorf("Locate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocateUnavailable(t *testing.T) {
	if _, ok := Locate(nil, core.At(0)); ok {
		t.Error("nil info should not locate")
	}
	info := &core.Trickplay{Width: 320, TileWidth: 10, TileHeight: 10, ThumbnailCount: 5, Interval: 1000}
	if _, ok := Locate(info, core.Position{}); ok {
		t.Error("unknown position should not locate")
	}
}

func TestSheets(t *testing.T) {
	info := &core.Trickplay{TileWidth: 10, TileHeight: 10, ThumbnailCount: 250}
	if got := Sheets(info); got != 3 {
		t.Errorf("Sheets() = %d, want 3", got)
	}
}

func TestSheetPath(t *testing.T) {
	if got := SheetPath("abc", 320, 2); got != "/Videos/abc/Trickplay/320/2.jpg" {
		t.Errorf("SheetPath() = %q", got)
	}
}
