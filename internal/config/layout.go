package config

import "strings"

type LayoutOrientation string

const (
	LayoutOrientationVertical   LayoutOrientation = "vertical"
	LayoutOrientationHorizontal LayoutOrientation = "horizontal"
)

// LayoutSettings splits a request window between its editors and the
// response area.
type LayoutSettings struct {
	EditorSplit float64           `json:"editor_split" toml:"editor_split" yaml:"editor_split"`
	Orientation LayoutOrientation `json:"orientation"  toml:"orientation"  yaml:"orientation"`
}

const (
	LayoutEditorSplitDefault = 0.5
	LayoutEditorSplitMin     = 0.2
	LayoutEditorSplitMax     = 0.8
)

func DefaultLayoutSettings() LayoutSettings {
	return LayoutSettings{
		EditorSplit: LayoutEditorSplitDefault,
		Orientation: LayoutOrientationVertical,
	}
}

func NormaliseLayoutSettings(in LayoutSettings) LayoutSettings {
	layout := DefaultLayoutSettings()
	layout.EditorSplit = clampFloat(
		in.EditorSplit,
		LayoutEditorSplitMin,
		LayoutEditorSplitMax,
		LayoutEditorSplitDefault,
	)
	layout.Orientation = normaliseOrientation(in.Orientation, layout.Orientation)
	return layout
}

func normaliseOrientation(in LayoutOrientation, def LayoutOrientation) LayoutOrientation {
	switch strings.ToLower(strings.TrimSpace(string(in))) {
	case string(LayoutOrientationHorizontal):
		return LayoutOrientationHorizontal
	case string(LayoutOrientationVertical):
		return LayoutOrientationVertical
	default:
		return def
	}
}

func clampFloat[T ~float64](value, min, max, fallback T) T {
	if value == 0 {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
