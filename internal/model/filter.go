// internal/model/filter.go
// Filter parameter kinds form a closed tagged union so the editor surface
// can match exhaustively instead of duck-typing an untyped parameter bag.
package model

// FilterParamKind tags the value shape of a filter/editor parameter.
type FilterParamKind string

const (
	FilterParamSlider FilterParamKind = "slider" // Continuous value within [Min, Max]
	FilterParamColor  FilterParamKind = "color"  // RGBA color value
)

// FilterParam is one adjustable parameter of a media filter.
// Exactly one of Slider or Color is set, selected by Kind.
type FilterParam struct {
	Name   string          `json:"name"`             // Parameter name shown in the editor
	Kind   FilterParamKind `json:"kind"`             // Which union arm is populated
	Slider *SliderParam    `json:"slider,omitempty"` // Set when Kind == FilterParamSlider
	Color  *ColorParam     `json:"color,omitempty"`  // Set when Kind == FilterParamColor
}

// SliderParam holds a bounded continuous parameter value.
type SliderParam struct {
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ColorParam holds an RGBA color parameter value.
type ColorParam struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Filter is one named media filter together with its adjustable parameters.
// Rendering happens in the presentation layer; the catalog only defines the
// parameter shapes and defaults.
type Filter struct {
	Name   string        `json:"name"`
	Params []FilterParam `json:"params"`
}

// BuiltinFilters returns the filter catalog shipped with the client.
func BuiltinFilters() []Filter {
	slider := func(name string, value, min, max float64) FilterParam {
		return FilterParam{Name: name, Kind: FilterParamSlider, Slider: &SliderParam{Value: value, Min: min, Max: max}}
	}
	color := func(name string, r, g, b, a uint8) FilterParam {
		return FilterParam{Name: name, Kind: FilterParamColor, Color: &ColorParam{R: r, G: g, B: b, A: a}}
	}
	return []Filter{
		{Name: "none", Params: nil},
		{Name: "adjust", Params: []FilterParam{
			slider("brightness", 0, -1, 1),
			slider("contrast", 1, 0, 2),
			slider("saturation", 1, 0, 2),
		}},
		{Name: "warm", Params: []FilterParam{
			slider("intensity", 0.5, 0, 1),
			color("tint", 255, 160, 80, 64),
		}},
		{Name: "cool", Params: []FilterParam{
			slider("intensity", 0.5, 0, 1),
			color("tint", 80, 160, 255, 64),
		}},
		{Name: "mono", Params: []FilterParam{
			slider("intensity", 1, 0, 1),
		}},
	}
}
