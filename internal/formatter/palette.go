package formatter

import (
	"fmt"
	"strings"

	"github.com/amterp/color"
)

var attributeNames = map[string]color.Attribute{
	"bold":      color.Bold,
	"faint":     color.Faint,
	"italic":    color.Italic,
	"underline": color.Underline,

	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,

	"hi-black":   color.FgHiBlack,
	"hi-red":     color.FgHiRed,
	"hi-green":   color.FgHiGreen,
	"hi-yellow":  color.FgHiYellow,
	"hi-blue":    color.FgHiBlue,
	"hi-magenta": color.FgHiMagenta,
	"hi-cyan":    color.FgHiCyan,
	"hi-white":   color.FgHiWhite,
}

// ParseColor turns a space separated list such as "hi-blue bold" into a
// colour. An empty spec yields nil, which prints uncoloured.
func ParseColor(spec string) (*color.Color, error) {
	fields := strings.Fields(strings.ToLower(spec))
	if len(fields) == 0 {
		return nil, nil
	}
	attrs := make([]color.Attribute, 0, len(fields))
	for _, f := range fields {
		a, ok := attributeNames[f]
		if !ok {
			return nil, fmt.Errorf("unknown colour attribute %q", f)
		}
		attrs = append(attrs, a)
	}
	return color.New(attrs...), nil
}

// PaletteSpec names the colour of each class, in ParseColor syntax.
type PaletteSpec struct {
	Key, String, Number, Boolean, Null, Placeholder, Gutter string
}

// ParsePalette builds a Palette from spec. Every bad entry is reported.
func ParsePalette(spec PaletteSpec) (Palette, error) {
	var (
		p    Palette
		errs []string
	)
	for _, e := range []struct {
		name string
		src  string
		dst  **color.Color
	}{
		{"key", spec.Key, &p.Key},
		{"string", spec.String, &p.String},
		{"number", spec.Number, &p.Number},
		{"boolean", spec.Boolean, &p.Boolean},
		{"null", spec.Null, &p.Null},
		{"placeholder", spec.Placeholder, &p.Placeholder},
		{"gutter", spec.Gutter, &p.Gutter},
	} {
		c, err := ParseColor(e.src)
		if err != nil {
			errs = append(errs, e.name+": "+err.Error())
			continue
		}
		*e.dst = c
	}
	if len(errs) > 0 {
		return Palette{}, fmt.Errorf("invalid palette: %s", strings.Join(errs, "; "))
	}
	return p, nil
}
