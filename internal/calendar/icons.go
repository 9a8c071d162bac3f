package calendar

import (
	"github.com/noah-isme/groupcal-api/internal/models"
)

// Icon is one of the fixed event glyphs. The zero value means no icon.
type Icon uint8

const (
	IconNone Icon = iota
	IconShield
	IconSword
	IconTarget
	IconEye
	IconCastle
	IconFlag
	IconAnchor
	IconBolt
	IconSprout
	IconZap
)

var iconNames = [...]string{
	IconNone:   "",
	IconShield: "Shield",
	IconSword:  "Sword",
	IconTarget: "Target",
	IconEye:    "Eye",
	IconCastle: "Castle",
	IconFlag:   "Flag",
	IconAnchor: "Anchor",
	IconBolt:   "Bolt",
	IconSprout: "Sprout",
	IconZap:    "Zap",
}

// String returns the stored name of the icon.
func (i Icon) String() string {
	if int(i) < len(iconNames) {
		return iconNames[i]
	}
	return ""
}

// Icons lists every selectable icon in display order.
func Icons() []Icon {
	out := make([]Icon, 0, len(iconNames)-1)
	for i := IconShield; int(i) < len(iconNames); i++ {
		out = append(out, i)
	}
	return out
}

// ParseIcon maps a stored name to an icon.
func ParseIcon(name string) (Icon, bool) {
	if name == "" {
		return IconNone, false
	}
	for i, n := range iconNames {
		if i > 0 && n == name {
			return Icon(i), true
		}
	}
	return IconNone, false
}

// IconRegistry resolves icons to whatever a renderer needs to draw them.
type IconRegistry interface {
	// Glyph returns the renderer key of icon and false when the renderer cannot draw it.
	Glyph(icon Icon) (string, bool)
}

type defaultIcons struct{}

// DefaultIcons maps every icon to its lower-case glyph key.
var DefaultIcons IconRegistry = defaultIcons{}

var defaultGlyphs = map[Icon]string{
	IconShield: "shield",
	IconSword:  "sword",
	IconTarget: "target",
	IconEye:    "eye",
	IconCastle: "castle",
	IconFlag:   "flag",
	IconAnchor: "anchor",
	IconBolt:   "bolt",
	IconSprout: "sprout",
	IconZap:    "zap",
}

func (defaultIcons) Glyph(icon Icon) (string, bool) {
	g, ok := defaultGlyphs[icon]
	return g, ok
}

const (
	// NeutralColor is used when neither the event nor its category carries a color.
	NeutralColor = "#6366f1"
	// DefaultLabelColor is the text color on category-colored tiles.
	DefaultLabelColor = "#ffffff"
)

// Style is the resolved presentation of an event.
type Style struct {
	Icon         Icon   `json:"-"`
	IconName     string `json:"icon,omitempty"`
	Glyph        string `json:"glyph,omitempty"`
	IconColor    string `json:"icon_color"`
	Color        string `json:"color"`
	LabelColor   string `json:"label_color"`
	CategoryName string `json:"category,omitempty"`
	Priority     int    `json:"priority"`
}

// ResolveStyle applies event overrides first, then the category defaults, then the neutral
// defaults. Unknown icon names and dangling categories resolve to no icon and no category.
func ResolveStyle(e models.Event, categories map[string]models.Category, registry IconRegistry) Style {
	if registry == nil {
		registry = DefaultIcons
	}
	st := Style{
		IconColor:  NeutralColor,
		Color:      NeutralColor,
		LabelColor: DefaultLabelColor,
		Priority:   models.DefaultPriority,
	}

	cat, hasCat := lookupCategory(e, categories)
	if hasCat {
		st.CategoryName = cat.Name
		st.Priority = cat.EffectivePriority()
		if cat.Color != "" {
			st.Color = cat.Color
			st.IconColor = cat.Color
		}
		if cat.LabelColor != nil && *cat.LabelColor != "" {
			st.LabelColor = *cat.LabelColor
		}
		if cat.IconColor != nil && *cat.IconColor != "" {
			st.IconColor = *cat.IconColor
		}
	}
	if e.IconColor != nil && *e.IconColor != "" {
		st.IconColor = *e.IconColor
	}

	name := ""
	if e.Icon != nil && *e.Icon != "" {
		name = *e.Icon
	} else if hasCat && cat.Icon != nil {
		name = *cat.Icon
	}
	if icon, ok := ParseIcon(name); ok {
		st.Icon = icon
		st.IconName = icon.String()
		if glyph, ok := registry.Glyph(icon); ok {
			st.Glyph = glyph
		}
	}
	return st
}
