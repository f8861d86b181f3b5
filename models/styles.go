package models

import (
	"github.com/go-playground/validator"
)

type StyleCategory string

const (
	CategoryStyle    StyleCategory = "style"
	CategoryColor    StyleCategory = "color"
	CategoryCreative StyleCategory = "creative"
)

// StyleOption is one selectable entry of the static hairstyle catalog.
// The catalog is ordered and immutable; the batch orchestrator visits it
// strictly in this order.
type StyleOption struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Prompt   string        `json:"prompt"`
	Category StyleCategory `json:"category"`
}

var StyleCatalog = []StyleOption{
	{ID: "buzz-cut", Label: "Buzz Cut", Prompt: "a very short buzz cut", Category: CategoryStyle},
	{ID: "classic-bob", Label: "Classic Bob", Prompt: "a sleek chin-length classic bob", Category: CategoryStyle},
	{ID: "long-waves", Label: "Long Waves", Prompt: "long loose natural waves", Category: CategoryStyle},
	{ID: "pixie", Label: "Pixie", Prompt: "a short textured pixie cut", Category: CategoryStyle},
	{ID: "curtain-bangs", Label: "Curtain Bangs", Prompt: "shoulder-length hair with soft curtain bangs", Category: CategoryStyle},
	{ID: "slick-back", Label: "Slick Back", Prompt: "a polished slicked-back style", Category: CategoryStyle},
	{ID: "afro", Label: "Afro", Prompt: "a full rounded natural afro", Category: CategoryStyle},
	{ID: "platinum-blonde", Label: "Platinum Blonde", Prompt: "platinum blonde color", Category: CategoryColor},
	{ID: "jet-black", Label: "Jet Black", Prompt: "deep jet black color", Category: CategoryColor},
	{ID: "copper-red", Label: "Copper Red", Prompt: "vivid copper red color", Category: CategoryColor},
	{ID: "ash-brown", Label: "Ash Brown", Prompt: "cool ash brown color", Category: CategoryColor},
	{ID: "neon-punk", Label: "Neon Punk", Prompt: "a spiked punk style with neon green streaks", Category: CategoryCreative},
	{ID: "galaxy", Label: "Galaxy", Prompt: "flowing hair blended with galaxy purple and blue tones", Category: CategoryCreative},
	{ID: "retro-70s", Label: "Retro 70s", Prompt: "a voluminous feathered 70s style", Category: CategoryCreative},
}

var styleIndex = buildStyleIndex()

func buildStyleIndex() map[string]StyleOption {
	index := make(map[string]StyleOption, len(StyleCatalog))
	for _, style := range StyleCatalog {
		index[style.ID] = style
	}
	return index
}

func StyleByID(id string) (StyleOption, bool) {
	style, ok := styleIndex[id]
	return style, ok
}

func StylesByCategory(category StyleCategory) []StyleOption {
	var out []StyleOption
	for _, style := range StyleCatalog {
		if style.Category == category {
			out = append(out, style)
		}
	}
	return out
}

func ValidateStyleID(fl validator.FieldLevel) bool {
	return ValidateStyleIDRaw(fl.Field().String())
}

func ValidateStyleIDRaw(value string) bool {
	_, ok := styleIndex[value]
	return ok
}

func ValidateStyleCategory(fl validator.FieldLevel) bool {
	switch StyleCategory(fl.Field().String()) {
	case CategoryStyle, CategoryColor, CategoryCreative:
		return true
	}
	return false
}
