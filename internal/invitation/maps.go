package invitation

import "wedding-invitation/internal/models"

// MapsVisibility says which venue maps the public page shows
type MapsVisibility struct {
	ShowAkad    bool `json:"showAkad"`
	ShowResepsi bool `json:"showResepsi"`
}

// Maps resolves the display option. Unknown values fall back to showing both.
func Maps(option models.MapsDisplayOption) MapsVisibility {
	switch option {
	case models.MapsAkad:
		return MapsVisibility{ShowAkad: true}
	case models.MapsResepsi:
		return MapsVisibility{ShowResepsi: true}
	case models.MapsNone:
		return MapsVisibility{}
	default:
		return MapsVisibility{ShowAkad: true, ShowResepsi: true}
	}
}
