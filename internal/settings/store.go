// Package settings keeps the single wedding-info row that drives the public
// invitation page, and the debounced autosave used while it is being edited.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
)

var (
	ErrUnknownField = errors.New("unknown wedding info field")
	ErrInvalidValue = errors.New("invalid wedding info value")
)

// Patch is a set of field changes keyed by column name
type Patch map[string]string

// fields maps every editable column to the struct field it writes
var fields = map[string]func(*models.WeddingInfo) *string{
	"bride_name":            func(w *models.WeddingInfo) *string { return &w.BrideName },
	"bride_full_name":       func(w *models.WeddingInfo) *string { return &w.BrideFullName },
	"bride_initial":         func(w *models.WeddingInfo) *string { return &w.BrideInitial },
	"groom_name":            func(w *models.WeddingInfo) *string { return &w.GroomName },
	"groom_full_name":       func(w *models.WeddingInfo) *string { return &w.GroomFullName },
	"groom_initial":         func(w *models.WeddingInfo) *string { return &w.GroomInitial },
	"bride_parents":         func(w *models.WeddingInfo) *string { return &w.BrideParents },
	"groom_parents":         func(w *models.WeddingInfo) *string { return &w.GroomParents },
	"bride_child_order":     func(w *models.WeddingInfo) *string { return &w.BrideChildOrder },
	"groom_child_order":     func(w *models.WeddingInfo) *string { return &w.GroomChildOrder },
	"akad_date":             func(w *models.WeddingInfo) *string { return &w.Akad.Date },
	"akad_time":             func(w *models.WeddingInfo) *string { return &w.Akad.Time },
	"akad_venue_name":       func(w *models.WeddingInfo) *string { return &w.Akad.VenueName },
	"akad_venue_address":    func(w *models.WeddingInfo) *string { return &w.Akad.VenueAddress },
	"akad_map_url":          func(w *models.WeddingInfo) *string { return &w.Akad.MapURL },
	"resepsi_date":          func(w *models.WeddingInfo) *string { return &w.Resepsi.Date },
	"resepsi_time":          func(w *models.WeddingInfo) *string { return &w.Resepsi.Time },
	"resepsi_venue_name":    func(w *models.WeddingInfo) *string { return &w.Resepsi.VenueName },
	"resepsi_venue_address": func(w *models.WeddingInfo) *string { return &w.Resepsi.VenueAddress },
	"resepsi_map_url":       func(w *models.WeddingInfo) *string { return &w.Resepsi.MapURL },
}

const mapsDisplayColumn = "maps_display_option"

// Validate rejects unknown columns and bad display options
func (p Patch) Validate() error {
	for key, value := range p {
		if key == mapsDisplayColumn {
			if !models.MapsDisplayOption(value).Valid() {
				return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
			}
			continue
		}
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}
	return nil
}

// ApplyTo writes the patch onto info. The patch must be valid.
func (p Patch) ApplyTo(info *models.WeddingInfo) {
	for key, value := range p {
		if key == mapsDisplayColumn {
			info.MapsDisplayOption = models.MapsDisplayOption(value)
			continue
		}
		if field, ok := fields[key]; ok {
			*field(info) = value
		}
	}
}

// Merge copies other into p; later values win
func (p Patch) Merge(other Patch) {
	for k, v := range other {
		p[k] = v
	}
}

func (p Patch) columns() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Defaults returns the row provisioned the first time settings are read
func Defaults(brideName, groomName string) models.WeddingInfo {
	return models.WeddingInfo{
		BrideName:         brideName,
		BrideFullName:     brideName,
		BrideInitial:      initial(brideName),
		GroomName:         groomName,
		GroomFullName:     groomName,
		GroomInitial:      initial(groomName),
		Akad:              models.EventDetails{Time: "08:00 - 10:00 WIB"},
		Resepsi:           models.EventDetails{Time: "11:00 - 14:00 WIB"},
		MapsDisplayOption: models.MapsBoth,
	}
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r := []rune(name)
	return strings.ToUpper(string(r[0]))
}

type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewStore(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "settings").Logger()}
}

// Get returns the settings row or storage.ErrNotFound when none was provisioned
func (s *Store) Get(ctx context.Context) (*models.WeddingInfo, error) {
	return s.get(s.db.WithContext(ctx))
}

func (s *Store) get(db *gorm.DB) (*models.WeddingInfo, error) {
	var info models.WeddingInfo
	if err := db.Order("created_at ASC").First(&info).Error; err != nil {
		return nil, fmt.Errorf("failed to get wedding info: %w", storage.Classify(err))
	}
	return &info, nil
}

// Create provisions the settings row
func (s *Store) Create(ctx context.Context, info models.WeddingInfo) (*models.WeddingInfo, error) {
	if info.MapsDisplayOption != "" && !info.MapsDisplayOption.Valid() {
		return nil, fmt.Errorf("%w: maps_display_option=%q", ErrInvalidValue, info.MapsDisplayOption)
	}
	if err := s.db.WithContext(ctx).Create(&info).Error; err != nil {
		return nil, fmt.Errorf("failed to create wedding info: %w", storage.Classify(err))
	}
	s.log.Info().Str("id", info.ID.String()).Msg("wedding info provisioned")
	return &info, nil
}

// GetOrCreate reads the settings row, provisioning it from defaults when absent
func (s *Store) GetOrCreate(ctx context.Context, defaults models.WeddingInfo) (*models.WeddingInfo, error) {
	info, err := s.Get(ctx)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return s.Create(ctx, defaults)
}

// Update applies a patch to the settings row and returns the stored result
func (s *Store) Update(ctx context.Context, patch Patch) (*models.WeddingInfo, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var info *models.WeddingInfo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.get(tx)
		if err != nil {
			return err
		}
		if len(patch) > 0 {
			if err := tx.Model(current).Updates(patch.columns()).Error; err != nil {
				return fmt.Errorf("failed to update wedding info: %w", storage.Classify(err))
			}
		}
		info, err = s.get(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}
