// Package guest implements the guest directory: guest records, their invitation
// codes and the links and WhatsApp messages derived from them.
package guest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/validation"
)

// maxCodeAttempts bounds the draws made for one new guest. With 31^5 codes a
// collision is already rare, so running out means something else is wrong.
const maxCodeAttempts = 8

var (
	ErrCodeExhausted = errors.New("could not allocate a unique invitation code")
	ErrUnknownField  = errors.New("field does not support value counts")
	ErrEmptyName     = errors.New("guest name must not be empty")
)

// countableFields maps the public field name to its column
var countableFields = map[string]string{
	"from_side": "from_side",
	"category":  "category",
}

// CreateRequest carries the fields an admin fills in for a new guest
type CreateRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Partner  *string `json:"partner" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	FromSide string  `json:"from_side" validate:"max=50"`
	Category string  `json:"category" validate:"max=50"`
}

// UpdateRequest is a field-level patch; nil fields are left alone and an
// empty partner or phone clears it
type UpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=200"`
	Partner       *string `json:"partner" validate:"omitempty,max=200"`
	Phone         *string `json:"phone" validate:"omitempty,max=32"`
	FromSide      *string `json:"from_side" validate:"omitempty,max=50"`
	Category      *string `json:"category" validate:"omitempty,max=50"`
	RSVPSubmitted *bool   `json:"rsvp_submitted"`
}

// ValueCount is one distinct tag value and how many guests carry it
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type Service struct {
	db *gorm.DB

	// links guards baseURL. Writers of derived fields hold it for reading so a
	// regeneration never interleaves with them.
	links   sync.RWMutex
	baseURL string

	codes    *invitation.CodeGenerator
	validate *validator.Validate
	log      zerolog.Logger
}

// NewService creates a guest directory building links under baseURL
func NewService(db *gorm.DB, baseURL string, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		baseURL:  baseURL,
		codes:    invitation.NewCodeGenerator(nil),
		validate: validation.New(),
		log:      log.With().Str("component", "guest").Logger(),
	}
}

// WithCodeGenerator swaps the code source, used to force collisions in tests
func (s *Service) WithCodeGenerator(g *invitation.CodeGenerator) *Service {
	s.codes = g
	return s
}

// BaseURL returns the hosting base URL links are built under
func (s *Service) BaseURL() string {
	s.links.RLock()
	defer s.links.RUnlock()
	return s.baseURL
}

// ListAll returns every guest, newest first
func (s *Service) ListAll(ctx context.Context) ([]models.Guest, error) {
	var guests []models.Guest
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", storage.Classify(err))
	}
	return guests, nil
}

// ListByState returns the guests whose RSVP state matches, newest first
func (s *Service) ListByState(ctx context.Context, state models.RSVPState) ([]models.Guest, error) {
	var guests []models.Guest
	err := s.db.WithContext(ctx).
		Where("rsvp_submitted = ?", state == models.RSVPSubmitted).
		Order("created_at DESC").
		Find(&guests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list guests by state: %w", storage.Classify(err))
	}
	return guests, nil
}

// GetByID returns one guest or storage.ErrNotFound
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	var g models.Guest
	if err := s.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", storage.Classify(err))
	}
	return &g, nil
}

// GetByInvitationCode returns the guest addressed by code or storage.ErrNotFound.
// The caller checks the code's syntax.
func (s *Service) GetByInvitationCode(ctx context.Context, code string) (*models.Guest, error) {
	var g models.Guest
	if err := s.db.WithContext(ctx).First(&g, "invitation_code = ?", code).Error; err != nil {
		return nil, fmt.Errorf("failed to get guest by code: %w", storage.Classify(err))
	}
	return &g, nil
}

// ListWithPhone returns the guests that have a phone number
func (s *Service) ListWithPhone(ctx context.Context) ([]models.Guest, error) {
	var guests []models.Guest
	err := s.db.WithContext(ctx).
		Where("phone IS NOT NULL AND phone <> ''").
		Find(&guests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list guests with phone: %w", storage.Classify(err))
	}
	return guests, nil
}

// Create allocates a fresh invitation code and stores the guest with its derived link and message
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Guest, error) {
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	s.links.RLock()
	defer s.links.RUnlock()

	g := models.Guest{
		Name:     req.Name,
		Partner:  req.Partner,
		Phone:    req.Phone,
		FromSide: req.FromSide,
		Category: req.Category,
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, err
		}

		taken, err := s.codeTaken(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			s.log.Debug().Str("code", code).Int("attempt", attempt).Msg("invitation code collision")
			continue
		}

		g.ID = uuid.Nil
		g.InvitationCode = code
		s.derive(&g, s.baseURL)

		err = storage.Classify(s.db.WithContext(ctx).Create(&g).Error)
		if errors.Is(err, storage.ErrDuplicate) {
			// lost a race with a concurrent insert of the same code
			s.log.Debug().Str("code", code).Int("attempt", attempt).Msg("invitation code taken on insert")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create guest: %w", err)
		}

		s.log.Info().Str("guest_id", g.ID.String()).Str("code", code).Msg("guest created")
		return &g, nil
	}
	return nil, ErrCodeExhausted
}

func (s *Service) codeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Guest{}).
		Where("invitation_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check invitation code: %w", storage.Classify(err))
	}
	return count > 0, nil
}

// Update patches a guest. Changing the name or partner regenerates the link and message.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.Guest, error) {
	req.normalize()
	if req.Name != nil && *req.Name == "" {
		return nil, ErrEmptyName
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	s.links.RLock()
	defer s.links.RUnlock()

	var g models.Guest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&g, "id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		relink := false
		if req.Name != nil {
			g.Name = *req.Name
			updates["name"] = g.Name
			relink = true
		}
		if req.Partner != nil {
			g.Partner = emptyToNil(*req.Partner)
			updates["partner"] = nullable(g.Partner)
			relink = true
		}
		if req.Phone != nil {
			g.Phone = emptyToNil(*req.Phone)
			updates["phone"] = nullable(g.Phone)
		}
		if req.FromSide != nil {
			g.FromSide = *req.FromSide
			updates["from_side"] = g.FromSide
		}
		if req.Category != nil {
			g.Category = *req.Category
			updates["category"] = g.Category
		}
		if req.RSVPSubmitted != nil {
			g.RSVPSubmitted = *req.RSVPSubmitted
			updates["rsvp_submitted"] = g.RSVPSubmitted
		}
		if relink {
			s.derive(&g, s.baseURL)
			updates["invitation_link"] = g.InvitationLink
			updates["whatsapp_message"] = g.WhatsAppMessage
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&g).Updates(updates).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update guest: %w", storage.Classify(err))
	}
	return &g, nil
}

// Delete removes a guest. RSVP rows stay; they are keyed by name, not id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Guest{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete guest: %w", storage.Classify(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete guest: %w", storage.ErrNotFound)
	}
	s.log.Info().Str("guest_id", id.String()).Msg("guest deleted")
	return nil
}

// DistinctValueCounts lists each distinct from_side or category value with its
// number of guests, most common first
func (s *Service) DistinctValueCounts(ctx context.Context, field string) ([]ValueCount, error) {
	column, ok := countableFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	expr := "LOWER(" + column + ")"
	counts := []ValueCount{}
	err := s.db.WithContext(ctx).Model(&models.Guest{}).
		Select(expr + " AS value, COUNT(*) AS count").
		Where(column + " <> ''").
		Group(expr).
		Order("count DESC, value ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count %s values: %w", field, storage.Classify(err))
	}
	return counts, nil
}

// RegenerateLinks rebuilds every guest's link and message under baseURL, for
// when the site moves. An empty baseURL uses the current one. On success the
// new base is kept for guests created or renamed afterwards.
func (s *Service) RegenerateLinks(ctx context.Context, baseURL string) (int, error) {
	s.links.Lock()
	defer s.links.Unlock()

	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = s.baseURL
	}

	updated := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var guests []models.Guest
		if err := tx.Find(&guests).Error; err != nil {
			return err
		}
		for i := range guests {
			g := &guests[i]
			s.derive(g, baseURL)
			err := tx.Model(g).Updates(map[string]any{
				"invitation_link":  g.InvitationLink,
				"whatsapp_message": g.WhatsAppMessage,
			}).Error
			if err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to regenerate links: %w", storage.Classify(err))
	}
	s.baseURL = baseURL
	s.log.Info().Int("guests", updated).Str("base_url", baseURL).Msg("invitation links regenerated")
	return updated, nil
}

func (s *Service) derive(g *models.Guest, baseURL string) {
	g.InvitationLink = invitation.Link(baseURL, g.InvitationCode)
	g.WhatsAppMessage = invitation.WhatsAppMessage(g.Name, g.PartnerName(), g.InvitationCode, baseURL)
}

func (r *CreateRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Partner = trimOptional(r.Partner)
	r.Phone = trimOptional(r.Phone)
	r.FromSide = normalizeTag(r.FromSide)
	r.Category = normalizeTag(r.Category)
}

func (r *UpdateRequest) normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Partner != nil {
		p := strings.TrimSpace(*r.Partner)
		r.Partner = &p
	}
	if r.Phone != nil {
		p := strings.TrimSpace(*r.Phone)
		r.Phone = &p
	}
	if r.FromSide != nil {
		v := normalizeTag(*r.FromSide)
		r.FromSide = &v
	}
	if r.Category != nil {
		v := normalizeTag(*r.Category)
		r.Category = &v
	}
}

func normalizeTag(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	return emptyToNil(strings.TrimSpace(*v))
}

func nullable(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func emptyToNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
