package admin

import (
	"strings"

	"github.com/google/uuid"
)

// FareRules returns the current global pricing configuration.
func (s *Store) FareRules() FareRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fareRules
}

// FareRulePatch updates a subset of the fare rule fields. Nil fields are
// left untouched.
type FareRulePatch struct {
	BaseFare            *float64
	PerKm               *float64
	PerMinute           *float64
	StudentDiscount     *float64
	WorkerDiscount      *float64
	GracePeriod         *int
	NoShowPenalty       *float64
	MaxDetourPercentage *float64
}

// UpdateFareRules applies the patch to the global fare rules and
// notifies subscribers.
func (s *Store) UpdateFareRules(p FareRulePatch) FareRule {
	s.mu.Lock()

	fr := s.fareRules
	if p.BaseFare != nil {
		fr.BaseFare = *p.BaseFare
	}
	if p.PerKm != nil {
		fr.PerKm = *p.PerKm
	}
	if p.PerMinute != nil {
		fr.PerMinute = *p.PerMinute
	}
	if p.StudentDiscount != nil {
		fr.StudentDiscount = *p.StudentDiscount
	}
	if p.WorkerDiscount != nil {
		fr.WorkerDiscount = *p.WorkerDiscount
	}
	if p.GracePeriod != nil {
		fr.GracePeriod = *p.GracePeriod
	}
	if p.NoShowPenalty != nil {
		fr.NoShowPenalty = *p.NoShowPenalty
	}
	if p.MaxDetourPercentage != nil {
		fr.MaxDetourPercentage = *p.MaxDetourPercentage
	}
	s.fareRules = fr

	s.notifyLocked()
	s.mu.Unlock()
	return fr
}

// Promotions returns a copy of all promotion records.
func (s *Store) Promotions() []Promotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePromotions(s.promotions)
}

// PromotionInput carries the caller-supplied fields of a new promotion.
type PromotionInput struct {
	Name         string
	Description  string
	Discount     float64
	ApplicableTo []ProfileType
	Active       bool
}

// AddPromotion validates and inserts a promotion, returning the stored
// record with its generated id and creation time.
func (s *Store) AddPromotion(in PromotionInput) (Promotion, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Promotion{}, ErrNameRequired
	}
	if len(in.ApplicableTo) == 0 {
		return Promotion{}, ErrNoApplicableTypes
	}
	for _, pt := range in.ApplicableTo {
		if !pt.Valid() {
			return Promotion{}, ErrNoApplicableTypes
		}
	}

	s.mu.Lock()
	p := Promotion{
		ID:           "promo-" + uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Discount:     in.Discount,
		ApplicableTo: append([]ProfileType(nil), in.ApplicableTo...),
		Active:       in.Active,
		CreatedAt:    s.clk.Now().UTC(),
	}
	s.promotions = append(clonePromotions(s.promotions), p)

	s.notifyLocked()
	s.mu.Unlock()
	return p, nil
}

// PromotionPatch updates a subset of a promotion's fields. Nil fields
// are left untouched.
type PromotionPatch struct {
	Name         *string
	Description  *string
	Discount     *float64
	ApplicableTo []ProfileType
	Active       *bool
}

// UpdatePromotion applies the patch to an existing promotion.
func (s *Store) UpdatePromotion(id string, patch PromotionPatch) (Promotion, error) {
	if patch.ApplicableTo != nil && len(patch.ApplicableTo) == 0 {
		return Promotion{}, ErrNoApplicableTypes
	}

	s.mu.Lock()
	i := s.findPromotion(id)
	if i < 0 {
		s.mu.Unlock()
		return Promotion{}, ErrNotFound
	}

	p := s.promotions[i]
	p.ApplicableTo = append([]ProfileType(nil), p.ApplicableTo...)
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Discount != nil {
		p.Discount = *patch.Discount
	}
	if patch.ApplicableTo != nil {
		p.ApplicableTo = append([]ProfileType(nil), patch.ApplicableTo...)
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}

	out := clonePromotions(s.promotions)
	out[i] = p
	s.promotions = out

	s.notifyLocked()
	s.mu.Unlock()
	return p, nil
}

// DeletePromotion removes a promotion record.
func (s *Store) DeletePromotion(id string) error {
	s.mu.Lock()
	i := s.findPromotion(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	out := make([]Promotion, 0, len(s.promotions)-1)
	out = append(out, s.promotions[:i]...)
	out = append(out, s.promotions[i+1:]...)
	s.promotions = out

	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// PromotionsFor returns the active promotions that apply to the given
// profile type, in insertion order.
func (s *Store) PromotionsFor(pt ProfileType) []Promotion {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Promotion
	for _, p := range s.promotions {
		if !p.Active {
			continue
		}
		for _, t := range p.ApplicableTo {
			if t == pt {
				out = append(out, p)
				break
			}
		}
	}
	return clonePromotions(out)
}

// Financial returns the current aggregate money block.
func (s *Store) Financial() FinancialData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.financial
}

// FinancialPatch updates a subset of the financial aggregates. Nil
// fields are left untouched.
type FinancialPatch struct {
	TotalUserWallet  *float64
	TopUpToday       *float64
	RideRevenue      *float64
	OrderRevenue     *float64
	RefundsToday     *float64
	DriverPayoutsDue *float64
}

// UpdateFinancial applies the patch to the financial block and notifies
// subscribers.
func (s *Store) UpdateFinancial(p FinancialPatch) FinancialData {
	s.mu.Lock()

	fd := s.financial
	if p.TotalUserWallet != nil {
		fd.TotalUserWallet = *p.TotalUserWallet
	}
	if p.TopUpToday != nil {
		fd.TopUpToday = *p.TopUpToday
	}
	if p.RideRevenue != nil {
		fd.RideRevenue = *p.RideRevenue
	}
	if p.OrderRevenue != nil {
		fd.OrderRevenue = *p.OrderRevenue
	}
	if p.RefundsToday != nil {
		fd.RefundsToday = *p.RefundsToday
	}
	if p.DriverPayoutsDue != nil {
		fd.DriverPayoutsDue = *p.DriverPayoutsDue
	}
	s.financial = fd

	s.notifyLocked()
	s.mu.Unlock()
	return fd
}

func (s *Store) findPromotion(id string) int {
	for i, p := range s.promotions {
		if p.ID == id {
			return i
		}
	}
	return -1
}
