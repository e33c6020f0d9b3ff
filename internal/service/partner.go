package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/validation"
)

type PartnerInput struct {
	LogoAssetID  int64                     `json:"logoMediaId"`
	WebsiteURL   string                    `json:"websiteUrl"`
	DisplayOrder *int                      `json:"displayOrder"` // nil appends after the last partner
	Translations []PartnerTranslationInput `json:"translations"`
}

type PartnerTranslationInput struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

type PartnerService struct {
	repo      repository.PartnerRepository
	lifecycle *Lifecycle
	now       func() time.Time
}

func NewPartnerService(repo repository.PartnerRepository, lifecycle *Lifecycle) *PartnerService {
	return &PartnerService{
		repo:      repo,
		lifecycle: lifecycle,
		now:       time.Now,
	}
}

func (s *PartnerService) Create(ctx context.Context, in PartnerInput) (*model.Partner, error) {
	if err := validatePartner(in); err != nil {
		return nil, err
	}

	order := 0
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	} else {
		last, err := s.repo.MaxDisplayOrder()
		if err != nil {
			return nil, err
		}
		order = last + 1
	}

	now := s.now().UTC()
	partner := &model.Partner{
		LogoAssetID:  in.LogoAssetID,
		WebsiteURL:   in.WebsiteURL,
		DisplayOrder: order,
		CreatedAt:    now,
		UpdatedAt:    now,
		Translations: partnerTranslations(in.Translations),
	}

	err := s.repo.Create(partner)
	if err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}

	_, err = s.lifecycle.Attach(ctx, partner.LogoAssetID, partner.ID, model.OwnerPartner)
	if err != nil {
		s.lifecycle.Abandon(partner.ID, model.KindPartner, s.repo.Delete)
		return nil, err
	}

	return partner, nil
}

func (s *PartnerService) Update(ctx context.Context, id int64, in PartnerInput) (*model.Partner, error) {
	if err := validatePartner(in); err != nil {
		return nil, err
	}

	partner, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}
	previousLogo := partner.LogoAssetID

	_, err = s.lifecycle.Attach(ctx, in.LogoAssetID, partner.ID, model.OwnerPartner)
	if err != nil {
		return nil, err
	}

	partner.LogoAssetID = in.LogoAssetID
	partner.WebsiteURL = in.WebsiteURL
	if in.DisplayOrder != nil {
		partner.DisplayOrder = *in.DisplayOrder
	}
	partner.Translations = partnerTranslations(in.Translations)

	err = s.repo.Update(partner)
	if err != nil {
		s.lifecycle.Replace(in.LogoAssetID, previousLogo, partner.ID, model.OwnerPartner)
		return nil, fmt.Errorf("failed to update partner: %w", err)
	}

	s.lifecycle.Replace(previousLogo, partner.LogoAssetID, partner.ID, model.OwnerPartner)
	return partner, nil
}

func (s *PartnerService) Delete(_ context.Context, id int64) error {
	if _, err := s.repo.ByID(id); err != nil {
		return err
	}
	if err := s.lifecycle.ReleaseAll(id, model.KindPartner); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func (s *PartnerService) ByID(id int64) (*model.Partner, error) {
	return s.repo.ByID(id)
}

func (s *PartnerService) Partners() ([]*model.Partner, error) {
	return s.repo.Partners()
}

func validatePartner(in PartnerInput) error {
	if in.LogoAssetID <= 0 {
		return fmt.Errorf("%w: logo is required", ErrValidation)
	}
	if in.WebsiteURL != "" {
		if err := validation.ValidateLink(in.WebsiteURL); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if len(in.Translations) == 0 {
		return fmt.Errorf("%w: at least one name is required", ErrValidation)
	}
	seen := make(map[string]bool)
	for _, t := range in.Translations {
		if err := validation.ValidateLanguageCode(t.LanguageCode); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if seen[t.LanguageCode] {
			return fmt.Errorf("%w: duplicate translation %q", ErrValidation, t.LanguageCode)
		}
		seen[t.LanguageCode] = true
		if err := validation.ValidateRequired("name", t.Name, 255); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return nil
}

func partnerTranslations(in []PartnerTranslationInput) []*model.PartnerTranslation {
	out := make([]*model.PartnerTranslation, 0, len(in))
	for _, t := range in {
		out = append(out, &model.PartnerTranslation{
			LanguageCode: t.LanguageCode,
			Name:         t.Name,
		})
	}
	return out
}
