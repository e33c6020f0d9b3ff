package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/validation"
)

type QuickLinkInput struct {
	IconAssetID  *int64                      `json:"iconMediaId"`
	LinkURL      string                      `json:"linkUrl"`
	DisplayOrder int                         `json:"displayOrder"`
	Active       bool                        `json:"active"`
	Translations []QuickLinkTranslationInput `json:"translations"`
}

type QuickLinkTranslationInput struct {
	LanguageCode string `json:"languageCode"`
	Title        string `json:"title"`
}

// QuickLinkService manages quick access links. Their icon is optional.
type QuickLinkService struct {
	repo      repository.QuickLinkRepository
	lifecycle *Lifecycle
	now       func() time.Time
}

func NewQuickLinkService(repo repository.QuickLinkRepository, lifecycle *Lifecycle) *QuickLinkService {
	return &QuickLinkService{
		repo:      repo,
		lifecycle: lifecycle,
		now:       time.Now,
	}
}

func (s *QuickLinkService) Create(ctx context.Context, in QuickLinkInput) (*model.QuickLink, error) {
	if err := validateQuickLink(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	link := &model.QuickLink{
		IconAssetID:  in.IconAssetID,
		LinkURL:      in.LinkURL,
		DisplayOrder: in.DisplayOrder,
		Active:       in.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
		Translations: quickLinkTranslations(in.Translations),
	}

	err := s.repo.Create(link)
	if err != nil {
		return nil, fmt.Errorf("failed to create quick link: %w", err)
	}

	if link.IconAssetID != nil {
		_, err = s.lifecycle.Attach(ctx, *link.IconAssetID, link.ID, model.OwnerQuickAccess)
		if err != nil {
			s.lifecycle.Abandon(link.ID, model.KindQuickAccess, s.repo.Delete)
			return nil, err
		}
	}

	return link, nil
}

func (s *QuickLinkService) Update(ctx context.Context, id int64, in QuickLinkInput) (*model.QuickLink, error) {
	if err := validateQuickLink(in); err != nil {
		return nil, err
	}

	link, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}
	previousIcon := assetID(link.IconAssetID)
	newIcon := assetID(in.IconAssetID)

	if newIcon != 0 {
		_, err = s.lifecycle.Attach(ctx, newIcon, link.ID, model.OwnerQuickAccess)
		if err != nil {
			return nil, err
		}
	}

	link.IconAssetID = in.IconAssetID
	link.LinkURL = in.LinkURL
	link.DisplayOrder = in.DisplayOrder
	link.Active = in.Active
	link.Translations = quickLinkTranslations(in.Translations)

	err = s.repo.Update(link)
	if err != nil {
		s.lifecycle.Replace(newIcon, previousIcon, link.ID, model.OwnerQuickAccess)
		return nil, fmt.Errorf("failed to update quick link: %w", err)
	}

	// Removing the icon releases it as well
	s.lifecycle.Replace(previousIcon, newIcon, link.ID, model.OwnerQuickAccess)
	return link, nil
}

func (s *QuickLinkService) Delete(_ context.Context, id int64) error {
	if _, err := s.repo.ByID(id); err != nil {
		return err
	}
	if err := s.lifecycle.ReleaseAll(id, model.KindQuickAccess); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func (s *QuickLinkService) ByID(id int64) (*model.QuickLink, error) {
	return s.repo.ByID(id)
}

func (s *QuickLinkService) QuickLinks(activeOnly bool) ([]*model.QuickLink, error) {
	return s.repo.QuickLinks(activeOnly)
}

func validateQuickLink(in QuickLinkInput) error {
	if in.IconAssetID != nil && *in.IconAssetID <= 0 {
		return fmt.Errorf("%w: invalid icon", ErrValidation)
	}
	if err := validation.ValidateLink(in.LinkURL); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
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
		if err := validation.ValidateRequired("title", t.Title, 255); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return nil
}

func quickLinkTranslations(in []QuickLinkTranslationInput) []*model.QuickLinkTranslation {
	out := make([]*model.QuickLinkTranslation, 0, len(in))
	for _, t := range in {
		out = append(out, &model.QuickLinkTranslation{
			LanguageCode: t.LanguageCode,
			Title:        t.Title,
		})
	}
	return out
}

func assetID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
