package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/validation"
)

type SlideInput struct {
	ImageAssetID int64                   `json:"mediaId"`
	DisplayOrder int                     `json:"displayOrder"`
	Active       bool                    `json:"active"`
	Translations []SlideTranslationInput `json:"translations"`
}

type SlideTranslationInput struct {
	LanguageCode string `json:"languageCode"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}

type SlideService struct {
	repo      repository.SlideRepository
	lifecycle *Lifecycle
	now       func() time.Time
}

func NewSlideService(repo repository.SlideRepository, lifecycle *Lifecycle) *SlideService {
	return &SlideService{
		repo:      repo,
		lifecycle: lifecycle,
		now:       time.Now,
	}
}

func (s *SlideService) Create(ctx context.Context, in SlideInput) (*model.Slide, error) {
	if err := validateSlide(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	slide := &model.Slide{
		ImageAssetID: in.ImageAssetID,
		DisplayOrder: in.DisplayOrder,
		Active:       in.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
		Translations: slideTranslations(in.Translations),
	}

	err := s.repo.Create(slide)
	if err != nil {
		return nil, fmt.Errorf("failed to create slide: %w", err)
	}

	_, err = s.lifecycle.Attach(ctx, slide.ImageAssetID, slide.ID, model.OwnerSlide)
	if err != nil {
		s.lifecycle.Abandon(slide.ID, model.KindSlide, s.repo.Delete)
		return nil, err
	}

	return slide, nil
}

func (s *SlideService) Update(ctx context.Context, id int64, in SlideInput) (*model.Slide, error) {
	if err := validateSlide(in); err != nil {
		return nil, err
	}

	slide, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}
	previousImage := slide.ImageAssetID

	_, err = s.lifecycle.Attach(ctx, in.ImageAssetID, slide.ID, model.OwnerSlide)
	if err != nil {
		return nil, err
	}

	slide.ImageAssetID = in.ImageAssetID
	slide.DisplayOrder = in.DisplayOrder
	slide.Active = in.Active
	slide.Translations = slideTranslations(in.Translations)

	err = s.repo.Update(slide)
	if err != nil {
		s.lifecycle.Replace(in.ImageAssetID, previousImage, slide.ID, model.OwnerSlide)
		return nil, fmt.Errorf("failed to update slide: %w", err)
	}

	s.lifecycle.Replace(previousImage, slide.ImageAssetID, slide.ID, model.OwnerSlide)
	return slide, nil
}

func (s *SlideService) Delete(_ context.Context, id int64) error {
	if _, err := s.repo.ByID(id); err != nil {
		return err
	}
	if err := s.lifecycle.ReleaseAll(id, model.KindSlide); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func (s *SlideService) ByID(id int64) (*model.Slide, error) {
	return s.repo.ByID(id)
}

func (s *SlideService) Slides(activeOnly bool) ([]*model.Slide, error) {
	return s.repo.Slides(activeOnly)
}

func validateSlide(in SlideInput) error {
	if in.ImageAssetID <= 0 {
		return fmt.Errorf("%w: image is required", ErrValidation)
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

func slideTranslations(in []SlideTranslationInput) []*model.SlideTranslation {
	out := make([]*model.SlideTranslation, 0, len(in))
	for _, t := range in {
		out = append(out, &model.SlideTranslation{
			LanguageCode: t.LanguageCode,
			Title:        t.Title,
			Description:  t.Description,
		})
	}
	return out
}
