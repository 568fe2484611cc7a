// Package settings owns the business-settings singleton: a single
// document holding the WhatsApp contact, opening hours and marketing
// copy, created on first write and never deleted.
package settings

import (
	"context"
	"time"

	"sherpa/models"
	"sherpa/utils"
)

// Store is the document-store surface the service needs. Get returns
// models.ErrNotFound when no settings document exists yet.
type Store interface {
	Get(ctx context.Context) (models.Settings, error)
	Upsert(ctx context.Context, s models.Settings) (models.Settings, error)
}

// Service validates and applies settings mutations, broadcasting one
// change event per successful write.
type Service struct {
	store Store
	bcast models.Broadcaster
}

func NewService(store Store, bcast models.Broadcaster) *Service {
	return &Service{store: store, bcast: bcast}
}

// Input is the admin-supplied field set for an upsert. Fields are written
// exactly as given; defaults only apply client-side when absent.
type Input struct {
	WhatsappContact    string `json:"whatsappContact"`
	OpeningTime        string `json:"openingTime"`
	ClosingTime        string `json:"closingTime"`
	ManualOpenOverride bool   `json:"manualOpenOverride"`
	BrandStory         string `json:"brandStory"`
	OffersText         string `json:"offersText"`
}

const (
	minContactLen = 5
	maxContactLen = 20
	maxOffersLen  = 500
)

func validate(in Input) error {
	if in.WhatsappContact == "" {
		return models.Invalid("WhatsApp contact is required")
	}
	if len(in.WhatsappContact) < minContactLen || len(in.WhatsappContact) > maxContactLen {
		return models.Invalid("WhatsApp contact must be between %d and %d characters", minContactLen, maxContactLen)
	}
	if in.OpeningTime == "" {
		return models.Invalid("Opening time is required")
	}
	if in.ClosingTime == "" {
		return models.Invalid("Closing time is required")
	}
	if len(in.OffersText) > maxOffersLen {
		return models.Invalid("Offers text must be at most %d characters", maxOffersLen)
	}
	return nil
}

// Upsert finds the singleton (creating it when absent), writes the given
// fields and broadcasts a settingsUpdate with the saved document.
func (s *Service) Upsert(ctx context.Context, in Input) (models.Settings, error) {
	if err := validate(in); err != nil {
		return models.Settings{}, err
	}

	now := time.Now()
	doc, err := s.store.Get(ctx)
	if err == models.ErrNotFound {
		doc = models.Settings{
			ID:        utils.GenerateID(),
			CreatedAt: now,
		}
	} else if err != nil {
		return models.Settings{}, err
	}

	doc.WhatsappContact = in.WhatsappContact
	doc.OpeningTime = in.OpeningTime
	doc.ClosingTime = in.ClosingTime
	doc.ManualOpenOverride = in.ManualOpenOverride
	doc.BrandStory = in.BrandStory
	doc.OffersText = in.OffersText
	doc.UpdatedAt = now

	saved, err := s.store.Upsert(ctx, doc)
	if err != nil {
		return models.Settings{}, err
	}

	s.bcast.Broadcast(models.SettingsUpdated{Settings: saved})
	return saved, nil
}

// Get returns the current settings, or found=false when none exist.
func (s *Service) Get(ctx context.Context) (models.Settings, bool, error) {
	doc, err := s.store.Get(ctx)
	if err == models.ErrNotFound {
		return models.Settings{}, false, nil
	}
	if err != nil {
		return models.Settings{}, false, err
	}
	return doc, true, nil
}
