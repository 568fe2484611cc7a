package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"sherpa/models"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

func fetchSnapshot(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("snapshot fetch returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// MenuAgent mirrors the menu-image list. It converges by applying change
// frames idempotently: replayed or reordered frames cannot duplicate
// entries. Events missed while disconnected stay missed until the owner
// calls LoadSnapshot again.
type MenuAgent struct {
	snapshotURL string

	mu        sync.RWMutex
	images    []models.MenuImage
	loading   bool
	lastErr   error
	connected bool
}

func NewMenuAgent(snapshotURL string) *MenuAgent {
	return &MenuAgent{snapshotURL: snapshotURL}
}

// Bind subscribes the agent to menu frames and connectivity changes.
func (a *MenuAgent) Bind(c *Conn) {
	c.On(models.ChannelMenuUpdate, a.Apply)
	c.OnConnectivity(func(connected bool) {
		a.mu.Lock()
		a.connected = connected
		a.mu.Unlock()
	})
}

// LoadSnapshot replaces the local list with the server's current state.
func (a *MenuAgent) LoadSnapshot(ctx context.Context) error {
	a.mu.Lock()
	a.loading = true
	a.mu.Unlock()

	var body struct {
		Data []models.MenuImage `json:"data"`
	}
	err := fetchSnapshot(ctx, a.snapshotURL, &body)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	a.lastErr = err
	if err != nil {
		return err
	}
	a.images = body.Data
	return nil
}

// Apply folds one menuUpdate frame into the local list.
func (a *MenuAgent) Apply(frame models.Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch frame.Event {
	case models.EventImagesAdded:
		var added []models.MenuImage
		if err := json.Unmarshal(frame.Data, &added); err != nil {
			log.Println("syncclient: bad imagesAdded payload:", err)
			return
		}
		// Drop any existing entry with an incoming id, then prepend, so a
		// replayed frame leaves the list unchanged.
		incoming := make(map[string]bool, len(added))
		for _, img := range added {
			incoming[img.ID] = true
		}
		kept := a.images[:0:0]
		for _, img := range a.images {
			if !incoming[img.ID] {
				kept = append(kept, img)
			}
		}
		a.images = append(append([]models.MenuImage{}, added...), kept...)

	case models.EventImageDeleted:
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			log.Println("syncclient: bad imageDeleted payload:", err)
			return
		}
		kept := a.images[:0:0]
		for _, img := range a.images {
			if img.ID != payload.ID {
				kept = append(kept, img)
			}
		}
		a.images = kept

	case models.EventImageUpdated:
		var updated models.MenuImage
		if err := json.Unmarshal(frame.Data, &updated); err != nil {
			log.Println("syncclient: bad imageUpdated payload:", err)
			return
		}
		for i := range a.images {
			if a.images[i].ID == updated.ID {
				a.images[i] = updated
				return
			}
		}
		a.images = append([]models.MenuImage{updated}, a.images...)

	default:
		log.Println("syncclient: unknown menu event:", frame.Event)
	}
}

// Images returns a copy of the current list.
func (a *MenuAgent) Images() []models.MenuImage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.MenuImage{}, a.images...)
}

// Loading reports whether a snapshot fetch is in flight.
func (a *MenuAgent) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

// Err returns the last snapshot error, nil after a successful load.
func (a *MenuAgent) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

// Connected mirrors the subscription's connectivity flag.
func (a *MenuAgent) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

// settingsPatch decodes a settings frame field by field, so missing fields
// fall back to defaults rather than zero values.
type settingsPatch struct {
	ID                 *string `json:"id"`
	WhatsappContact    *string `json:"whatsappContact"`
	OpeningTime        *string `json:"openingTime"`
	ClosingTime        *string `json:"closingTime"`
	ManualOpenOverride *bool   `json:"manualOpenOverride"`
	BrandStory         *string `json:"brandStory"`
	OffersText         *string `json:"offersText"`
}

// SettingsAgent mirrors the settings singleton, falling back to
// models.DefaultSettings until a snapshot or frame arrives.
type SettingsAgent struct {
	snapshotURL string

	mu        sync.RWMutex
	settings  models.Settings
	loaded    bool
	loading   bool
	lastErr   error
	connected bool
}

func NewSettingsAgent(snapshotURL string) *SettingsAgent {
	return &SettingsAgent{snapshotURL: snapshotURL, settings: models.DefaultSettings()}
}

// Bind subscribes the agent to settings frames and connectivity changes.
func (a *SettingsAgent) Bind(c *Conn) {
	c.On(models.ChannelSettingsUpdate, a.Apply)
	c.OnConnectivity(func(connected bool) {
		a.mu.Lock()
		a.connected = connected
		a.mu.Unlock()
	})
}

// LoadSnapshot replaces the local view with the server's current state.
func (a *SettingsAgent) LoadSnapshot(ctx context.Context) error {
	a.mu.Lock()
	a.loading = true
	a.mu.Unlock()

	var body struct {
		Data models.Settings `json:"data"`
	}
	err := fetchSnapshot(ctx, a.snapshotURL, &body)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	a.lastErr = err
	if err != nil {
		return err
	}
	a.settings = body.Data
	a.loaded = true
	return nil
}

// Apply merges a settingsUpdate frame onto the current view. Fields absent
// from the payload keep their current value, or the default when nothing
// has been loaded yet.
func (a *SettingsAgent) Apply(frame models.Frame) {
	var patch settingsPatch
	if err := json.Unmarshal(frame.Data, &patch); err != nil {
		log.Println("syncclient: bad settings payload:", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	base := a.settings
	if !a.loaded {
		base = models.DefaultSettings()
	}

	if patch.ID != nil {
		base.ID = *patch.ID
	}
	if patch.WhatsappContact != nil {
		base.WhatsappContact = *patch.WhatsappContact
	}
	if patch.OpeningTime != nil {
		base.OpeningTime = *patch.OpeningTime
	}
	if patch.ClosingTime != nil {
		base.ClosingTime = *patch.ClosingTime
	}
	if patch.ManualOpenOverride != nil {
		base.ManualOpenOverride = *patch.ManualOpenOverride
	}
	if patch.BrandStory != nil {
		base.BrandStory = *patch.BrandStory
	}
	if patch.OffersText != nil {
		base.OffersText = *patch.OffersText
	}

	a.settings = base
	a.loaded = true
}

// Settings returns the current view.
func (a *SettingsAgent) Settings() models.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Loading reports whether a snapshot fetch is in flight.
func (a *SettingsAgent) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

// Err returns the last snapshot error, nil after a successful load.
func (a *SettingsAgent) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

// Connected mirrors the subscription's connectivity flag.
func (a *SettingsAgent) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}
