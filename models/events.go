package models

import (
	"encoding/json"
	"time"
)

// Wire channels carried in the Frame envelope.
const (
	ChannelMenuUpdate     = "menuUpdate"
	ChannelSettingsUpdate = "settingsUpdate"
)

// Menu event kinds carried in Frame.Event on the menuUpdate channel.
const (
	EventImagesAdded  = "imagesAdded"
	EventImageDeleted = "imageDeleted"
	EventImageUpdated = "imageUpdated"
)

// Frame is the envelope pushed to every connected session:
//
//	{"channel":"menuUpdate","event":"imagesAdded","data":[...],"timestamp":...}
//	{"channel":"settingsUpdate","data":{...},"timestamp":...}
type Frame struct {
	Channel   string          `json:"channel"`
	Event     string          `json:"event,omitempty"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// ChangeEvent describes one successful mutation. Every successful mutation
// produces exactly one ChangeEvent; each variant carries its own typed
// payload and knows its wire shape.
type ChangeEvent interface {
	Frame() (Frame, error)
}

// Broadcaster fans a ChangeEvent out to all currently-connected sessions.
// Fire-and-forget: sessions disconnected at broadcast time receive nothing.
type Broadcaster interface {
	Broadcast(ev ChangeEvent)
}

// ImagesAdded carries the full batch of a successful upload, one event per
// upload request regardless of file count.
type ImagesAdded struct {
	Images []MenuImage
}

func (e ImagesAdded) Frame() (Frame, error) {
	return menuFrame(EventImagesAdded, e.Images)
}

// ImageDeleted carries only the removed id.
type ImageDeleted struct {
	ID string
}

func (e ImageDeleted) Frame() (Frame, error) {
	return menuFrame(EventImageDeleted, map[string]string{"id": e.ID})
}

// ImageUpdated carries the full updated document.
type ImageUpdated struct {
	Image MenuImage
}

func (e ImageUpdated) Frame() (Frame, error) {
	return menuFrame(EventImageUpdated, e.Image)
}

// SettingsUpdated carries the full saved settings document.
type SettingsUpdated struct {
	Settings Settings
}

func (e SettingsUpdated) Frame() (Frame, error) {
	data, err := json.Marshal(e.Settings)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Channel:   ChannelSettingsUpdate,
		Data:      data,
		Timestamp: time.Now(),
	}, nil
}

func menuFrame(event string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Channel:   ChannelMenuUpdate,
		Event:     event,
		Data:      data,
		Timestamp: time.Now(),
	}, nil
}
