package models

import "time"

// Settings is the single business-settings document. The collection is
// expected to hold at most one of these; absence is valid and clients fall
// back to DefaultSettings.
type Settings struct {
	ID                 string    `json:"id" bson:"settingsid"`
	WhatsappContact    string    `json:"whatsappContact" bson:"whatsappContact"`
	OpeningTime        string    `json:"openingTime" bson:"openingTime"`
	ClosingTime        string    `json:"closingTime" bson:"closingTime"`
	ManualOpenOverride bool      `json:"manualOpenOverride" bson:"manualOpenOverride"`
	BrandStory         string    `json:"brandStory" bson:"brandStory"`
	OffersText         string    `json:"offersText" bson:"offersText"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultOffersText is shown until an admin writes their own.
const DefaultOffersText = "Wednesday BOGO Special - Buy One Get One Free on all medium Premium & Delight pizzas! Valid every Wednesday. Cannot be combined with other offers."

// DefaultSettings is the client-side fallback used when no settings
// document exists yet or an event arrives with fields missing.
func DefaultSettings() Settings {
	return Settings{
		OpeningTime:        "10:00",
		ClosingTime:        "23:00",
		ManualOpenOverride: true,
		OffersText:         DefaultOffersText,
	}
}

// MenuImage is one uploaded menu card. Filename is the blob-store key; URL
// must always resolve to the blob actually stored under that key.
type MenuImage struct {
	ID         string    `json:"id" bson:"imageid"`
	Name       string    `json:"name" bson:"name"`
	Filename   string    `json:"filename" bson:"filename"`
	URL        string    `json:"url" bson:"url"`
	Size       int64     `json:"size" bson:"size"`
	MimeType   string    `json:"mimeType" bson:"mimeType"`
	UploadDate time.Time `json:"uploadDate" bson:"uploadDate"`
	IsActive   bool      `json:"isActive" bson:"isActive"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Admin is the back-office credential document.
type Admin struct {
	ID           string    `json:"id" bson:"adminid"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
