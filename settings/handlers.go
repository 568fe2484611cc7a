package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"sherpa/models"
	"sherpa/rdx"
	"sherpa/utils"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
)

const cacheKey = "settings:current"

// GetSettings returns the current settings, falling back to the defaults
// when nothing has been saved yet. Public, cached in redis.
func GetSettings(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if cached, err := rdx.RdxGet(cacheKey); err == nil && cached != "" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(cached))
			return
		}

		doc, found, err := svc.Get(r.Context())
		if err != nil {
			log.Println("get settings:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		if !found {
			doc = models.DefaultSettings()
		}

		body := utils.M{"success": true, "data": doc}
		if raw, err := json.Marshal(body); err == nil {
			rdx.RdxSet(cacheKey, string(raw))
		}
		utils.RespondWithJSON(w, http.StatusOK, body)
	}
}

// UpdateSettings applies an admin upsert and invalidates the cache.
func UpdateSettings(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var in Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		saved, err := svc.Upsert(r.Context(), in)
		if err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				utils.RespondWithError(w, http.StatusBadRequest, verr.Msg)
				return
			}
			log.Println("update settings:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}

		rdx.RdxDel(cacheKey)
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": true,
			"message": "Settings saved",
			"data":    saved,
		})
	}
}

// WhatsappQR renders the saved contact as a wa.me QR code PNG, so the
// storefront can show a scannable ordering link.
func WhatsappQR(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		doc, found, err := svc.Get(r.Context())
		if err != nil {
			log.Println("whatsapp qr:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		if !found || doc.WhatsappContact == "" {
			utils.RespondWithError(w, http.StatusNotFound, "No WhatsApp contact configured")
			return
		}

		png, err := qrcode.Encode(fmt.Sprintf("https://wa.me/%s", sanitizeContact(doc.WhatsappContact)), qrcode.Medium, 256)
		if err != nil {
			log.Println("whatsapp qr encode:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}

// wa.me links want digits only, no plus sign or spaces.
func sanitizeContact(contact string) string {
	out := make([]byte, 0, len(contact))
	for i := 0; i < len(contact); i++ {
		if contact[i] >= '0' && contact[i] <= '9' {
			out = append(out, contact[i])
		}
	}
	return string(out)
}
