package menu

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"sherpa/middleware"
	"sherpa/models"
	"sherpa/rdx"
	"sherpa/utils"

	"github.com/julienschmidt/httprouter"
)

const activeCacheKey = "menu:active"

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithError(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, models.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Image not found")
	default:
		log.Println(fallback+":", err)
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// GetActiveMenu serves the public storefront list, newest first. Cached in
// redis until the next mutation.
func GetActiveMenu(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if cached, err := rdx.RdxGet(activeCacheKey); err == nil && cached != "" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(cached))
			return
		}

		images, err := svc.ActiveImages(r.Context())
		if err != nil {
			writeServiceError(w, err, "Failed to load menu")
			return
		}

		body := utils.M{"success": true, "data": images, "count": len(images)}
		if raw, err := json.Marshal(body); err == nil {
			rdx.RdxSet(activeCacheKey, string(raw))
		}
		utils.RespondWithJSON(w, http.StatusOK, body)
	}
}

// GetMenuImage serves one image document by id. Inactive images exist only
// for admins; the public gets a 404 for them.
func GetMenuImage(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		img, err := svc.ImageByID(r.Context(), ps.ByName("id"))
		if err != nil {
			writeServiceError(w, err, "Failed to load image")
			return
		}
		if !img.IsActive && !middleware.HasRole(r, "admin") {
			utils.RespondWithError(w, http.StatusNotFound, "Image not found")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": img})
	}
}

// GetAllMenu serves the paginated admin list, active and inactive alike.
func GetAllMenu(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		images, total, err := svc.AllImages(r.Context(), page, limit)
		if err != nil {
			writeServiceError(w, err, "Failed to load menu")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": true,
			"data":    images,
			"count":   total,
		})
	}
}

// UploadMenuImages accepts up to MaxUploadFiles files in the "menuImages"
// multipart field.
func UploadMenuImages(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := r.ParseMultipartForm(MaxUploadSize * MaxUploadFiles); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}

		files := r.MultipartForm.File["menuImages"]
		if len(files) == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "No files provided")
			return
		}

		uploads := make([]Upload, 0, len(files))
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
				return
			}
			uploads = append(uploads, Upload{
				Data:     data,
				Name:     fh.Filename,
				MimeType: fh.Header.Get("Content-Type"),
				Size:     fh.Size,
			})
		}

		added, results, err := svc.UploadImages(r.Context(), uploads)
		if err != nil {
			writeServiceError(w, err, "Upload failed")
			return
		}

		rdx.RdxDel(activeCacheKey)

		status := http.StatusCreated
		if len(added) == 0 {
			status = http.StatusBadRequest
		}
		utils.RespondWithJSON(w, status, utils.M{
			"success": len(added) > 0,
			"message": UploadSummary(len(added), results),
			"data":    added,
			"count":   len(added),
			"results": results,
		})
	}
}

type updatePayload struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
}

// UpdateMenuImage patches name and/or active flag.
func UpdateMenuImage(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var in updatePayload
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		img, err := svc.UpdateImage(r.Context(), ps.ByName("id"), Patch{Name: in.Name, IsActive: in.IsActive})
		if err != nil {
			writeServiceError(w, err, "Failed to update image")
			return
		}

		rdx.RdxDel(activeCacheKey)
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": true,
			"message": "Image updated",
			"data":    img,
		})
	}
}

// DeleteMenuImage removes an image document and its blob.
func DeleteMenuImage(svc *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := svc.DeleteImage(r.Context(), ps.ByName("id")); err != nil {
			writeServiceError(w, err, "Failed to delete image")
			return
		}

		rdx.RdxDel(activeCacheKey)
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": true,
			"message": "Image deleted",
		})
	}
}
