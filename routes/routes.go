// Package routes wires the HTTP surface onto the router. Admin routes sit
// behind rate limiting, token auth and the admin role.
package routes

import (
	"net/http"

	"sherpa/auth"
	"sherpa/hub"
	"sherpa/menu"
	"sherpa/middleware"
	"sherpa/ratelim"
	"sherpa/settings"
	"sherpa/utils"

	"github.com/julienschmidt/httprouter"
)

func adminChain(rl *ratelim.RateLimiter) func(httprouter.Handle) httprouter.Handle {
	return middleware.Chain(rl.Limit, middleware.Authenticate, middleware.RequireRoles("admin"))
}

// AddAuthRoutes registers the login endpoint.
func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/login", rl.Limit(auth.Login))
}

// AddSettingsRoutes registers public reads and the admin upsert.
func AddSettingsRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, svc *settings.Service) {
	admin := adminChain(rl)

	router.GET("/api/settings", settings.GetSettings(svc))
	router.GET("/api/settings/whatsapp-qr", settings.WhatsappQR(svc))
	router.PUT("/api/settings", admin(settings.UpdateSettings(svc)))
}

// AddMenuRoutes registers the storefront reads and the admin mutations.
func AddMenuRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, svc *menu.Service, settingsSvc *settings.Service) {
	admin := adminChain(rl)

	router.GET("/api/menu", menu.GetActiveMenu(svc))
	router.GET("/api/menu/:id", middleware.OptionalAuth(menu.GetMenuImage(svc)))

	router.GET("/api/menu-admin/all", admin(menu.GetAllMenu(svc)))
	router.GET("/api/menu-admin/sheet.pdf", admin(menu.MenuSheetPDF(svc, settingsSvc)))
	router.POST("/api/menu-admin/upload", admin(menu.UploadMenuImages(svc)))
	router.PUT("/api/menu/:id", admin(menu.UpdateMenuImage(svc)))
	router.DELETE("/api/menu/:id", admin(menu.DeleteMenuImage(svc)))
}

// AddSyncRoutes registers the websocket endpoint and a health probe.
func AddSyncRoutes(router *httprouter.Router, h *hub.Hub) {
	router.GET("/ws/sync", hub.WebSocketHandler(h))
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		total, _ := h.SessionCount("")
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success":  true,
			"status":   "ok",
			"sessions": total,
		})
	})
}
