package menu

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"sherpa/settings"
	"sherpa/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// MenuSheetPDF renders a printable one-pager: the active menu cards as a
// list plus a WhatsApp ordering QR code, for counter display or handouts.
func MenuSheetPDF(svc *Service, settingsSvc *settings.Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		images, err := svc.ActiveImages(r.Context())
		if err != nil {
			writeServiceError(w, err, "Failed to load menu")
			return
		}

		cfg, found, err := settingsSvc.Get(r.Context())
		if err != nil {
			log.Println("menu sheet settings:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(0, 12, "Menu Sheet")
		pdf.Ln(14)

		pdf.SetFont("Arial", "", 11)
		if found {
			pdf.Cell(0, 8, fmt.Sprintf("Open %s - %s", cfg.OpeningTime, cfg.ClosingTime))
			pdf.Ln(8)
		}
		pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2 Jan 2006 15:04")))
		pdf.Ln(12)

		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 10, fmt.Sprintf("Menu cards (%d active)", len(images)))
		pdf.Ln(10)

		pdf.SetFont("Arial", "", 11)
		for i, img := range images {
			pdf.Cell(0, 8, fmt.Sprintf("%d. %s (%s)", i+1, img.Name, img.UploadDate.Format("2 Jan 2006")))
			pdf.Ln(7)
		}

		if found && cfg.WhatsappContact != "" {
			qrPNG, qerr := qrcode.Encode(fmt.Sprintf("https://wa.me/%s", cfg.WhatsappContact), qrcode.Medium, 256)
			if qerr == nil {
				imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
				pdf.RegisterImageOptionsReader("whatsapp-qr", imageOpts, bytes.NewReader(qrPNG))
				pdf.ImageOptions("whatsapp-qr", 150, 20, 40, 40, false, imageOpts, 0, "")
				pdf.Ln(6)
				pdf.SetFont("Arial", "I", 10)
				pdf.Cell(0, 8, "Scan the QR code to order on WhatsApp")
			}
		}

		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			log.Println("menu sheet pdf:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=menu-sheet.pdf")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
