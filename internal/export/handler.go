package export

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"lendit/internal/metrics"
)

// Handler serves the bookings register as a downloadable workbook.
type Handler struct {
	source RegisterSource
	logger *zerolog.Logger
}

func NewHandler(source RegisterSource, logger *zerolog.Logger) *Handler {
	return &Handler{source: source, logger: logger}
}

// WriteBookingsWorkbook streams the register.
// GET /admin/export
func (h *Handler) WriteBookingsWorkbook(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")

	writer := NewExcelizeWriter()
	defer writer.Close()

	if err := WriteRegister(r.Context(), h.source, writer); err != nil {
		h.logger.Error().Err(err).Msg("bookings export failed")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := writer.Save(w); err != nil {
		h.logger.Error().Err(err).Msg("failed to stream workbook")
	}
}
