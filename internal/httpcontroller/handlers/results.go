package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/histolab/msinet-go/internal/datastore"
)

// PostSaveResult persists a reviewed classification outcome for a patient.
// A blank percentage is the sentinel for "no classification was produced"
// and nothing is persisted. The patient id is stored verbatim.
func (h *Handlers) PostSaveResult(c echo.Context) error {
	selectedPatient := c.FormValue("patientID")
	percentage := c.FormValue("percentage")
	note := c.FormValue("note")

	if strings.TrimSpace(percentage) == "" {
		h.Sessions.Flash(c, "error", "No Image Submitted")
		return h.renderUploadPage(c, nil)
	}

	patientID, err := strconv.ParseUint(selectedPatient, 10, 32)
	if err != nil {
		return h.NewHandlerError(err, "Invalid patient id", http.StatusBadRequest)
	}

	result := &datastore.Result{
		Note:       note,
		Percentage: percentage,
		PatientID:  uint(patientID),
	}
	if err := h.DS.SaveResult(result); err != nil {
		return err
	}

	h.Sessions.Flash(c, "success", "Saved Result")
	return c.Redirect(http.StatusFound, "/")
}
