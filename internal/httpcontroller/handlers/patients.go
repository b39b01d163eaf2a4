package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/histolab/msinet-go/internal/datastore"
	"github.com/histolab/msinet-go/internal/errors"
	"github.com/histolab/msinet-go/internal/security"
)

// Home renders the home page with the session user's patients.
func (h *Handlers) Home(c echo.Context) error {
	user := currentUser(c)

	patients, err := h.DS.GetPatientsByUser(user.ID)
	if err != nil {
		return err
	}

	return h.render(c, http.StatusOK, "home", map[string]interface{}{
		"Title":    "Home",
		"Patients": patients,
	})
}

// GetCreatePatient renders the create patient form.
func (h *Handlers) GetCreatePatient(c echo.Context) error {
	return h.render(c, http.StatusOK, "create_patient", map[string]interface{}{
		"Title": "Create Patient",
	})
}

// PostCreatePatient validates the form and persists a new patient owned by
// the current session's user. No duplicate-name checking is performed.
func (h *Handlers) PostCreatePatient(c echo.Context) error {
	firstName := c.FormValue("firstName")

	if message, ok := security.FirstFailure(security.PatientChecks(firstName)); !ok {
		h.Sessions.Flash(c, "error", message)
		return h.render(c, http.StatusOK, "create_patient", map[string]interface{}{
			"Title": "Create Patient",
		})
	}

	user := currentUser(c)
	patient := &datastore.Patient{
		FirstName: firstName,
		UserID:    user.ID,
	}
	if err := h.DS.CreatePatient(patient); err != nil {
		return err
	}

	h.Sessions.Flash(c, "success", "Patient created!")
	return c.Redirect(http.StatusFound, "/")
}

// ResultHistory renders a patient's result history. Any authenticated user
// may view any patient's history; ownership is not checked.
func (h *Handlers) ResultHistory(c echo.Context) error {
	patientID, err := strconv.ParseUint(c.Param("patient_id"), 10, 32)
	if err != nil {
		return h.NewHandlerError(err, "Patient not found", http.StatusNotFound)
	}

	patient, err := h.DS.GetPatient(uint(patientID))
	switch {
	case errors.Is(err, datastore.ErrNotFound):
		return h.NewHandlerError(err, "Patient not found", http.StatusNotFound)
	case err != nil:
		return err
	}

	return h.render(c, http.StatusOK, "result_history", map[string]interface{}{
		"Title":   "Result History",
		"Patient": patient,
	})
}
