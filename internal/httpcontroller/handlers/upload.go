package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/histolab/msinet-go/internal/msinet"
)

// allowedExtensions lists the accepted upload formats, lowercase.
var allowedExtensions = []string{".jpg", ".jpeg", ".png"}

// renderUploadPage renders the upload page with the session user's patients
// for the result form, merged with any prediction data.
func (h *Handlers) renderUploadPage(c echo.Context, extra map[string]interface{}) error {
	user := currentUser(c)
	patients, err := h.DS.GetPatientsByUser(user.ID)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"Title":    "Upload Image",
		"Patients": patients,
	}
	for k, v := range extra {
		data[k] = v
	}
	return h.render(c, http.StatusOK, "upload_image", data)
}

// GetUploadImage renders the upload form.
func (h *Handlers) GetUploadImage(c echo.Context) error {
	return h.renderUploadPage(c, nil)
}

// PostGetOutput accepts an uploaded slide image, runs it through the
// classification model and renders the predicted label with its percentage.
// The prediction is not persisted; that only happens via an explicit
// save result request after the user has reviewed it.
func (h *Handlers) PostGetOutput(c echo.Context) error {
	fileHeader, err := c.FormFile("my_image")
	if err != nil || fileHeader.Filename == "" {
		h.Sessions.Flash(c, "error", "No Image Selected")
		return h.renderUploadPage(c, nil)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !extensionAllowed(ext) {
		h.Sessions.Flash(c, "error", "File must be .jpg, .jpeg, or .png")
		return h.renderUploadPage(c, nil)
	}

	storedName, err := h.storeUpload(fileHeader, ext)
	if err != nil {
		return err
	}

	prediction, err := h.Classifier.Classify(filepath.Join(h.Settings.Uploads.Path, storedName))
	if err != nil {
		return err
	}

	best := prediction.Best()
	return h.renderUploadPage(c, map[string]interface{}{
		"PredLabel": best.Label,
		"PredPerc":  msinet.FormatPercentage(best.Confidence),
		"ShowImage": "/uploads/" + storedName,
	})
}

// extensionAllowed reports whether ext is an accepted upload format.
func extensionAllowed(ext string) bool {
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// storeUpload persists the uploaded file under the uploads directory with a
// generated storage key. Client-supplied filenames never reach the
// filesystem.
func (h *Handlers) storeUpload(fileHeader *multipart.FileHeader, ext string) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(h.Settings.Uploads.Path, 0o755); err != nil {
		return "", err
	}

	storedName := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.Settings.Uploads.Path, storedName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return storedName, nil
}
