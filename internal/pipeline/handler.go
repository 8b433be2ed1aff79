package pipeline

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-review/internal/shared/server/middleware"
	"resume-review/internal/shared/server/respond"
	"resume-review/internal/shared/util"
)

// MissingFieldsMessage is shown when a submission lacks a field or the file.
const MissingFieldsMessage = "Please fill in all fields"

// multipart headers and the text fields on top of the document
const formOverhead = 1 << 20

// Handler exposes analysis runs over HTTP.
type Handler struct {
	Runner           *Runner
	MaxDocumentBytes int64
}

// NewHandler constructs a Handler; maxBytes <= 0 means DefaultMaxDocumentBytes.
func NewHandler(runner *Runner, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	return &Handler{Runner: runner, MaxDocumentBytes: maxBytes}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.start)
	rg.GET("/analyses/:id", h.status)
}

func (h *Handler) start(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxDocumentBytes+formOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File exceeds the "+util.FormatSize(h.MaxDocumentBytes)+" limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", MissingFieldsMessage, nil)
		return
	}

	req := Request{
		CompanyName:    strings.TrimSpace(formValue(form.Value, "companyName")),
		JobTitle:       strings.TrimSpace(formValue(form.Value, "jobTitle")),
		JobDescription: strings.TrimSpace(formValue(form.Value, "jobDescription")),
	}

	files := form.File["file"]
	if len(files) > 1 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Only one file can be uploaded", nil)
		return
	}

	var missing []string
	if req.CompanyName == "" {
		missing = append(missing, "companyName")
	}
	if req.JobTitle == "" {
		missing = append(missing, "jobTitle")
	}
	if req.JobDescription == "" {
		missing = append(missing, "jobDescription")
	}
	if len(files) == 0 {
		missing = append(missing, "file")
	}
	if len(missing) > 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", MissingFieldsMessage, gin.H{"fields": missing})
		return
	}

	fh := files[0]
	name, err := util.SanitizeFileName(fh.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}
	if err := CheckDocument(name, fh.Header.Get("Content-Type"), fh.Size, h.MaxDocumentBytes, nil); err != nil {
		h.documentError(c, err)
		return
	}

	file, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxDocumentBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	if err := CheckDocument(name, fh.Header.Get("Content-Type"), int64(len(data)), h.MaxDocumentBytes, data); err != nil {
		h.documentError(c, err)
		return
	}
	req.Document = data
	req.FileName = name

	snap, err := h.Runner.Start(c.Request.Context(), userID, req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "validation_error", MissingFieldsMessage, gin.H{"fields": verr.Fields})
		case errors.Is(err, ErrRunInFlight):
			respond.Error(c, http.StatusConflict, "run_in_flight", "An analysis is already in progress", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	c.Set("runId", snap.ID)
	respond.Accepted(c, strings.TrimRight(c.Request.URL.Path, "/")+"/"+snap.ID, gin.H{
		"runId":      snap.ID,
		"state":      snap.State.Phase,
		"statusText": snap.State.StatusText(),
	})
}

func (h *Handler) status(c *gin.Context) {
	id := c.Param("id")
	c.Set("runId", id)

	snap, err := h.Runner.Get(middleware.UserIDFromContext(c), id)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		return
	}

	body := gin.H{
		"runId":      snap.ID,
		"state":      snap.State.Phase,
		"statusText": snap.State.StatusText(),
	}
	switch snap.State.Phase {
	case PhaseComplete:
		body["reviewId"] = snap.State.ReviewID
		c.Set("reviewId", snap.State.ReviewID)
		loc := snap.Location
		if loc == "" {
			loc = ReviewsPath + snap.State.ReviewID
		}
		c.Header("Location", loc)
	case PhaseFailed:
		body["reason"] = snap.State.Reason
		if snap.State.Failure != nil {
			body["stage"] = snap.State.Failure.Stage
		}
	}
	respond.OK(c, body)
}

func (h *Handler) documentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDocumentTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large",
			"File exceeds the "+util.FormatSize(h.MaxDocumentBytes)+" limit", nil)
	case errors.Is(err, ErrUnsupportedDocument):
		respond.Error(c, http.StatusBadRequest, "unsupported_file_type", "Only PDF files are accepted", nil)
	default:
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	}
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
