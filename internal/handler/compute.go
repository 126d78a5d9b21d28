package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"

	appI18n "github.com/pavelanni/sqi/internal/i18n"
	"github.com/pavelanni/sqi/internal/model"
	"github.com/pavelanni/sqi/internal/scoring"
	"github.com/pavelanni/sqi/internal/store"
)

func (h *Handler) handleComputeSQI(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUpload)
	data, ok := h.decodeStudentData(w, r, r.Body)
	if !ok {
		return
	}
	h.compute(w, r, data)
}

// multipartOverhead is allowed on top of MaxUpload for boundaries and part
// headers; the file part itself is held to MaxUpload.
const multipartOverhead = 1 << 20

func (h *Handler) handleUploadAttempts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.config.MaxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeTooLarge(w, r)
			return
		}
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "NoFileUploaded"), err.Error())
		return
	}

	file, header, err := r.FormFile("attempts_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "NoFileUploaded"), "")
		return
	}
	defer file.Close()

	if header.Size > h.config.MaxUpload {
		h.writeTooLarge(w, r)
		return
	}

	slog.Info("received attempts upload", "filename", header.Filename, "size", header.Size)

	data, ok := h.decodeStudentData(w, r, file)
	if !ok {
		return
	}
	h.compute(w, r, data)
}

func (h *Handler) writeTooLarge(w http.ResponseWriter, r *http.Request) {
	msg := appI18n.Td(r.Context(), "FileTooLarge", map[string]any{"Limit": humanize.IBytes(uint64(h.config.MaxUpload))})
	writeError(w, http.StatusRequestEntityTooLarge, msg, "")
}

// decodeStudentData reads a StudentData document and writes a 4xx response
// when the body is not one.
func (h *Handler) decodeStudentData(w http.ResponseWriter, r *http.Request, body io.Reader) (model.StudentData, bool) {
	var data model.StudentData
	err := json.NewDecoder(body).Decode(&data)
	if err == nil {
		return data, true
	}

	var (
		typeErr  *json.UnmarshalTypeError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		h.writeTooLarge(w, r)
	case errors.As(err, &typeErr):
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidInput"),
			fmt.Sprintf("%s must be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value))
	default:
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidJSON"), err.Error())
	}
	return data, false
}

// compute scores data against the current prompt version and writes the
// output record.
func (h *Handler) compute(w http.ResponseWriter, r *http.Request, data model.StudentData) {
	prompt, err := h.store.CurrentPrompt(r.Context())
	if err != nil {
		slog.Error("failed to load prompt version", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "ComputeFailed"), err.Error())
		return
	}

	out, err := scoring.ComputeSQI(data, store.VersionTag(prompt))
	if err != nil {
		var verr *scoring.ValidationError
		if errors.As(err, &verr) {
			msgID := "InvalidAttempt"
			if verr.Index < 0 {
				msgID = "InvalidInput"
			}
			slog.Warn("rejected scoring input", "student_id", data.StudentID, "error", err)
			writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), msgID), verr.Error())
			return
		}
		slog.Error("failed to compute SQI", "student_id", data.StudentID, "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "ComputeFailed"), err.Error())
		return
	}

	slog.Info("computed SQI",
		"student_id", out.StudentID,
		"attempts", len(data.Attempts),
		"overall_sqi", out.OverallSQI,
		"prompt_version", out.Metadata.DiagnosticPromptVersion,
	)

	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": OutputFilename(out.StudentID),
		}))
	}
	writeJSON(w, http.StatusOK, out)
}

// OutputFilename is the suggested file name for a downloaded output record.
func OutputFilename(studentID string) string {
	return "summary_customizer_input_" + studentID + ".json"
}
