package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sandeepkv93/product-catalog-api/internal/http/response"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
	"github.com/sandeepkv93/product-catalog-api/internal/service"
)

const (
	msgUploadMissing = "Nenhum arquivo enviado"
	msgUploadFailed  = "Erro ao fazer upload da imagem"
)

type MediaHandler struct {
	uploader service.MediaUploader
}

func NewMediaHandler(uploader service.MediaUploader) *MediaHandler {
	return &MediaHandler{uploader: uploader}
}

// Upload hosts the image carried in the "file" field of a JSON or
// form-urlencoded body and responds with its public URL.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, err := uploadFileField(r)
	if bodyTooLarge(err) {
		response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", msgBodyTooLarge, nil)
		return
	}
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", msgUploadMissing, nil)
		return
	}
	if strings.TrimSpace(file) == "" {
		observability.RecordMiddlewareValidationEvent(r.Context(), "upload_payload", "missing_file")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", msgUploadMissing, nil)
		return
	}

	asset, err := h.uploader.Upload(r.Context(), file)
	if err != nil {
		if errors.Is(err, service.ErrMediaFileMissing) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", msgUploadMissing, nil)
			return
		}
		observability.EmitAudit(r, observability.AuditInput{
			EventName:  "media.upload",
			TargetType: "media",
			TargetID:   "unassigned",
			Action:     "upload",
			Outcome:    "failure",
			Reason:     "upload_failed",
		})
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", msgUploadFailed, nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:  "media.upload",
		TargetType: "media",
		TargetID:   asset.Identifier,
		Action:     "upload",
		Outcome:    "success",
		Reason:     "media_uploaded",
	})
	response.JSON(w, r, http.StatusOK, map[string]string{"url": asset.URL})
}

func uploadFileField(r *http.Request) (string, error) {
	if isJSONRequest(r) {
		var body struct {
			File string `json:"file"`
		}
		if err := decodeJSON(r, &body); err != nil {
			if errors.Is(err, errEmptyBody) {
				return "", nil
			}
			return "", err
		}
		return body.File, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostForm.Get("file"), nil
}
