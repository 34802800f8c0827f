// README: Document registry handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medreview/internal/http/middleware"
	"medreview/internal/modules/document"
	"medreview/internal/types"
)

type DocumentHandler struct {
	documents *document.Service
}

func NewDocumentHandler(svc *document.Service) *DocumentHandler {
	return &DocumentHandler{documents: svc}
}

type uploadReq struct {
	OriginalName string `json:"original_name"`
	FileSize     int64  `json:"file_size"`
	FileType     string `json:"file_type"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	var req uploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.documents.Upload(c.Request.Context(), document.UploadCommand{
		OrderID:      types.ID(c.Param("id")),
		UploaderID:   middleware.CallerUID(c),
		OriginalName: req.OriginalName,
		FileSize:     req.FileSize,
		FileType:     req.FileType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, documentDTO(d))
}

func (h *DocumentHandler) Download(c *gin.Context) {
	d, err := h.documents.Download(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, documentDTO(d))
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.SoftDelete(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c)); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"is_active": false})
}

func (h *DocumentHandler) Restore(c *gin.Context) {
	if err := h.documents.Restore(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerUID(c)); err != nil {
		respondError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"is_active": true})
}

func (h *DocumentHandler) ListByOrder(c *gin.Context) {
	out, err := h.documents.ListByOrder(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]gin.H, 0, len(out))
	for _, d := range out {
		dtos = append(dtos, documentDTO(d))
	}
	writeJSON(c, http.StatusOK, gin.H{"documents": dtos})
}

func documentDTO(d *document.Document) gin.H {
	return gin.H{
		"id":             d.ID,
		"order_id":       d.OrderID,
		"file_name":      d.FileName,
		"original_name":  d.OriginalName,
		"file_size":      d.FileSize,
		"file_type":      d.FileType,
		"file_path":      d.FilePath,
		"uploaded_by":    d.UploadedBy,
		"is_active":      d.IsActive,
		"download_count": d.DownloadCount,
		"created_at":     d.CreatedAt,
	}
}
