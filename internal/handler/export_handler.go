package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-room-api/internal/service"
	"github.com/noah-isme/campus-room-api/pkg/response"
)

type exportService interface {
	AllocationsCSV(ctx context.Context) ([]byte, error)
	AllocationsPDF(ctx context.Context) ([]byte, error)
	ArchiveAllocations(ctx context.Context, format string) (*service.ArchivedExport, error)
	OpenArchived(token string) (*os.File, string, error)
}

// ExportHandler serves allocation report downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// AllocationsCSV godoc
// @Summary Download the allocation report as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Router /exports/allocations.csv [get]
func (h *ExportHandler) AllocationsCSV(c *gin.Context) {
	raw, err := h.service.AllocationsCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("allocations-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", raw)
}

// AllocationsPDF godoc
// @Summary Download the allocation report as PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200 {file} file
// @Router /exports/allocations.pdf [get]
func (h *ExportHandler) AllocationsPDF(c *gin.Context) {
	raw, err := h.service.AllocationsPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("allocations-%s.pdf", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", raw)
}

// Archive godoc
// @Summary Persist an allocation report and return a signed download token
// @Tags Exports
// @Produce json
// @Param format query string false "Report format (csv or pdf)"
// @Success 201 {object} response.Envelope
// @Router /exports/allocations [post]
func (h *ExportHandler) Archive(c *gin.Context) {
	archived, err := h.service.ArchiveAllocations(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, archived)
}

// Download godoc
// @Summary Stream a previously archived allocation report
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, contentType, err := h.service.OpenArchived(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(file.Name())))
	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)
	_, _ = io.Copy(c.Writer, file)
}
