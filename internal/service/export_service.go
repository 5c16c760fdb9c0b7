package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-room-api/internal/models"
	appErrors "github.com/noah-isme/campus-room-api/pkg/errors"
	"github.com/noah-isme/campus-room-api/pkg/export"
	"github.com/noah-isme/campus-room-api/pkg/storage"
)

type exportAllocationReader interface {
	ListAll(ctx context.Context) ([]models.RoomAllocation, error)
}

type exportClassroomReader interface {
	ListAll(ctx context.Context) ([]models.Classroom, error)
}

type exportRequestReader interface {
	ListAll(ctx context.Context) ([]models.RoomRequest, error)
}

// ArchivedExport describes a report persisted to the export archive.
type ArchivedExport struct {
	File      string    `json:"file"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportService assembles allocation report datasets for CSV and PDF output.
// When an archive store and signer are configured, rendered reports can also
// be persisted and served later through signed download tokens.
type ExportService struct {
	allocations exportAllocationReader
	rooms       exportClassroomReader
	requests    exportRequestReader
	archive     *storage.LocalStorage
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
}

// NewExportService constructs an ExportService. archive and signer may be nil,
// in which case archived downloads are rejected.
func NewExportService(allocations exportAllocationReader, rooms exportClassroomReader, requests exportRequestReader, archive *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		allocations: allocations,
		rooms:       rooms,
		requests:    requests,
		archive:     archive,
		signer:      signer,
		logger:      logger,
	}
}

// AllocationsDataset builds the tabular allocation report.
func (s *ExportService) AllocationsDataset(ctx context.Context) (export.Dataset, error) {
	allocations, err := s.allocations.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, err
	}

	roomsByID := make(map[string]models.Classroom, len(rooms))
	for _, room := range rooms {
		roomsByID[room.ID] = room
	}
	requestsByID := make(map[string]models.RoomRequest, len(requests))
	for _, req := range requests {
		requestsByID[req.ID] = req
	}

	dataset := export.Dataset{
		Headers: []string{"Allocation ID", "Room", "Building", "Purpose", "Start", "End", "Allocated By", "Status"},
	}
	for _, al := range allocations {
		room := roomsByID[al.ClassroomID]
		req := requestsByID[al.RequestID]
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Allocation ID": al.ID,
			"Room":          room.Code,
			"Building":      room.Building,
			"Purpose":       req.Purpose,
			"Start":         al.StartAt.Format("2006-01-02 15:04"),
			"End":           al.EndAt.Format("2006-01-02 15:04"),
			"Allocated By":  string(al.AllocatedBy),
			"Status":        string(al.Status),
		})
	}

	s.logger.Debug("allocation dataset assembled", zap.Int("rows", len(dataset.Rows)))
	return dataset, nil
}

// AllocationsCSV renders the allocation report as CSV bytes.
func (s *ExportService) AllocationsCSV(ctx context.Context) ([]byte, error) {
	dataset, err := s.AllocationsDataset(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render allocations csv: %w", err)
	}
	return raw, nil
}

// AllocationsPDF renders the allocation report as PDF bytes.
func (s *ExportService) AllocationsPDF(ctx context.Context) ([]byte, error) {
	dataset, err := s.AllocationsDataset(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := export.NewPDFExporter().Render(dataset, "Room Allocation Report")
	if err != nil {
		return nil, fmt.Errorf("render allocations pdf: %w", err)
	}
	return raw, nil
}

// ArchiveAllocations renders the report in the requested format, persists it
// to the export archive and returns a signed download token for it.
func (s *ExportService) ArchiveAllocations(ctx context.Context, format string) (*ArchivedExport, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "export archiving is not enabled")
	}

	var raw []byte
	var err error
	switch strings.ToLower(format) {
	case "csv", "":
		format = "csv"
		raw, err = s.AllocationsCSV(ctx)
	case "pdf":
		raw, err = s.AllocationsPDF(ctx)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("allocations-%s-%s.%s", time.Now().UTC().Format("20060102-150405"), id[:8], format)
	if _, err := s.archive.Save(filename, raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist allocation report")
	}

	token, expiresAt, err := s.signer.Generate(id, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign download token")
	}

	s.logger.Info("allocation report archived", zap.String("file", filename), zap.String("format", format))
	return &ArchivedExport{File: filename, Format: format, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenArchived validates a download token and opens the referenced report.
// The caller owns the returned file handle.
func (s *ExportService) OpenArchived(token string) (*os.File, string, error) {
	if s.archive == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "export archiving is not enabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download token")
	}
	file, err := s.archive.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "archived report not found")
	}
	contentType := "text/csv"
	if filepath.Ext(relPath) == ".pdf" {
		contentType = "application/pdf"
	}
	return file, contentType, nil
}
