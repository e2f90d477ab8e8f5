package handler

import (
	"io"
	"strings"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/dto"
	"neurabuddy/internal/extractor"
	"neurabuddy/internal/service"
	"neurabuddy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const uploadedFileSource = "uploaded_file"

// IngestHandler manages knowledge base documents.
type IngestHandler struct {
	service   service.IngestService
	validator *validation.Validator
}

func NewIngestHandler(service service.IngestService) *IngestHandler {
	return &IngestHandler{service: service, validator: validation.NewValidator()}
}

// Ingest godoc
// @Summary Ingest a document
// @Description Chunks, embeds and indexes inline content or a server-side file
// @Tags ingestion
// @Accept json
// @Produce json
// @Param request body dto.IngestRequest true "Document"
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /ingest [post]
func (h *IngestHandler) Ingest(c *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if errs := h.validator.ValidateIngestRequest(req); len(errs) > 0 {
		return errs
	}
	format, _ := extractor.ParseFormat(req.FileType)

	res, err := h.service.Ingest(c.UserContext(), service.IngestParams{
		Content:  req.Content,
		FilePath: req.FilePath,
		Format:   format,
		Source:   req.Source,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}
	return c.JSON(ingestResponse(res))
}

// IngestFile godoc
// @Summary Ingest an uploaded file
// @Description Accepts PDF, HTML, PPTX or plain text; the format is taken from the file name
// @Tags ingestion
// @Accept mpfd
// @Produce json
// @Param file formData file true "Document"
// @Param source formData string false "Source label"
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /ingest/file [post]
func (h *IngestHandler) IngestFile(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.NewError(domain.CodeInvalidInput, "file is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return domain.NewInternalError("failed to open upload", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return domain.NewInternalError("failed to read upload", err)
	}
	if len(data) == 0 {
		return domain.NewInvalidInputError("uploaded file is empty")
	}

	source := strings.TrimSpace(c.FormValue("source"))
	if source == "" {
		source = uploadedFileSource
	}
	res, err := h.service.Ingest(c.UserContext(), service.IngestParams{
		Data:     data,
		Filename: fh.Filename,
		Source:   source,
		Metadata: map[string]string{"filename": fh.Filename},
	})
	if err != nil {
		return err
	}
	return c.JSON(ingestResponse(res))
}

// DeleteDocument godoc
// @Summary Delete a document
// @Description Removes every chunk of a document from the index
// @Tags ingestion
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /documents/{id} [delete]
func (h *IngestHandler) DeleteDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteDocument(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "document " + id + " deleted"})
}

func ingestResponse(res *service.IngestResult) dto.IngestResponse {
	return dto.IngestResponse{
		Success:       true,
		ChunksCreated: res.ChunksCreated,
		Message:       "Document ingested successfully",
		DocumentID:    res.DocumentID,
		ChunkIDs:      res.ChunkIDs,
	}
}
