package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	v1 "github.com/ignis-runtime/program-registry/api/rest/v1"
	"github.com/ignis-runtime/program-registry/api/rest/v1/middleware"
	"github.com/ignis-runtime/program-registry/api/rest/v1/schemas"
	"github.com/ignis-runtime/program-registry/internal/artifact"
	"github.com/ignis-runtime/program-registry/internal/repository"
	"github.com/ignis-runtime/program-registry/internal/services"
	"github.com/ignis-runtime/program-registry/internal/utils"
)

type ProgramHandler struct {
	service services.ProgramService
}

func NewProgramHandler(service services.ProgramService) *ProgramHandler {
	return &ProgramHandler{
		service: service,
	}
}

func (h *ProgramHandler) HandleUpload(c *gin.Context) error {
	var req schemas.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return v1.APIError{
				Code: http.StatusRequestEntityTooLarge,
				Err:  fmt.Sprintf("program exceeds %d bytes", maxErr.Limit),
			}
		}
		return v1.APIError{
			Code: http.StatusBadRequest,
			Err:  "Bad Request: multipart field \"program\" is required",
		}
	}

	file, err := req.Program.Open()
	if err != nil {
		return v1.APIError{Code: http.StatusBadRequest, Err: err.Error()}
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return v1.APIError{Code: http.StatusBadRequest, Err: err.Error()}
	}

	// Delegate the business logic to the service layer
	result, err := h.service.Ingest(c.Request.Context(), raw)
	if err != nil {
		return toAPIError(err)
	}

	var msg string
	if result.AlreadyExists {
		msg = "Program with same hash already exists"
	} else {
		msg = "Successfully uploaded"
	}

	return v1.APIResponse{
		Code: http.StatusOK,
		Msg:  msg,
		Data: schemas.UploadResponse{
			Hash:          result.Hash,
			AlreadyExists: result.AlreadyExists,
			Version:       int(result.Version),
			Layout:        result.Layout,
			Builtins:      result.Builtins,
		},
	}
}

// HandleGetProgram streams the stored artifact back unchanged.
func (h *ProgramHandler) HandleGetProgram(c *gin.Context) error {
	hash := c.GetString(middleware.ProgramHashKey)

	program, err := h.service.Fetch(c.Request.Context(), hash)
	if err != nil {
		return toAPIError(err)
	}

	etag := utils.ETag(program.Code)
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return nil
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.json\"", hash))
	c.Data(http.StatusOK, "application/json", program.Code)
	return nil
}

func (h *ProgramHandler) HandleGetMetadata(c *gin.Context) error {
	hash := c.GetString(middleware.ProgramHashKey)

	program, err := h.service.Fetch(c.Request.Context(), hash)
	if err != nil {
		return toAPIError(err)
	}

	c.JSON(http.StatusOK, schemas.MetadataResponse{
		Version:   program.Version,
		Layout:    program.Layout,
		Builtins:  program.Builtins,
		CreatedAt: program.CreatedAt,
	})
	return nil
}

// HandleResolveLayout answers which layout a set of builtins would run on,
// e.g. GET /layout?builtins=pedersen,range_check.
func (h *ProgramHandler) HandleResolveLayout(c *gin.Context) error {
	var builtins []string
	for _, b := range strings.Split(c.Query("builtins"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			builtins = append(builtins, b)
		}
	}

	spec := h.service.Resolve(builtins)
	c.JSON(http.StatusOK, schemas.LayoutResponse{
		Name:     spec.Name,
		Cost:     spec.Cost,
		Builtins: spec.Builtins,
	})
	return nil
}

func toAPIError(err error) error {
	switch {
	case errors.Is(err, artifact.ErrMalformedArtifact),
		errors.Is(err, artifact.ErrUnsupportedCompilerVersion),
		errors.Is(err, artifact.ErrHashComputation):
		return v1.APIError{Code: http.StatusBadRequest, Err: err.Error()}
	case errors.Is(err, repository.ErrNotFound):
		return v1.APIError{Code: http.StatusNotFound, Err: err.Error()}
	default:
		return v1.APIError{Code: http.StatusInternalServerError, Err: err.Error()}
	}
}
