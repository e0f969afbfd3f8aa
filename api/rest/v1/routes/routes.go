package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignis-runtime/program-registry/api/rest/server"
	v1 "github.com/ignis-runtime/program-registry/api/rest/v1"
	"github.com/ignis-runtime/program-registry/api/rest/v1/handlers"
	"github.com/ignis-runtime/program-registry/api/rest/v1/middleware"
	"github.com/ignis-runtime/program-registry/internal/services"
)

// @Summary Upload a compiled program
// @Description Stores a Cairo 0 program or Cairo 2 CASM class keyed by its program hash
// @Tags Programs
// @Accept multipart/form-data
// @Produce json
// @Param program formData file true "Compiled program JSON"
// @Success 200 {object} v1.APIResponse{data=schemas.UploadResponse}
// @Failure 400 {object} v1.APIError
// @Failure 500 {object} v1.APIError
// @Router /upload-program [post]
func uploadRoutes(h *handlers.ProgramHandler, maxUploadBytes int64, router gin.IRoutes) {
	router.POST("/upload-program", middleware.BodyLimit(maxUploadBytes), v1.ErrorHandler(h.HandleUpload))
}

// @Summary Download a program
// @Tags Programs
// @Produce json
// @Param program_hash query string true "Program hash"
// @Failure 404 {object} v1.APIError
// @Router /get-program [get]
func programRoutes(h *handlers.ProgramHandler, router gin.IRoutes) {
	router.GET("/get-program", middleware.HashValidator(), v1.ErrorHandler(h.HandleGetProgram))
	router.GET("/get-metadata", middleware.HashValidator(), v1.ErrorHandler(h.HandleGetMetadata))
}

func layoutRoutes(h *handlers.ProgramHandler, router gin.IRoutes) {
	router.GET("/layout", v1.ErrorHandler(h.HandleResolveLayout))
}

func RegisterRoutes(server *server.Server, service services.ProgramService, maxUploadBytes int64) {
	server.Engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := handlers.NewProgramHandler(service)
	apiv1 := server.Engine.Group("/api/v1")
	uploadRoutes(h, maxUploadBytes, apiv1)
	programRoutes(h, apiv1)
	layoutRoutes(h, apiv1)
}
