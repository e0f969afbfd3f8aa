package schemas

import (
	"mime/multipart"
	"time"
)

// UploadRequest represents the multipart body of a program upload
// @Description Program upload request
type UploadRequest struct {
	Program *multipart.FileHeader `form:"program" binding:"required"` // Compiled Cairo 0 program or Cairo 2 CASM class
}

// UploadResponse represents the response body for an upload
// @Description Program upload response
type UploadResponse struct {
	Hash          string   `json:"hash"`           // Program hash (0x-prefixed hex)
	AlreadyExists bool     `json:"already_exists"` // Indicates a program with the same hash was already stored
	Version       int      `json:"version"`        // Compiler major version (0 or 2)
	Layout        string   `json:"layout"`         // Cheapest layout supporting the program's builtins
	Builtins      []string `json:"builtins"`       // Builtins required by the program
}

// HashQuery identifies a stored program
type HashQuery struct {
	ProgramHash string `form:"program_hash" binding:"required"`
}

// MetadataResponse describes a stored program without its code
// @Description Program metadata
type MetadataResponse struct {
	Version   int       `json:"version"`
	Layout    string    `json:"layout"`
	Builtins  []string  `json:"builtins"`
	CreatedAt time.Time `json:"created_at"`
}

// LayoutResponse describes an execution layout
// @Description Layout description
type LayoutResponse struct {
	Name     string   `json:"name"`
	Cost     uint32   `json:"cost"`
	Builtins []string `json:"builtins"`
}
