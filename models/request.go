package models

// IngestDirRequest asks the server to ingest every reference document found
// under a directory on the server's filesystem.
type IngestDirRequest struct {
	Dir string `json:"dir" binding:"required"`
}

// ImageURLsRequest carries remote image URLs for an evaluation request, as an
// alternative to multipart uploads.
type ImageURLsRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,max=2"`
}
