package controller

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github/itish2003/compliance-rag/models"
	"github/itish2003/compliance-rag/services"
)

// ComplianceController handles the HTTP requests for the compliance API. It
// depends on the retrieval pipeline for ingest, the agent service for
// evaluations, and the index for health reporting.
type ComplianceController struct {
	pipeline   *services.RetrievalPipeline
	agents     services.AgentService
	index      services.VectorIndex
	httpClient *http.Client
}

// NewComplianceController is called from main.go to inject the dependencies.
func NewComplianceController(pipeline *services.RetrievalPipeline, agents services.AgentService, index services.VectorIndex, httpClient *http.Client) *ComplianceController {
	return &ComplianceController{
		pipeline:   pipeline,
		agents:     agents,
		index:      index,
		httpClient: httpClient,
	}
}

// Health is the GET /health handler. It reports the number of indexed
// entries so an operator can tell an empty index from a broken one.
func (c *ComplianceController) Health(ctx *gin.Context) {
	entries, err := c.index.Count(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "index unreachable"})
		return
	}
	ctx.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: "Compliance RAG API",
		Entries: entries,
	})
}

// IngestDocuments is the POST /api/v1/ingest handler. It accepts either
// multipart DOCX uploads under the "documents" field or a JSON body naming a
// server-side directory. Non-DOCX uploads are rejected before extraction
// with an error naming the file and its content type.
func (c *ComplianceController) IngestDocuments(ctx *gin.Context) {
	var records []models.DocumentRecord

	if strings.HasPrefix(ctx.ContentType(), "multipart/form-data") {
		form, err := ctx.MultipartForm()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid multipart form: " + err.Error()})
			return
		}
		files := form.File["documents"]
		if len(files) == 0 {
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No documents uploaded; use the 'documents' form field"})
			return
		}
		for _, header := range files {
			data, err := readUpload(header)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Could not read file " + header.Filename + ": " + err.Error()})
				return
			}
			extracted, err := services.ExtractRecordFromUpload(header.Filename, header.Header.Get("Content-Type"), data)
			if err != nil {
				var unsupported *services.UnsupportedFileError
				if errors.As(err, &unsupported) {
					ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: unsupported.Error()})
					return
				}
				log.Printf("CONTROLLER: Extraction failed for %s: %v", header.Filename, err)
				ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Could not extract " + header.Filename})
				return
			}
			records = append(records, extracted...)
		}
	} else {
		var req models.IngestDirRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
			return
		}
		var err error
		records, err = services.ExtractRecordsFromDir(req.Dir)
		if err != nil {
			log.Printf("CONTROLLER: Directory extraction failed for %s: %v", req.Dir, err)
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Could not extract documents: " + err.Error()})
			return
		}
	}

	summary := c.pipeline.Ingest(ctx.Request.Context(), records)
	ctx.JSON(http.StatusOK, models.IngestResponse{Summary: summary})
}

// CheckCompliance is the POST /api/v1/compliance handler.
func (c *ComplianceController) CheckCompliance(ctx *gin.Context) {
	requestID := uuid.New().String()
	imageURIs, ok := c.collectImages(ctx, requestID)
	if !ok {
		return
	}

	verdict, err := c.agents.CheckCompliance(ctx.Request.Context(), imageURIs)
	if err != nil {
		log.Printf("CONTROLLER [%s]: Compliance check failed: %v", requestID, err)
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to evaluate compliance"})
		return
	}
	ctx.JSON(http.StatusOK, verdict)
}

// DetectTrademarks is the POST /api/v1/trademark handler.
func (c *ComplianceController) DetectTrademarks(ctx *gin.Context) {
	requestID := uuid.New().String()
	imageURIs, ok := c.collectImages(ctx, requestID)
	if !ok {
		return
	}

	verdict, err := c.agents.DetectTrademarks(ctx.Request.Context(), imageURIs)
	if err != nil {
		log.Printf("CONTROLLER [%s]: Trademark detection failed: %v", requestID, err)
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to detect trademarks"})
		return
	}
	ctx.JSON(http.StatusOK, verdict)
}

// collectImages normalizes the request's images to data URIs, from either
// multipart uploads under "images" or a JSON list of remote URLs. It writes
// the error response itself and reports success through the bool.
func (c *ComplianceController) collectImages(ctx *gin.Context, requestID string) ([]string, bool) {
	var imageURIs []string

	if strings.HasPrefix(ctx.ContentType(), "multipart/form-data") {
		form, err := ctx.MultipartForm()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid multipart form: " + err.Error()})
			return nil, false
		}
		files := form.File["images"]
		if len(files) < 1 || len(files) > 2 {
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Provide one or two images under the 'images' form field"})
			return nil, false
		}
		for _, header := range files {
			data, err := readUpload(header)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Could not read image " + header.Filename + ": " + err.Error()})
				return nil, false
			}
			mediaType := services.DetectImageMediaType(header.Header.Get("Content-Type"), header.Filename)
			imageURIs = append(imageURIs, services.EncodeDataURI(mediaType, data))
		}
		return imageURIs, true
	}

	var req models.ImageURLsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return nil, false
	}
	for _, url := range req.URLs {
		uri, err := services.FetchImageDataURI(ctx.Request.Context(), c.httpClient, url)
		if err != nil {
			log.Printf("CONTROLLER [%s]: Image download failed: %v", requestID, err)
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Could not fetch image: " + url})
			return nil, false
		}
		imageURIs = append(imageURIs, uri)
	}
	return imageURIs, true
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
