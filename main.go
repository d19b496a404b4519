package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github/itish2003/compliance-rag/config"
	"github/itish2003/compliance-rag/controller"
	"github/itish2003/compliance-rag/services"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	var chromaOpts []chromago.ClientOption
	if cfg.ChromaURL != "" {
		chromaOpts = append(chromaOpts, chromago.WithBaseURL(cfg.ChromaURL))
	}
	chromaClient, err := chromago.NewHTTPClient(chromaOpts...)
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if err := chromaClient.Close(); err != nil {
			log.Printf("Warning: Failed to close chroma client: %v", err)
		}
	}()

	ctx := context.Background()

	// The server owns the ingest path, so it may create the index on first
	// start. Read-only tools use ConnectIndex instead.
	index, err := services.EnsureIndex(ctx, chromaClient, cfg.Index)
	if err != nil {
		log.Fatalf("FATAL: Failed to get or create index: %v", err)
	}

	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to create Gemini client: %v. Make sure GEMINI_API_KEY is set.", err)
	}
	log.Println("Successfully connected to Google Gemini.")

	embedder := services.NewGeminiEmbedder(geminiClient, cfg.Embedding.Model, cfg.Index.Dimension, cfg.Embedding.BatchSize)
	pipeline := services.NewRetrievalPipeline(embedder, index, cfg.Embedding.BatchSize)
	agents := services.NewAgentService(geminiClient, cfg.Agent.Model, pipeline)
	complianceController := controller.NewComplianceController(pipeline, agents, index, httpClient)

	if cfg.WatchDir {
		watcher := services.NewDirectoryWatcher(pipeline)
		go watcher.Watch(ctx, cfg.DataDir)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", complianceController.Health)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/ingest", complianceController.IngestDocuments)     // Upload or ingest reference documents
		apiV1.POST("/compliance", complianceController.CheckCompliance) // Evaluate a design for licensing compliance
		apiV1.POST("/trademark", complianceController.DetectTrademarks) // Detect licensed trademarks in a design
	}

	log.Printf("Compliance RAG server starting on http://localhost:%s", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  POST http://localhost:%s/api/v1/ingest", cfg.Port)
	log.Printf("  POST http://localhost:%s/api/v1/compliance", cfg.Port)
	log.Printf("  POST http://localhost:%s/api/v1/trademark", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
