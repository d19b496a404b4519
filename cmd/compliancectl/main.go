// compliancectl is the operator tool for the compliance RAG index: it
// ingests reference documents and runs ad-hoc retrieval queries without
// going through the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github/itish2003/compliance-rag/config"
	"github/itish2003/compliance-rag/services"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

func main() {
	var cfgPath string
	var dataDir string
	var topK int

	root := &cobra.Command{
		Use:           "compliancectl",
		Short:         "Manage and query the apparel compliance document index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to the configuration file")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract reference documents from a directory and upsert them into the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pipeline, cleanup, err := buildPipeline(cmd.Context(), cfgPath, true)
			if err != nil {
				return err
			}
			defer cleanup()

			dir := dataDir
			if dir == "" {
				dir = cfg.DataDir
			}
			records, err := services.ExtractRecordsFromDir(dir)
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}
			fmt.Println(pipeline.Ingest(cmd.Context(), records))
			return nil
		},
	}
	ingestCmd.Flags().StringVar(&dataDir, "dir", "", "directory containing the reference documents (defaults to data_dir from config)")

	queryCmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a retrieval query against the existing index and print the context block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, pipeline, cleanup, err := buildPipeline(cmd.Context(), cfgPath, false)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := pipeline.Query(cmd.Context(), args[0], topK)
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
	queryCmd.Flags().IntVar(&topK, "top-k", services.DefaultTopK, "number of matches to fold into the context block")

	root.AddCommand(ingestCmd, queryCmd)

	if err := root.Execute(); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
}

// buildPipeline constructs the retrieval pipeline from configuration. The
// ingest path is allowed to create the index; the query path connects to the
// existing index only, and fails when it is absent.
func buildPipeline(ctx context.Context, cfgPath string, createIndex bool) (config.Config, *services.RetrievalPipeline, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	var chromaOpts []chromago.ClientOption
	if cfg.ChromaURL != "" {
		chromaOpts = append(chromaOpts, chromago.WithBaseURL(cfg.ChromaURL))
	}
	chromaClient, err := chromago.NewHTTPClient(chromaOpts...)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	cleanup := func() {
		if err := chromaClient.Close(); err != nil {
			log.Printf("Warning: Failed to close chroma client: %v", err)
		}
	}

	var index services.VectorIndex
	if createIndex {
		index, err = services.EnsureIndex(ctx, chromaClient, cfg.Index)
	} else {
		index, err = services.ConnectIndex(ctx, chromaClient, cfg.Index.Name)
	}
	if err != nil {
		cleanup()
		return config.Config{}, nil, nil, err
	}

	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		cleanup()
		return config.Config{}, nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	embedder := services.NewGeminiEmbedder(geminiClient, cfg.Embedding.Model, cfg.Index.Dimension, cfg.Embedding.BatchSize)
	return cfg, services.NewRetrievalPipeline(embedder, index, cfg.Embedding.BatchSize), cleanup, nil
}
