package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagechat/pagechat/internal/api"
	"github.com/pagechat/pagechat/internal/config"
	"github.com/pagechat/pagechat/internal/core"
	"github.com/pagechat/pagechat/internal/pdf"
	"github.com/pagechat/pagechat/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Select the store: in-memory by default, SQLite when DATABASE_URL is set.
	var docStore store.Store
	if config.AppConfig.DatabaseURL != "" {
		sqliteStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		docStore = sqliteStore
		log.Printf("Using SQLite store at %s", config.AppConfig.DatabaseURL)
	} else {
		docStore = store.NewMemStore()
		log.Println("Using in-memory store (documents are lost on restart)")
	}
	defer docStore.Close()

	// Select the generation strategy once, by credential presence: Gemini
	// embeddings + grounded answers, or keyword citations + templates.
	var (
		embedder  core.Embedder
		responder core.Responder
	)
	if config.AppConfig.GeminiAPIKey != "" {
		llmService, err := core.NewLLMService(context.Background(), config.AppConfig.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to initialize LLM service: %v", err)
		}
		defer llmService.Close()
		embedder = llmService
		responder = core.NewGroundedResponder(llmService)
		log.Println("Grounded mode: Gemini embeddings and completions enabled")
	} else {
		responder = core.NewTemplateResponder()
		log.Println("Fallback mode: template answers and keyword citations")
	}

	documentService := core.NewDocumentService(docStore, pdf.NewExtractor(), embedder)
	ragService := core.NewRAGService(embedder)
	chatService := core.NewChatService(docStore, ragService, responder)

	apiHandler := api.NewAPIHandler(documentService, chatService, config.AppConfig.UploadDir)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // uploads trigger embedding fan-out
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
