package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pagechat/pagechat/internal/core"
	"github.com/pagechat/pagechat/internal/store"
)

const maxUploadBytes = 10 << 20 // 10 MiB

type APIHandler struct {
	documentService *core.DocumentService
	chatService     *core.ChatService
	uploadDir       string
}

func NewAPIHandler(ds *core.DocumentService, cs *core.ChatService, uploadDir string) *APIHandler {
	return &APIHandler{
		documentService: ds,
		chatService:     cs,
		uploadDir:       uploadDir,
	}
}

type UploadResponse struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
	PageCount  int    `json:"pageCount"`
}

func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form or file too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		http.Error(w, "Only PDF files are allowed", http.StatusBadRequest)
		return
	}

	path, err := h.saveUpload(file, header.Filename)
	if err != nil {
		log.Printf("Error saving upload %q: %v", header.Filename, err)
		http.Error(w, "Failed to store uploaded file", http.StatusInternalServerError)
		return
	}

	doc, err := h.documentService.Ingest(r.Context(), header.Filename, path)
	if err != nil {
		log.Printf("Error ingesting %q: %v", header.Filename, err)
		http.Error(w, "Failed to process PDF", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(UploadResponse{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		PageCount:  len(doc.Pages),
	})
}

// saveUpload writes the uploaded file under the upload directory with a
// unique name, keeping the original filename as a suffix.
func (h *APIHandler) saveUpload(file io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s", uuid.NewString(), filepath.Base(originalName))
	path := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	return path, nil
}

func (h *APIHandler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.chatService.GetDocument(documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting document %s: %v", documentID, err)
		http.Error(w, "Failed to get document", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(doc)
}

func (h *APIHandler) GetDocumentFileHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.chatService.GetDocument(documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting document %s: %v", documentID, err)
		http.Error(w, "Failed to get document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, doc.Filepath)
}

type ChatRequest struct {
	DocumentID string `json:"documentId"`
	Message    string `json:"message"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" || req.Message == "" {
		http.Error(w, "Document ID and message are required", http.StatusBadRequest)
		return
	}

	entry, err := h.chatService.PostMessage(r.Context(), req.DocumentID, req.Message)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		log.Printf("Error handling chat for document %s: %v", req.DocumentID, err)
		http.Error(w, "Failed to generate response", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(entry)
}

func (h *APIHandler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	history, err := h.chatService.History(documentID)
	if err != nil {
		log.Printf("Error getting chat history for document %s: %v", documentID, err)
		http.Error(w, "Failed to get chat history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []store.ConversationEntry{}
	}
	json.NewEncoder(w).Encode(history)
}
