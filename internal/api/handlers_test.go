package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagechat/pagechat/internal/core"
	"github.com/pagechat/pagechat/internal/store"
)

// fakeExtractor stands in for PDF parsing so uploads can carry any bytes.
type fakeExtractor struct {
	text string
}

func (f *fakeExtractor) Extract(string) (string, error) {
	return f.text, nil
}

// newTestServer wires the full fallback-mode stack (no credential: nil
// embedder, template responder) around an in-memory store.
func newTestServer(t *testing.T, extractedText string) *httptest.Server {
	t.Helper()
	st := store.NewMemStore()
	documentService := core.NewDocumentService(st, &fakeExtractor{text: extractedText}, nil)
	chatService := core.NewChatService(st, core.NewRAGService(nil), core.NewTemplateResponder())
	handler := NewAPIHandler(documentService, chatService, t.TempDir())

	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func uploadPDF(t *testing.T, server *httptest.Server, filename, contentType string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pdf"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake body"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(server.URL+"/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

const threePageText = "Page one text with enough characters.\fPage two text with enough characters.\fPage three text with enough characters."

func TestUpload_ReturnsPageCount(t *testing.T) {
	server := newTestServer(t, threePageText)

	resp := uploadPDF(t, server, "report.pdf", "application/pdf")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upload UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))
	assert.NotEmpty(t, upload.DocumentID)
	assert.Equal(t, "report.pdf", upload.Filename)
	assert.Equal(t, 3, upload.PageCount)
}

func TestUpload_RoundTripMatchesDocument(t *testing.T) {
	server := newTestServer(t, threePageText)

	resp := uploadPDF(t, server, "report.pdf", "application/pdf")
	defer resp.Body.Close()
	var upload UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))

	docResp, err := http.Get(server.URL + "/documents/" + upload.DocumentID)
	require.NoError(t, err)
	defer docResp.Body.Close()
	require.Equal(t, http.StatusOK, docResp.StatusCode)

	var doc store.Document
	require.NoError(t, json.NewDecoder(docResp.Body).Decode(&doc))
	assert.Equal(t, upload.DocumentID, doc.ID)
	assert.Len(t, doc.Pages, upload.PageCount)
	for i, page := range doc.Pages {
		assert.Equal(t, i+1, page.PageNumber)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	server := newTestServer(t, threePageText)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("unrelated", "value"))
	require.NoError(t, writer.Close())

	resp, err := http.Post(server.URL+"/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	server := newTestServer(t, threePageText)

	resp := uploadPDF(t, server, "notes.txt", "text/plain")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetDocument_Unknown(t *testing.T) {
	server := newTestServer(t, threePageText)

	resp, err := http.Get(server.URL + "/documents/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetDocumentFile_ServesPDF(t *testing.T) {
	server := newTestServer(t, threePageText)

	resp := uploadPDF(t, server, "report.pdf", "application/pdf")
	defer resp.Body.Close()
	var upload UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))

	fileResp, err := http.Get(server.URL + "/documents/" + upload.DocumentID + "/file")
	require.NoError(t, err)
	defer fileResp.Body.Close()

	require.Equal(t, http.StatusOK, fileResp.StatusCode)
	assert.Equal(t, "application/pdf", fileResp.Header.Get("Content-Type"))
}

func TestChat_MissingFields(t *testing.T) {
	server := newTestServer(t, threePageText)

	for _, body := range []string{
		`{}`,
		`{"documentId":"x"}`,
		`{"message":"hi"}`,
	} {
		resp, err := http.Post(server.URL+"/chat", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}

func TestChat_UnknownDocument(t *testing.T) {
	server := newTestServer(t, threePageText)

	resp, err := http.Post(server.URL+"/chat", "application/json",
		strings.NewReader(`{"documentId":"nope","message":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChat_FallbackSummaryWithKeywordCitations(t *testing.T) {
	// No credential configured: the summary template answers, and the
	// citations come from keyword matching.
	server := newTestServer(t, "This report can be summarized as strong annual growth in every region.")

	resp := uploadPDF(t, server, "report.pdf", "application/pdf")
	defer resp.Body.Close()
	var upload UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))

	chatResp, err := http.Post(server.URL+"/chat", "application/json",
		strings.NewReader(fmt.Sprintf(`{"documentId":%q,"message":"Can you summarize?"}`, upload.DocumentID)))
	require.NoError(t, err)
	defer chatResp.Body.Close()
	require.Equal(t, http.StatusOK, chatResp.StatusCode)

	var entry store.ConversationEntry
	require.NoError(t, json.NewDecoder(chatResp.Body).Decode(&entry))

	assert.True(t, strings.HasPrefix(entry.Response.Text, "Based on the document, here's a summary:"))
	require.NotEmpty(t, entry.Response.Citations)
	assert.Equal(t, 1, entry.Response.Citations[0].Page)
	assert.Equal(t, "Can you summarize?", entry.Message)
	assert.NotEmpty(t, entry.ID)
}

func TestChatHistory_EmptyThenPopulated(t *testing.T) {
	server := newTestServer(t, threePageText)

	resp := uploadPDF(t, server, "report.pdf", "application/pdf")
	defer resp.Body.Close()
	var upload UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))

	histResp, err := http.Get(server.URL + "/chat/" + upload.DocumentID)
	require.NoError(t, err)
	var history []store.ConversationEntry
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&history))
	histResp.Body.Close()
	assert.NotNil(t, history)
	assert.Empty(t, history)

	chatResp, err := http.Post(server.URL+"/chat", "application/json",
		strings.NewReader(fmt.Sprintf(`{"documentId":%q,"message":"what is the main topic"}`, upload.DocumentID)))
	require.NoError(t, err)
	chatResp.Body.Close()

	histResp, err = http.Get(server.URL + "/chat/" + upload.DocumentID)
	require.NoError(t, err)
	defer histResp.Body.Close()
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "what is the main topic", history[0].Message)
}

func TestChatHistory_UnknownDocumentIsEmptyArray(t *testing.T) {
	server := newTestServer(t, threePageText)

	resp, err := http.Get(server.URL + "/chat/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []store.ConversationEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	assert.Empty(t, history)
}
