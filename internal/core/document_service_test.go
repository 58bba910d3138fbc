package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagechat/pagechat/internal/store"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(string) (string, error) {
	return f.text, f.err
}

// failingEmbedder fails for one specific input and succeeds otherwise.
type failingEmbedder struct {
	failOn string
}

func (f *failingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if text == f.failOn {
		return nil, errors.New("transient upstream failure")
	}
	return []float32{0.1, 0.2}, nil
}

func TestIngest_SegmentsAndEmbeds(t *testing.T) {
	st := store.NewMemStore()
	extractor := &fakeExtractor{
		text: "Page one text with enough characters.\fPage two text with enough characters.\fPage three text with enough characters.",
	}
	svc := NewDocumentService(st, extractor, &failingEmbedder{})

	doc, err := svc.Ingest(context.Background(), "report.pdf", "/tmp/report.pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "report.pdf", doc.Filename)
	require.Len(t, doc.Pages, 3)
	for i, page := range doc.Pages {
		assert.Equal(t, i+1, page.PageNumber)
		assert.True(t, page.Embedded())
	}

	stored, err := st.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Pages, 3)
	assert.Equal(t, extractor.text, stored.TextContent)
}

func TestIngest_EmbeddingFailureLeavesEmptyVector(t *testing.T) {
	st := store.NewMemStore()
	extractor := &fakeExtractor{
		text: "Page one text with enough characters.\fPage two text with enough characters.",
	}
	embedder := &failingEmbedder{failOn: "Page two text with enough characters."}
	svc := NewDocumentService(st, extractor, embedder)

	doc, err := svc.Ingest(context.Background(), "report.pdf", "/tmp/report.pdf")
	require.NoError(t, err)

	require.Len(t, doc.Pages, 2)
	assert.True(t, doc.Pages[0].Embedded())
	assert.False(t, doc.Pages[1].Embedded())
}

func TestIngest_NoEmbedderStoresChunksWithoutVectors(t *testing.T) {
	st := store.NewMemStore()
	extractor := &fakeExtractor{text: "Some document text with enough characters."}
	svc := NewDocumentService(st, extractor, nil)

	doc, err := svc.Ingest(context.Background(), "report.pdf", "/tmp/report.pdf")
	require.NoError(t, err)

	require.Len(t, doc.Pages, 1)
	assert.False(t, doc.Pages[0].Embedded())
}

func TestIngest_ExtractionFailure(t *testing.T) {
	svc := NewDocumentService(store.NewMemStore(), &fakeExtractor{err: errors.New("corrupt pdf")}, nil)

	_, err := svc.Ingest(context.Background(), "broken.pdf", "/tmp/broken.pdf")
	assert.Error(t, err)
}

func TestIngest_EmptyTextYieldsZeroPages(t *testing.T) {
	st := store.NewMemStore()
	svc := NewDocumentService(st, &fakeExtractor{text: "   \n "}, nil)

	doc, err := svc.Ingest(context.Background(), "scan.pdf", "/tmp/scan.pdf")
	require.NoError(t, err)
	assert.Empty(t, doc.Pages)
}
