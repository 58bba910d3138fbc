package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore persists documents and conversations in SQLite. It implements
// the same Store interface as MemStore and is selected when DATABASE_URL is
// set; the upload files themselves stay on disk either way.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS documents (
        id TEXT PRIMARY KEY, -- UUID
        filename TEXT NOT NULL,
        filepath TEXT NOT NULL,
        upload_date DATETIME DEFAULT CURRENT_TIMESTAMP,
        text_content TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS chunks (
        document_id TEXT NOT NULL,
        page_number INTEGER NOT NULL,
        content TEXT NOT NULL,
        embedding_json TEXT, -- JSON string of []float32, NULL when unavailable
        PRIMARY KEY (document_id, page_number),
        FOREIGN KEY (document_id) REFERENCES documents (id)
    );

    CREATE TABLE IF NOT EXISTS conversation_entries (
        id TEXT PRIMARY KEY, -- UUID
        document_id TEXT NOT NULL,
        message TEXT NOT NULL,
        response_text TEXT NOT NULL,
        citations_json TEXT NOT NULL, -- JSON string of []Citation
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (document_id) REFERENCES documents (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) PutDocument(doc *Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO documents (id, filename, filepath, upload_date, text_content) VALUES (?, ?, ?, ?, ?)",
		doc.ID, doc.Filename, doc.Filepath, doc.UploadDate, doc.TextContent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO chunks (document_id, page_number, content, embedding_json) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range doc.Pages {
		var embeddingJSON sql.NullString
		if chunk.Embedded() {
			data, err := json.Marshal(chunk.Embedding)
			if err != nil {
				return fmt.Errorf("failed to marshal embedding for page %d: %w", chunk.PageNumber, err)
			}
			embeddingJSON = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := stmt.Exec(doc.ID, chunk.PageNumber, chunk.Content, embeddingJSON); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.PageNumber, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetDocument(id string) (*Document, error) {
	var doc Document
	err := s.db.QueryRow(
		"SELECT id, filename, filepath, upload_date, text_content FROM documents WHERE id = ?", id,
	).Scan(&doc.ID, &doc.Filename, &doc.Filepath, &doc.UploadDate, &doc.TextContent)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	rows, err := s.db.Query(
		"SELECT page_number, content, embedding_json FROM chunks WHERE document_id = ? ORDER BY page_number", id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk Chunk
		var embeddingJSON sql.NullString
		if err := rows.Scan(&chunk.PageNumber, &chunk.Content, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if embeddingJSON.Valid && embeddingJSON.String != "" {
			if err := json.Unmarshal([]byte(embeddingJSON.String), &chunk.Embedding); err != nil {
				return nil, fmt.Errorf("failed to unmarshal embedding for page %d: %w", chunk.PageNumber, err)
			}
		}
		doc.Pages = append(doc.Pages, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return &doc, nil
}

func (s *SQLiteStore) AppendEntry(documentID string, entry *ConversationEntry) error {
	var exists int
	err := s.db.QueryRow("SELECT COUNT(1) FROM documents WHERE id = ?", documentID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to verify document: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	citationsJSON, err := json.Marshal(entry.Response.Citations)
	if err != nil {
		return fmt.Errorf("failed to marshal citations: %w", err)
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err = s.db.Exec(
		"INSERT INTO conversation_entries (id, document_id, message, response_text, citations_json, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		entry.ID, documentID, entry.Message, entry.Response.Text, string(citationsJSON), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) History(documentID string) ([]ConversationEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, message, response_text, citations_json, timestamp FROM conversation_entries WHERE document_id = ? ORDER BY timestamp ASC, id ASC",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation entries: %w", err)
	}
	defer rows.Close()

	entries := []ConversationEntry{}
	for rows.Next() {
		var entry ConversationEntry
		var citationsJSON string
		if err := rows.Scan(&entry.ID, &entry.Message, &entry.Response.Text, &citationsJSON, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan conversation entry: %w", err)
		}
		if err := json.Unmarshal([]byte(citationsJSON), &entry.Response.Citations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation entries: %w", err)
	}
	return entries, nil
}
