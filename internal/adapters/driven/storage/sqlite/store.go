// Package sqlite provides SQLite-backed storage for the retrieval
// stores. One database file backs all three driven storage ports:
// chunk persistence, brute-force vector search over embedding blobs,
// and keyword search via FTS5.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/siftlabs/sift/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Ensure the store and its views implement the interfaces.
var (
	_ driven.ChunkStore   = (*Store)(nil)
	_ driven.VectorStore  = (*vectorStore)(nil)
	_ driven.LexicalStore = (*lexicalStore)(nil)
)

// Store is a unified SQLite-based storage that provides access to the
// retrieval store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sift/data/sift.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sift", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sift.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Vectors returns a VectorStore interface backed by this store.
func (s *Store) Vectors() driven.VectorStore {
	return &vectorStore{store: s}
}

// Lexical returns a LexicalStore interface backed by this store.
func (s *Store) Lexical() driven.LexicalStore {
	return &lexicalStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Chunk Store ====================

// SaveContentItem stores or updates a content item.
func (s *Store) SaveContentItem(ctx context.Context, item *domain.ContentItem) error {
	engagementJSON, err := domain.MarshalEngagement(item.Engagement)
	if err != nil {
		return fmt.Errorf("marshalling engagement: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_items (id, title, author, source_type, published_at, channel_id, channel_name, engagement, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			source_type = excluded.source_type,
			published_at = excluded.published_at,
			channel_id = excluded.channel_id,
			channel_name = excluded.channel_name,
			engagement = excluded.engagement,
			updated_at = excluded.updated_at
	`, item.ID, item.Title, item.Author, string(item.SourceType),
		nullTime(item.PublishedAt), item.ChannelID, item.ChannelName,
		string(engagementJSON), now, now)

	if err != nil {
		return fmt.Errorf("saving content item: %w", err)
	}
	return nil
}

// SaveChunks stores chunks in a single transaction. A chunk replacing
// an existing (content_item_id, idx) pair takes over that slot.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, chunk := range chunks {
		metadataJSON := jsonNull
		if chunk.Metadata != nil {
			data, err := json.Marshal(chunk.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling chunk metadata: %w", err)
			}
			metadataJSON = string(data)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		// Clear any other chunk occupying the same slot first so the
		// UNIQUE constraint cannot fire on re-ingestion.
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM chunks WHERE content_item_id = ? AND idx = ? AND id != ?
		`, chunk.ContentItemID, chunk.Index, chunk.ID); err != nil {
			return fmt.Errorf("clearing chunk slot: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, content_item_id, idx, text, metadata, embedding, state)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				content_item_id = excluded.content_item_id,
				idx = excluded.idx,
				text = excluded.text,
				metadata = excluded.metadata,
				embedding = excluded.embedding,
				state = excluded.state
		`, chunk.ID, chunk.ContentItemID, chunk.Index, chunk.Text,
			metadataJSON, embeddingBlob, string(chunk.State)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content_item_id, idx, text, metadata, embedding, state
		FROM chunks WHERE id = ?
	`, id)

	chunk, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting chunk: %w", err)
	}
	return chunk, nil
}

// GetContentItem retrieves a content item by ID.
func (s *Store) GetContentItem(ctx context.Context, id string) (*domain.ContentItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, source_type, published_at, channel_id, channel_name, engagement
		FROM content_items WHERE id = ?
	`, id)

	item, err := scanContentItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting content item: %w", err)
	}
	return item, nil
}

// SaveSubscription records that a user follows a channel.
func (s *Store) SaveSubscription(ctx context.Context, userID, channelID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, channel_id) VALUES (?, ?)
		ON CONFLICT(user_id, channel_id) DO NOTHING
	`, userID, channelID)
	if err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}
	return nil
}

// IsSubscribed reports whether a user follows a channel.
func (s *Store) IsSubscribed(ctx context.Context, userID, channelID string) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM subscriptions WHERE user_id = ? AND channel_id = ?
	`, userID, channelID)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("checking subscription: %w", err)
	}
	return count > 0, nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore with a brute-force scan
// over embedding blobs. Fine for the corpus sizes a local database
// holds; the Postgres store handles larger deployments.
type vectorStore struct {
	store *Store
}

// Search finds the nearest processed chunks by cosine distance.
func (v *vectorStore) Search(ctx context.Context, embedding []float32, limit int, filters driven.SearchFilters) ([]driven.CandidateHit, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT c.id, c.content_item_id, c.idx, c.text, c.metadata, c.embedding, c.state,
			i.id, i.title, i.author, i.source_type, i.published_at, i.channel_id, i.channel_name, i.engagement
		FROM chunks c
		JOIN content_items i ON i.id = c.content_item_id
		WHERE c.state = ? AND c.embedding IS NOT NULL
	`
	args := []any{string(domain.ChunkStateProcessed)}
	clause, clauseArgs := filterClause(filters)
	query += clause
	args = append(args, clauseArgs...)

	rows, err := v.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.CandidateHit
	for rows.Next() {
		hit, err := scanHit(rows)
		if err != nil {
			return nil, err
		}
		dist, ok := cosineDistance(embedding, hit.Chunk.Embedding)
		if !ok {
			continue
		}
		hit.Score = dist
		hits = append(hits, *hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score < hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ==================== Lexical Store ====================

// lexicalStore implements driven.LexicalStore over the FTS5 index.
type lexicalStore struct {
	store *Store
}

// Search translates the boolean query into an FTS5 MATCH expression
// and ranks hits with bm25. The returned Score is the negated bm25
// value so that higher means more relevant.
func (l *lexicalStore) Search(ctx context.Context, query domain.BooleanQuery, limit int, filters driven.SearchFilters) ([]driven.CandidateHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT c.id, c.content_item_id, c.idx, c.text, c.metadata, c.embedding, c.state,
			i.id, i.title, i.author, i.source_type, i.published_at, i.channel_id, i.channel_name, i.engagement,
			-bm25(chunks_fts) AS lexical_rank
		FROM chunks_fts f
		JOIN chunks c ON c.rowid = f.rowid
		JOIN content_items i ON i.id = c.content_item_id
		WHERE chunks_fts MATCH ? AND c.state = ?
	`
	args := []any{match, string(domain.ChunkStateProcessed)}
	clause, clauseArgs := filterClause(filters)
	sqlQuery += clause
	args = append(args, clauseArgs...)
	sqlQuery += " ORDER BY lexical_rank DESC, c.id ASC"
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fts index: %w", err)
	}
	defer rows.Close()

	var hits []driven.CandidateHit
	for rows.Next() {
		hit, err := scanHitWithRank(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, *hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fts hits: %w", err)
	}
	return hits, nil
}

// ftsQuery renders a BooleanQuery in FTS5 MATCH syntax. Terms are
// quoted, prefix terms get a trailing star, and negated terms are
// appended with the binary NOT operator. A query with no positive
// terms cannot be expressed in FTS5 and renders empty.
func ftsQuery(query domain.BooleanQuery) string {
	var expr string
	var negated []domain.BoolTerm

	for _, term := range query.Terms {
		if term.Negated {
			negated = append(negated, term)
			continue
		}
		rendered := ftsTerm(term)
		if expr == "" {
			expr = rendered
			continue
		}
		op := "AND"
		if term.Op == domain.OpOr {
			op = "OR"
		}
		expr = "(" + expr + ") " + op + " " + rendered
	}

	if expr == "" {
		return ""
	}
	for _, term := range negated {
		expr = "(" + expr + ") NOT " + ftsTerm(term)
	}
	return expr
}

// ftsTerm quotes a single term, with a prefix star where requested.
func ftsTerm(term domain.BoolTerm) string {
	quoted := `"` + strings.ReplaceAll(term.Text, `"`, `""`) + `"`
	if term.Prefix {
		return quoted + "*"
	}
	return quoted
}

// ==================== Helpers ====================

// filterClause renders SearchFilters as additional WHERE conditions
// on the content_items alias i. Returns the SQL fragment and its args.
func filterClause(filters driven.SearchFilters) (string, []any) {
	var clause strings.Builder
	var args []any

	if len(filters.ContentTypes) > 0 {
		placeholders := strings.Repeat("?, ", len(filters.ContentTypes))
		clause.WriteString(" AND i.source_type IN (" + placeholders[:len(placeholders)-2] + ")")
		for _, ct := range filters.ContentTypes {
			args = append(args, string(ct))
		}
	}
	if filters.PublishedAfter != nil {
		clause.WriteString(" AND i.published_at IS NOT NULL AND i.published_at >= ?")
		args = append(args, filters.PublishedAfter.UTC())
	}
	if filters.UserID != "" {
		clause.WriteString(" AND EXISTS (SELECT 1 FROM subscriptions s WHERE s.user_id = ? AND s.channel_id = i.channel_id)")
		args = append(args, filters.UserID)
	}
	return clause.String(), args
}

// scanner abstracts over *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanChunk reads a chunk row.
func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var metadataJSON string
	var embeddingBlob []byte
	var state string
	if err := row.Scan(&chunk.ID, &chunk.ContentItemID, &chunk.Index,
		&chunk.Text, &metadataJSON, &embeddingBlob, &state); err != nil {
		return nil, err
	}
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	chunk.State = domain.ChunkState(state)
	return &chunk, nil
}

// scanContentItem reads a content item row.
func scanContentItem(row scanner) (*domain.ContentItem, error) {
	var item domain.ContentItem
	var sourceType, engagementJSON string
	var publishedAt sql.NullTime
	if err := row.Scan(&item.ID, &item.Title, &item.Author, &sourceType,
		&publishedAt, &item.ChannelID, &item.ChannelName, &engagementJSON); err != nil {
		return nil, err
	}
	item.SourceType = domain.SourceType(sourceType)
	if publishedAt.Valid {
		t := publishedAt.Time
		item.PublishedAt = &t
	}
	engagement, err := domain.UnmarshalEngagement([]byte(engagementJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshalling engagement: %w", err)
	}
	item.Engagement = engagement
	return &item, nil
}

// scanHit reads a joined chunk + content item row.
func scanHit(rows *sql.Rows) (*driven.CandidateHit, error) {
	var hit driven.CandidateHit
	var metadataJSON, state string
	var embeddingBlob []byte
	var sourceType, engagementJSON string
	var publishedAt sql.NullTime

	if err := rows.Scan(
		&hit.Chunk.ID, &hit.Chunk.ContentItemID, &hit.Chunk.Index,
		&hit.Chunk.Text, &metadataJSON, &embeddingBlob, &state,
		&hit.Item.ID, &hit.Item.Title, &hit.Item.Author, &sourceType,
		&publishedAt, &hit.Item.ChannelID, &hit.Item.ChannelName, &engagementJSON,
	); err != nil {
		return nil, fmt.Errorf("scanning hit: %w", err)
	}
	return assembleHit(&hit, metadataJSON, embeddingBlob, state, sourceType, engagementJSON, publishedAt)
}

// scanHitWithRank reads a joined row that carries a trailing rank column.
func scanHitWithRank(rows *sql.Rows) (*driven.CandidateHit, error) {
	var hit driven.CandidateHit
	var metadataJSON, state string
	var embeddingBlob []byte
	var sourceType, engagementJSON string
	var publishedAt sql.NullTime

	if err := rows.Scan(
		&hit.Chunk.ID, &hit.Chunk.ContentItemID, &hit.Chunk.Index,
		&hit.Chunk.Text, &metadataJSON, &embeddingBlob, &state,
		&hit.Item.ID, &hit.Item.Title, &hit.Item.Author, &sourceType,
		&publishedAt, &hit.Item.ChannelID, &hit.Item.ChannelName, &engagementJSON,
		&hit.Score,
	); err != nil {
		return nil, fmt.Errorf("scanning hit: %w", err)
	}
	return assembleHit(&hit, metadataJSON, embeddingBlob, state, sourceType, engagementJSON, publishedAt)
}

// assembleHit finishes decoding the JSON and blob columns of a hit.
func assembleHit(hit *driven.CandidateHit, metadataJSON string, embeddingBlob []byte, state, sourceType, engagementJSON string, publishedAt sql.NullTime) (*driven.CandidateHit, error) {
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &hit.Chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
	}
	hit.Chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	hit.Chunk.State = domain.ChunkState(state)
	hit.Item.SourceType = domain.SourceType(sourceType)
	if publishedAt.Valid {
		t := publishedAt.Time
		hit.Item.PublishedAt = &t
	}
	engagement, err := domain.UnmarshalEngagement([]byte(engagementJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshalling engagement: %w", err)
	}
	hit.Item.Engagement = engagement
	return hit, nil
}

// nullTime converts a *time.Time to a driver value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if floats == nil {
		return nil
	}
	data := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineDistance returns 1 - cosine similarity. The second return is
// false when either vector has zero magnitude or lengths differ.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true
}
