// Package postgres provides Postgres-backed storage for the retrieval
// stores, using pgvector for semantic search and tsquery for keyword
// search.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
)

// Ensure the store and its views implement the interfaces.
var (
	_ driven.ChunkStore   = (*Store)(nil)
	_ driven.VectorStore  = (*vectorStore)(nil)
	_ driven.LexicalStore = (*lexicalStore)(nil)
)

// EmbeddingDimensions is the vector column width. Matches the default
// all-minilm embedding model.
const EmbeddingDimensions = 384

// Config holds Postgres connection configuration.
type Config struct {
	// DSN is the connection string (required).
	DSN string

	// Password overrides the DSN password when set. Useful for
	// managed platforms that hand out keys separately.
	Password string

	// Debug enables bundebug query logging.
	Debug bool
}

// contentItemModel maps content items to the content_items table.
type contentItemModel struct {
	bun.BaseModel `bun:"table:content_items,alias:i"`

	ID          string     `bun:"id,pk"`
	Title       string     `bun:"title,notnull"`
	Author      string     `bun:"author,notnull,default:''"`
	SourceType  string     `bun:"source_type,notnull"`
	PublishedAt *time.Time `bun:"published_at"`
	ChannelID   string     `bun:"channel_id,notnull,default:''"`
	ChannelName string     `bun:"channel_name,notnull,default:''"`
	Engagement  []byte     `bun:"engagement,type:jsonb"`
}

// chunkModel maps chunks to the chunks table. The search_vector
// column is added separately as a generated tsvector column.
type chunkModel struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID            string    `bun:"id,pk"`
	ContentItemID string    `bun:"content_item_id,notnull"`
	Index         int       `bun:"idx,notnull"`
	Text          string    `bun:"text,notnull"`
	Metadata      []byte    `bun:"metadata,type:jsonb"`
	Embedding     []float32 `bun:"embedding,type:vector(384)"`
	State         string    `bun:"state,notnull,default:'pending'"`

	// Query-time expressions.
	Distance float64 `bun:"distance,scanonly"`
	Rank     float64 `bun:"lexical_rank,scanonly"`
}

// subscriptionModel maps user/channel follows.
type subscriptionModel struct {
	bun.BaseModel `bun:"table:subscriptions,alias:s"`

	UserID    string `bun:"user_id,pk"`
	ChannelID string `bun:"channel_id,pk"`
}

// Store is a Postgres-backed implementation of the retrieval stores.
type Store struct {
	db *bun.DB
}

// NewStore opens a connection pool and wraps it with bun.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: DSN is required")
	}

	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Store{db: db}, nil
}

// Init creates the schema: extension, tables, the generated tsvector
// column, and the search indexes. Safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}

	models := []any{
		(*contentItemModel)(nil),
		(*chunkModel)(nil),
		(*subscriptionModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}

	ddl := []string{
		`ALTER TABLE chunks ADD COLUMN IF NOT EXISTS search_vector tsvector
			GENERATED ALWAYS AS (to_tsvector('english', text)) STORED`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_chunks_item_idx ON chunks (content_item_id, idx)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_state ON chunks (state)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_search_vector ON chunks USING gin (search_vector)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
			USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_content_items_channel ON content_items (channel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_content_items_published ON content_items (published_at)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running DDL: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Vectors returns a VectorStore interface backed by this store.
func (s *Store) Vectors() driven.VectorStore {
	return &vectorStore{store: s}
}

// Lexical returns a LexicalStore interface backed by this store.
func (s *Store) Lexical() driven.LexicalStore {
	return &lexicalStore{store: s}
}

// ==================== Chunk Store ====================

// SaveContentItem stores or updates a content item.
func (s *Store) SaveContentItem(ctx context.Context, item *domain.ContentItem) error {
	model, err := toContentItemModel(item)
	if err != nil {
		return err
	}

	_, err = s.db.NewInsert().
		Model(model).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("author = EXCLUDED.author").
		Set("source_type = EXCLUDED.source_type").
		Set("published_at = EXCLUDED.published_at").
		Set("channel_id = EXCLUDED.channel_id").
		Set("channel_name = EXCLUDED.channel_name").
		Set("engagement = EXCLUDED.engagement").
		Exec(ctx)
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

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, chunk := range chunks {
			model, err := toChunkModel(&chunk)
			if err != nil {
				return err
			}

			if _, err := tx.NewDelete().
				Model((*chunkModel)(nil)).
				Where("content_item_id = ?", chunk.ContentItemID).
				Where("idx = ?", chunk.Index).
				Where("id != ?", chunk.ID).
				Exec(ctx); err != nil {
				return fmt.Errorf("clearing chunk slot: %w", err)
			}

			if _, err := tx.NewInsert().
				Model(model).
				On("CONFLICT (id) DO UPDATE").
				Set("content_item_id = EXCLUDED.content_item_id").
				Set("idx = EXCLUDED.idx").
				Set("text = EXCLUDED.text").
				Set("metadata = EXCLUDED.metadata").
				Set("embedding = EXCLUDED.embedding").
				Set("state = EXCLUDED.state").
				Exec(ctx); err != nil {
				return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
			}
		}
		return nil
	})
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	model := new(chunkModel)
	err := s.db.NewSelect().Model(model).Where("c.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting chunk: %w", err)
	}
	return fromChunkModel(model)
}

// GetContentItem retrieves a content item by ID.
func (s *Store) GetContentItem(ctx context.Context, id string) (*domain.ContentItem, error) {
	model := new(contentItemModel)
	err := s.db.NewSelect().Model(model).Where("i.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting content item: %w", err)
	}
	return fromContentItemModel(model)
}

// SaveSubscription records that a user follows a channel.
func (s *Store) SaveSubscription(ctx context.Context, userID, channelID string) error {
	_, err := s.db.NewInsert().
		Model(&subscriptionModel{UserID: userID, ChannelID: channelID}).
		On("CONFLICT (user_id, channel_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}
	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore on pgvector.
type vectorStore struct {
	store *Store
}

// Search finds the nearest processed chunks by cosine distance using
// the pgvector <=> operator.
func (v *vectorStore) Search(ctx context.Context, embedding []float32, limit int, filters driven.SearchFilters) ([]driven.CandidateHit, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	var models []chunkModel
	q := v.store.db.NewSelect().
		Model(&models).
		ColumnExpr("c.*").
		ColumnExpr("c.embedding <=> ?::vector AS distance", vectorLiteral(embedding)).
		Where("c.state = ?", string(domain.ChunkStateProcessed)).
		Where("c.embedding IS NOT NULL").
		OrderExpr("distance ASC, c.id ASC")
	q = applyFilters(q, filters)
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return v.store.hydrate(ctx, models, func(m chunkModel) float64 { return m.Distance })
}

// ==================== Lexical Store ====================

// lexicalStore implements driven.LexicalStore on tsquery.
type lexicalStore struct {
	store *Store
}

// Search matches the boolean query against the generated search_vector
// column and ranks hits with ts_rank. The canonical symbolic form of a
// BooleanQuery is valid tsquery syntax, so the translation is direct.
func (l *lexicalStore) Search(ctx context.Context, query domain.BooleanQuery, limit int, filters driven.SearchFilters) ([]driven.CandidateHit, error) {
	if query.IsEmpty() {
		return nil, nil
	}
	tsquery := query.String()

	var models []chunkModel
	q := l.store.db.NewSelect().
		Model(&models).
		ColumnExpr("c.*").
		ColumnExpr("ts_rank(c.search_vector, to_tsquery('english', ?)) AS lexical_rank", tsquery).
		Where("c.state = ?", string(domain.ChunkStateProcessed)).
		Where("c.search_vector @@ to_tsquery('english', ?)", tsquery).
		OrderExpr("lexical_rank DESC, c.id ASC")
	q = applyFilters(q, filters)
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return l.store.hydrate(ctx, models, func(m chunkModel) float64 { return m.Rank })
}

// ==================== Helpers ====================

// applyFilters adds SearchFilters conditions to a chunk query. Item
// level constraints go through EXISTS so the chunk query needs no join.
func applyFilters(q *bun.SelectQuery, filters driven.SearchFilters) *bun.SelectQuery {
	itemCond := []string{"ci.id = c.content_item_id"}
	var args []any

	if len(filters.ContentTypes) > 0 {
		types := make([]string, len(filters.ContentTypes))
		for i, ct := range filters.ContentTypes {
			types[i] = string(ct)
		}
		itemCond = append(itemCond, "ci.source_type IN (?)")
		args = append(args, bun.In(types))
	}
	if filters.PublishedAfter != nil {
		itemCond = append(itemCond, "ci.published_at >= ?")
		args = append(args, filters.PublishedAfter.UTC())
	}
	if filters.UserID != "" {
		itemCond = append(itemCond, "EXISTS (SELECT 1 FROM subscriptions s WHERE s.user_id = ? AND s.channel_id = ci.channel_id)")
		args = append(args, filters.UserID)
	}

	if len(itemCond) == 1 {
		return q
	}
	cond := "EXISTS (SELECT 1 FROM content_items ci WHERE " + strings.Join(itemCond, " AND ") + ")"
	return q.Where(cond, args...)
}

// hydrate loads parent items for a page of chunk models and assembles
// candidate hits, preserving model order.
func (s *Store) hydrate(ctx context.Context, models []chunkModel, score func(chunkModel) float64) ([]driven.CandidateHit, error) {
	if len(models) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var itemIDs []string
	for _, m := range models {
		if !seen[m.ContentItemID] {
			seen[m.ContentItemID] = true
			itemIDs = append(itemIDs, m.ContentItemID)
		}
	}

	var itemModels []contentItemModel
	err := s.db.NewSelect().
		Model(&itemModels).
		Where("i.id IN (?)", bun.In(itemIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading content items: %w", err)
	}

	items := make(map[string]*domain.ContentItem, len(itemModels))
	for i := range itemModels {
		item, err := fromContentItemModel(&itemModels[i])
		if err != nil {
			return nil, err
		}
		items[item.ID] = item
	}

	hits := make([]driven.CandidateHit, 0, len(models))
	for i := range models {
		chunk, err := fromChunkModel(&models[i])
		if err != nil {
			return nil, err
		}
		item, ok := items[chunk.ContentItemID]
		if !ok {
			continue // orphaned chunk, skip
		}
		hits = append(hits, driven.CandidateHit{
			Chunk: *chunk,
			Item:  *item,
			Score: score(models[i]),
		})
	}
	return hits, nil
}

// vectorLiteral renders a float32 slice in pgvector's text format.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// toContentItemModel converts a domain item to its storage model.
func toContentItemModel(item *domain.ContentItem) (*contentItemModel, error) {
	engagementJSON, err := domain.MarshalEngagement(item.Engagement)
	if err != nil {
		return nil, fmt.Errorf("marshalling engagement: %w", err)
	}
	return &contentItemModel{
		ID:          item.ID,
		Title:       item.Title,
		Author:      item.Author,
		SourceType:  string(item.SourceType),
		PublishedAt: item.PublishedAt,
		ChannelID:   item.ChannelID,
		ChannelName: item.ChannelName,
		Engagement:  engagementJSON,
	}, nil
}

// fromContentItemModel converts a storage model back to a domain item.
func fromContentItemModel(model *contentItemModel) (*domain.ContentItem, error) {
	engagement, err := domain.UnmarshalEngagement(model.Engagement)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling engagement: %w", err)
	}
	return &domain.ContentItem{
		ID:          model.ID,
		Title:       model.Title,
		Author:      model.Author,
		SourceType:  domain.SourceType(model.SourceType),
		PublishedAt: model.PublishedAt,
		ChannelID:   model.ChannelID,
		ChannelName: model.ChannelName,
		Engagement:  engagement,
	}, nil
}

// toChunkModel converts a domain chunk to its storage model.
func toChunkModel(chunk *domain.Chunk) (*chunkModel, error) {
	var metadataJSON []byte
	if chunk.Metadata != nil {
		data, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		metadataJSON = data
	}
	return &chunkModel{
		ID:            chunk.ID,
		ContentItemID: chunk.ContentItemID,
		Index:         chunk.Index,
		Text:          chunk.Text,
		Metadata:      metadataJSON,
		Embedding:     chunk.Embedding,
		State:         string(chunk.State),
	}, nil
}

// fromChunkModel converts a storage model back to a domain chunk.
func fromChunkModel(model *chunkModel) (*domain.Chunk, error) {
	chunk := &domain.Chunk{
		ID:            model.ID,
		ContentItemID: model.ContentItemID,
		Index:         model.Index,
		Text:          model.Text,
		Embedding:     model.Embedding,
		State:         domain.ChunkState(model.State),
	}
	if len(model.Metadata) > 0 && string(model.Metadata) != "null" {
		if err := json.Unmarshal(model.Metadata, &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
	}
	return chunk, nil
}
