package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

type Config struct {
	DSN            string `envconfig:"DSN" split_words:"true"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"text-embedding-3-small"`
}

type preferenceRecord struct {
	bun.BaseModel `bun:"table:preference_records,alias:pr"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Content   string    `bun:"content,notnull"`
	Category  string    `bun:"category,notnull"`
	Source    string    `bun:"source"`
	Embedding []float64 `bun:"embedding,type:jsonb"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// PreferenceStore persists long-term user preferences in Postgres. Embeddings
// are optional: without an embedder it falls back to text similarity.
type PreferenceStore struct {
	db       *bun.DB
	embedder Embedder
}

var _ contractx.MemoryStore = (*PreferenceStore)(nil)

func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewPreferenceStore(db *bun.DB, embedder Embedder) *PreferenceStore {
	return &PreferenceStore{db: db, embedder: embedder}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PreferenceStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*preferenceRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("memory: create schema: %w", err)
	}
	return nil
}

func (s *PreferenceStore) Append(ctx context.Context, userID, content, category, source string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if category == "" {
		category = Categorize(content)
	}

	vec := s.embed(ctx, content)

	existing, err := s.loadRecords(ctx, userID)
	if err != nil {
		return err
	}
	if isDuplicate(content, vec, existing) {
		log.Debug().Str("user_id", userID).Str("content", content).Msg("skipping near-duplicate memory")
		return nil
	}

	rec := &preferenceRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		Category:  category,
		Source:    source,
		Embedding: vec,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return fmt.Errorf("memory: insert record: %w", err)
	}
	return nil
}

func (s *PreferenceStore) Search(ctx context.Context, userID, query string, k int) ([]statex.MemoryHit, error) {
	if k <= 0 {
		k = 3
	}
	records, err := s.loadRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	queryVec := s.embed(ctx, query)
	return selectHits(rankRecords(query, queryVec, records, k), k), nil
}

func (s *PreferenceStore) Profile(ctx context.Context, userID string) (statex.Profile, error) {
	records, err := s.loadRecords(ctx, userID)
	if err != nil {
		return statex.Profile{}, err
	}
	return buildProfile(userID, records), nil
}

func (s *PreferenceStore) Wipe(ctx context.Context) error {
	_, err := s.db.NewTruncateTable().Model((*preferenceRecord)(nil)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("memory: wipe: %w", err)
	}
	return nil
}

func (s *PreferenceStore) loadRecords(ctx context.Context, userID string) ([]record, error) {
	var rows []preferenceRecord
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: load records: %w", err)
	}

	records := make([]record, len(rows))
	for i, row := range rows {
		records[i] = record{
			ID:        row.ID,
			Content:   row.Content,
			Category:  row.Category,
			Embedding: row.Embedding,
		}
	}
	return records, nil
}

// embed returns nil on failure so callers degrade to text similarity.
func (s *PreferenceStore) embed(ctx context.Context, text string) []float64 {
	if s.embedder == nil {
		return nil
	}
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		log.Warn().Err(err).Msg("embedding failed, falling back to text similarity")
		return nil
	}
	if len(vectors) == 0 {
		return nil
	}
	return vectors[0]
}
