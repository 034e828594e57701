// Package pgstore implements the vector store contract on Postgres with
// the pgvector extension, via bun.
package pgstore

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/orionfinancialai/finrag/internal/vectorstore"
)

var _ vectorstore.VectorStore = (*Store)(nil)

// FilingChunk is one indexed chunk row.
type FilingChunk struct {
	bun.BaseModel `bun:"table:filing_chunks,alias:fc"`

	ID      int64  `bun:"id,pk,autoincrement"`
	PointID string `bun:"point_id,notnull,unique"`
	Ticker  string `bun:"ticker,notnull"`
	Year    int    `bun:"year,notnull"`
	Content string `bun:"content,notnull"`
	Kind    string `bun:"kind"`
	Source  string `bun:"source"`
	Page    int    `bun:"page"`
	Chunk   int    `bun:"chunk"`
	// Dimensionality matches text-embedding-3-small; change the column
	// type together with EMBEDDING_DIM when switching models.
	Embedding []float32 `bun:"embedding,notnull,type:vector(1536)"`
	// Distance is populated by Search only.
	Distance float64 `bun:"distance,scanonly"`
}

// Config holds connection settings for the Postgres backend.
type Config struct {
	DSN      string
	Password string
	Debug    bool
}

// Store keeps filing chunks in a Postgres table and ranks by the pgvector
// `<->` distance operator.
type Store struct {
	db *bun.DB
}

func New(cfg Config) *Store {
	var opts []pgdriver.Option
	opts = append(opts, pgdriver.WithDSN(cfg.DSN))
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}
}

func (s *Store) createTableQuery() *bun.CreateTableQuery {
	return s.db.NewCreateTable().Model((*FilingChunk)(nil)).IfNotExists()
}

func deleteFilingQuery(db bun.IDB, f vectorstore.Filter) *bun.DeleteQuery {
	return db.NewDelete().
		Model((*FilingChunk)(nil)).
		Where("ticker = ?", f.Ticker).
		Where("year = ?", f.Year)
}

func insertChunksQuery(db bun.IDB, rows *[]FilingChunk) *bun.InsertQuery {
	return db.NewInsert().Model(rows)
}

// searchQuery ranks rows by the pgvector `<->` operator. The bare []float32
// is rendered by pgdialect as the '[...]' literal pgvector expects.
func (s *Store) searchQuery(rows *[]FilingChunk, vector []float32, f vectorstore.Filter, limit int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(rows).
		ColumnExpr("fc.*").
		ColumnExpr("embedding <-> ? AS distance", vector).
		Where("ticker = ?", f.Ticker).
		Where("year = ?", f.Year).
		OrderExpr("embedding <-> ?", vector).
		Limit(limit)
}

func (s *Store) Init(ctx context.Context, _ int) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	_, err := s.createTableQuery().Exec(ctx)
	return err
}

func (s *Store) ReplaceFiling(ctx context.Context, f vectorstore.Filter, points []vectorstore.Point) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := deleteFilingQuery(tx, f).Exec(ctx); err != nil {
			return err
		}
		if len(points) == 0 {
			return nil
		}

		rows := make([]FilingChunk, len(points))
		for i, p := range points {
			rows[i] = FilingChunk{
				PointID:   p.ID,
				Ticker:    p.Payload.Ticker,
				Year:      p.Payload.Year,
				Content:   p.Payload.Text,
				Kind:      p.Payload.Kind,
				Source:    p.Payload.Source,
				Page:      p.Payload.Page,
				Chunk:     p.Payload.Chunk,
				Embedding: p.Vector,
			}
		}
		_, err := insertChunksQuery(tx, &rows).Exec(ctx)
		return err
	})
}

func (s *Store) Search(ctx context.Context, vector []float32, f vectorstore.Filter, limit int) ([]vectorstore.Hit, error) {
	var rows []FilingChunk
	if err := s.searchQuery(&rows, vector, f, limit).Scan(ctx); err != nil {
		return nil, err
	}

	hits := make([]vectorstore.Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, vectorstore.Hit{
			Payload: vectorstore.Payload{
				Ticker: row.Ticker,
				Year:   row.Year,
				Text:   row.Content,
				Kind:   row.Kind,
				Source: row.Source,
				Page:   row.Page,
				Chunk:  row.Chunk,
			},
			// pgvector returns a distance; flip it so higher means more
			// similar, like the other backends.
			Score: 1 / (1 + row.Distance),
		})
	}
	return hits, nil
}

func (s *Store) Close() error { return s.db.Close() }
