package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"filinglens/pkg/core/edgar"
	"filinglens/pkg/core/filing"
)

// TreeCache caches parsed filing trees keyed by SEC accession number.
// DB is primary when a pool is configured, otherwise a file directory
// serves as local fallback.
type TreeCache struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewTreeCache builds a cache. With a nil pool and empty dir it defaults to
// a local .cache directory.
//
// DB schema assumption:
//
//	CREATE TABLE IF NOT EXISTS filing_trees (
//	  id UUID PRIMARY KEY,
//	  accession_number TEXT UNIQUE NOT NULL,
//	  cik TEXT,
//	  company_name TEXT,
//	  form TEXT,
//	  filing_date TEXT,
//	  tree_json JSONB NOT NULL,
//	  parsed_at TIMESTAMPTZ NOT NULL
//	);
func NewTreeCache(pool *pgxpool.Pool, dir string) *TreeCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "filings", "trees")
	}
	if dir != "" {
		os.MkdirAll(dir, 0755)
	}
	return &TreeCache{pool: pool, fileDir: dir}
}

// treeEntry is the file cache record. The DB spreads the same fields over
// columns.
type treeEntry struct {
	ID              string            `json:"id"`
	AccessionNumber string            `json:"accession_number"`
	CIK             string            `json:"cik"`
	CompanyName     string            `json:"company_name"`
	Form            string            `json:"form"`
	FilingDate      string            `json:"filing_date"`
	Tree            *filing.TreeState `json:"tree"`
	ParsedAt        time.Time         `json:"parsed_at"`
}

// Get returns the cached tree for an accession number, nil on a miss. Cache
// misses are not errors.
func (c *TreeCache) Get(ctx context.Context, accession string) (*filing.FilingTree, error) {
	if c.pool != nil {
		var treeJSON []byte
		err := c.pool.QueryRow(ctx,
			`SELECT tree_json FROM filing_trees WHERE accession_number = $1 LIMIT 1`,
			accession).Scan(&treeJSON)
		if err != nil {
			return nil, nil
		}
		var state filing.TreeState
		if err := json.Unmarshal(treeJSON, &state); err != nil {
			return nil, fmt.Errorf("unmarshal cached tree: %w", err)
		}
		return filing.RestoreTree(&state), nil
	}

	if c.fileDir != "" {
		data, err := os.ReadFile(c.filePath(accession))
		if err != nil {
			return nil, nil
		}
		var entry treeEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("unmarshal cached tree file: %w", err)
		}
		if entry.Tree == nil {
			return nil, nil
		}
		return filing.RestoreTree(entry.Tree), nil
	}

	return nil, nil
}

// Save stores a parsed tree under the filing's accession number.
func (c *TreeCache) Save(ctx context.Context, meta *edgar.FilingMetadata, tree *filing.FilingTree) error {
	state := tree.State()
	treeJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal tree: %w", err)
	}

	if c.pool != nil {
		_, err := c.pool.Exec(ctx, `
			INSERT INTO filing_trees (
				id, accession_number, cik, company_name, form, filing_date,
				tree_json, parsed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (accession_number)
			DO UPDATE SET
				tree_json = EXCLUDED.tree_json,
				parsed_at = EXCLUDED.parsed_at`,
			uuid.NewString(), meta.AccessionNumber, meta.CIK, meta.CompanyName,
			meta.Form, meta.FilingDate, treeJSON, time.Now())
		if err != nil {
			return fmt.Errorf("save tree to db: %w", err)
		}
		return nil
	}

	if c.fileDir != "" {
		entry := treeEntry{
			ID:              uuid.NewString(),
			AccessionNumber: meta.AccessionNumber,
			CIK:             meta.CIK,
			CompanyName:     meta.CompanyName,
			Form:            meta.Form,
			FilingDate:      meta.FilingDate,
			Tree:            state,
			ParsedAt:        time.Now(),
		}
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal tree entry: %w", err)
		}
		return os.WriteFile(c.filePath(meta.AccessionNumber), data, 0644)
	}

	return nil
}

// Has reports whether a tree is cached without loading it.
func (c *TreeCache) Has(ctx context.Context, accession string) bool {
	if c.pool != nil {
		var one int
		err := c.pool.QueryRow(ctx,
			`SELECT 1 FROM filing_trees WHERE accession_number = $1 LIMIT 1`,
			accession).Scan(&one)
		return err == nil
	}
	if c.fileDir != "" {
		_, err := os.Stat(c.filePath(accession))
		return err == nil
	}
	return false
}

func (c *TreeCache) filePath(accession string) string {
	key := strings.ReplaceAll(accession, "-", "")
	return filepath.Join(c.fileDir, key+".json")
}
