// Package ranking persists computed rankings in Postgres.
package ranking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
)

const itemColumns = 6

// Repo stores rankings in the rankings and ranking_items tables.
type Repo struct {
	db *sql.DB
}

// New creates a ranking repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Save writes the ranking header and its ordered items in one transaction.
func (r *Repo) Save(ctx context.Context, rk domrank.Ranking) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req := rk.Request()
	query := req.Query()
	if _, err = tx.ExecContext(ctx, `
INSERT INTO rankings (id, job_title, job_description, strategy, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		rk.ID(), query.Title(), query.Description(), string(req.Strategy()), req.CreatedBy(), rk.CreatedAt(),
	); err != nil {
		return fmt.Errorf("insert ranking: %w", err)
	}

	if results := rk.Results(); len(results) > 0 {
		stmt, args := itemsInsert(rk.ID(), results)
		if _, err = tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert ranking items: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get loads a ranking with its items in stored order.
func (r *Repo) Get(ctx context.Context, id string) (domrank.Ranking, error) {
	var (
		title, description, strategy, createdBy string
		createdAt                               time.Time
	)
	err := r.db.QueryRowContext(ctx, `
SELECT job_title, job_description, strategy, created_by, created_at
FROM rankings
WHERE id=$1`, id).Scan(&title, &description, &strategy, &createdBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domrank.Ranking{}, fmt.Errorf("ranking %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domrank.Ranking{}, fmt.Errorf("select ranking: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT document_id, score, annotation, used_fallback
FROM ranking_items
WHERE ranking_id=$1
ORDER BY position`, id)
	if err != nil {
		return domrank.Ranking{}, fmt.Errorf("select ranking items: %w", err)
	}
	defer rows.Close()

	var (
		results []domrank.Result
		ids     []string
	)
	for rows.Next() {
		var (
			docID, annotation string
			score             float64
			usedFallback      bool
		)
		if err := rows.Scan(&docID, &score, &annotation, &usedFallback); err != nil {
			return domrank.Ranking{}, fmt.Errorf("scan ranking item: %w", err)
		}
		results = append(results, domrank.Reconstruct(docID, score, domrank.Annotation(annotation), usedFallback))
		ids = append(ids, docID)
	}
	if err := rows.Err(); err != nil {
		return domrank.Ranking{}, fmt.Errorf("iterate ranking items: %w", err)
	}

	req := domrank.ReconstructRequest(
		id, domrank.ReconstructQuery(title, description), ids, domrank.Strategy(strategy), createdBy,
	)
	return domrank.New(req, results, createdAt.UTC()), nil
}

// itemsInsert builds one multi-row INSERT for all items.
func itemsInsert(rankingID string, results []domrank.Result) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ranking_items (ranking_id, position, document_id, score, annotation, used_fallback) VALUES ")
	args := make([]any, 0, len(results)*itemColumns)
	for i := range results {
		if i > 0 {
			b.WriteString(",")
		}
		n := i * itemColumns
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5, n+6)
		res := &results[i]
		args = append(args, rankingID, i+1, res.DocumentID(), res.Score(), string(res.Annotation()), res.UsedFallback())
	}
	return b.String(), args
}
