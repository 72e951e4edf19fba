package ranking

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
)

var createdAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testRanking(t *testing.T) domrank.Ranking {
	t.Helper()
	q, err := domrank.NewQuery("Backend engineer", "Python Flask developer")
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	req, err := domrank.NewRequest(
		"5f0c8c36-3c1a-4d8e-9d7e-2f9a1b0c4d11", q, []string{"doc2", "doc1"}, domrank.TFIDF, "hr-1", 0,
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return domrank.New(req, []domrank.Result{
		domrank.NewScored("doc1", 0.61, false),
		domrank.NewAnnotated("doc2", domrank.AnnotationNoText, true),
	}, createdAt)
}

func newMock(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

var (
	insertRanking = regexp.QuoteMeta(`
INSERT INTO rankings (id, job_title, job_description, strategy, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`)
	insertItems = regexp.QuoteMeta(
		"INSERT INTO ranking_items (ranking_id, position, document_id, score, annotation, used_fallback) VALUES " +
			"($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12)")
)

func TestSave(t *testing.T) {
	repo, mock := newMock(t)
	rk := testRanking(t)
	id := rk.ID()

	mock.ExpectBegin()
	mock.ExpectExec(insertRanking).
		WithArgs(id, "Backend engineer", "Python Flask developer", "tfidf", "hr-1", createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertItems).
		WithArgs(
			id, 1, "doc1", 0.61, "", false,
			id, 2, "doc2", 0.0, "no_text", true,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.Save(context.Background(), rk); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSave_RollsBackOnItemFailure(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertRanking).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertItems).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.Save(context.Background(), testRanking(t)); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSave_BeginFailure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	if err := repo.Save(context.Background(), testRanking(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet(t *testing.T) {
	repo, mock := newMock(t)
	id := "5f0c8c36-3c1a-4d8e-9d7e-2f9a1b0c4d11"

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT job_title, job_description, strategy, created_by, created_at`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"job_title", "job_description", "strategy", "created_by", "created_at"}).
			AddRow("Backend engineer", "Python Flask developer", "embedding", "hr-1", createdAt))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT document_id, score, annotation, used_fallback`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "score", "annotation", "used_fallback"}).
			AddRow("doc1", 0.61, "", false).
			AddRow("doc2", 0.0, "unreadable", false))

	rk, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rk.ID() != id || !rk.CreatedAt().Equal(createdAt) {
		t.Errorf("unexpected header: %s %v", rk.ID(), rk.CreatedAt())
	}
	req := rk.Request()
	if req.Strategy() != domrank.Embedding || req.Query().Title() != "Backend engineer" || req.CreatedBy() != "hr-1" {
		t.Errorf("unexpected request: %+v", req)
	}
	results := rk.Results()
	if len(results) != 2 || results[0].DocumentID() != "doc1" || results[1].Annotation() != domrank.AnnotationUnreadable {
		t.Errorf("unexpected results: %+v", results)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT job_title`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"job_title", "job_description", "strategy", "created_by", "created_at"}))

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestItemsInsert_Placeholders(t *testing.T) {
	results := []domrank.Result{
		domrank.NewScored("a", 0.9, false),
		domrank.NewScored("b", 0.5, false),
		domrank.NewScored("c", 0.1, false),
	}
	stmt, args := itemsInsert("r1", results)
	if len(args) != 3*itemColumns {
		t.Fatalf("expected %d args, got %d", 3*itemColumns, len(args))
	}
	if !regexp.MustCompile(`\(\$13,\$14,\$15,\$16,\$17,\$18\)$`).MatchString(stmt) {
		t.Errorf("unexpected statement tail: %s", stmt)
	}
	if args[7] != 2 || args[8] != "b" {
		t.Errorf("unexpected second row args: %v", args[6:12])
	}
}
