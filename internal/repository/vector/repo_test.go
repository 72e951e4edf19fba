package vector

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/resumerank/internal/db"
	"github.com/kailas-cloud/resumerank/internal/domain"
)

type mockStore struct {
	data map[string][]byte
	err  error
}

func (m *mockStore) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func TestPutThenGet(t *testing.T) {
	ms := &mockStore{data: map[string][]byte{}}
	repo := New(ms, "resumerank:", "text-embedding-3-small")
	ctx := context.Background()

	if err := repo.Put(ctx, "cv1", []float32{0.5, -1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := ms.data["resumerank:vec:text-embedding-3-small:cv1"]; !ok {
		t.Fatalf("unexpected keys: %v", ms.data)
	}

	got, err := repo.Get(ctx, []string{"cv1", "cv2"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only stored vector, got %v", got)
	}
	if !slices.Equal(got["cv1"], domain.Vector{0.5, -1}) {
		t.Errorf("unexpected vector %v", got["cv1"])
	}
}

func TestGet_CorruptData(t *testing.T) {
	ms := &mockStore{data: map[string][]byte{"p:vec:m:cv1": {1, 2, 3}}}
	repo := New(ms, "p:", "m")

	if _, err := repo.Get(context.Background(), []string{"cv1"}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGet_StoreError(t *testing.T) {
	ms := &mockStore{err: &db.Error{Op: db.OpGet, Err: errors.New("down")}}
	repo := New(ms, "p:", "m")

	_, err := repo.Get(context.Background(), []string{"cv1"})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestGet_Empty(t *testing.T) {
	repo := New(&mockStore{}, "p:", "m")
	got, err := repo.Get(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty map, got %v, %v", got, err)
	}
}

func TestDelete(t *testing.T) {
	ms := &mockStore{data: map[string][]byte{}}
	repo := New(ms, "p:", "m")
	ctx := context.Background()

	for _, id := range []string{"cv1", "cv2"} {
		if err := repo.Put(ctx, id, []float32{1}); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	if err := repo.Delete(ctx, "cv1", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := repo.Get(ctx, []string{"cv1", "cv2"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, ok := got["cv1"]; ok {
		t.Error("cv1 vector survived Delete")
	}
	if _, ok := got["cv2"]; !ok {
		t.Error("cv2 vector was dropped")
	}
}

func TestDelete_StoreError(t *testing.T) {
	ms := &mockStore{err: &db.Error{Op: db.OpDel, Err: errors.New("down")}}
	repo := New(ms, "p:", "m")

	if err := repo.Delete(context.Background(), "cv1"); err == nil {
		t.Fatal("expected error")
	}
	if err := repo.Delete(context.Background()); err != nil {
		t.Errorf("empty delete: %v", err)
	}
}
