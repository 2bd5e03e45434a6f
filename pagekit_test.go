package pagekit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pagekit/source/sqldb"
	"pagekit/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    int    `db:"id"`
	Title string `db:"title"`
	Score int    `db:"score"`
}

const testConfig = `
version: "1"
datasources:
  - name: main
    type: sqlite
    config:
      path: %s
runner:
  paths:
    - %s
paging:
  default_page_size: 5
  max_page_size: 20
  concurrent: %t
log:
  level: error
`

// newTestClient opens a client over a sqlite file holding 25 items; item i has score i%5.
// Clients share the package logger, so client tests do not run in parallel.
func newTestClient(t *testing.T, concurrent bool, opts ...ClientOption) *Client {
	t.Helper()

	dir := t.TempDir()
	runners := filepath.Join(dir, "runners")
	require.NoError(t, os.MkdirAll(runners, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(runners, "list_items.sql"), []byte("select id, title, score from items order by id\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(runners, "items_by_score.sql"), []byte("select id, title, score from items where score = ?"), 0o644))

	cfgPath := filepath.Join(dir, "pagekit.yaml")
	cfg := fmt.Sprintf(testConfig, filepath.Join(dir, "items.db"), runners, concurrent)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	client, err := Open(cfgPath, "main", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(context.Background()) })

	db := client.DB().Conn()
	_, err = db.Exec(`create table items (id integer primary key, title text not null, score integer not null)`)
	require.NoError(t, err)
	for i := 1; i <= 25; i++ {
		_, err = db.Exec(`insert into items (id, title, score) values (?, ?, ?)`, i, fmt.Sprintf("item-%02d", i), i%5)
		require.NoError(t, err)
	}

	return client
}

func itemIDs(p *Page[item]) []int {
	out := make([]int, 0, p.Len())
	for _, it := range p.All() {
		out = append(out, it.ID)
	}
	return out
}

func TestClientExecute(t *testing.T) {

	obs := &recorder{}
	client := newTestClient(t, false, WithMetrics(obs))
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))

	t.Run("Default request", func(t *testing.T) {
		p, err := Execute[item](ctx, client.Run("list_items"))
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 3, 4, 5}, itemIDs(p))
		assert.Equal(t, 25, p.TotalCount())
		assert.Equal(t, 5, p.TotalPages())
		assert.Equal(t, []string{OpCount, OpSlice}, obs.ops)
	})

	t.Run("Paging and sorting", func(t *testing.T) {
		p, err := Execute[item](ctx, client.Run("list_items").
			WithPaging(2, 3).
			WithSorting("-score").
			WithSortable("score", "title"))
		require.NoError(t, err)

		assert.Equal(t, []int{19, 24, 3}, itemIDs(p))
		assert.Equal(t, 2, p.CurrentPage())
		assert.Equal(t, 9, p.TotalPages())
	})

	t.Run("Args", func(t *testing.T) {
		p, err := Execute[item](ctx, client.Run("items_by_score").WithArgs(2).WithPaging(2, 3))
		require.NoError(t, err)

		assert.Equal(t, 5, p.TotalCount())
		assert.Len(t, itemIDs(p), 2)
	})

	t.Run("Params", func(t *testing.T) {
		p, err := Execute[item](ctx, client.Run("list_items").WithParams(map[string]interface{}{
			"page_number": "5",
			"page_size":   "100",
		}))
		require.NoError(t, err)

		assert.Equal(t, 20, p.PageSize())
		assert.Equal(t, 0, p.Len())
		assert.Equal(t, 2, p.TotalPages())
	})

	t.Run("Request", func(t *testing.T) {
		req := client.NewRequest()
		assert.Equal(t, 5, req.PageSize())
		assert.Equal(t, 20, req.MaxPageSize())

		req.PageNumber = 5
		p, err := Execute[item](ctx, client.Run("list_items").WithRequest(req))
		require.NoError(t, err)
		assert.Equal(t, []int{21, 22, 23, 24, 25}, itemIDs(p))
		assert.False(t, p.HasNext())
	})

	t.Run("Failures", func(t *testing.T) {
		_, err := Execute[item](ctx, client.Run("missing"))
		assert.ErrorIs(t, err, ErrRunnerNotFound)

		_, err = Execute[item](ctx, client.Run("list_items").WithPaging(0, 5))
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = Execute[item](ctx, client.Run("list_items").WithRequest(nil))
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = Execute[item](ctx, client.Run("list_items").WithSorting("title").WithSortable("score"))
		assert.ErrorIs(t, err, sqldb.ErrInvalidSort)

		_, err = Execute[item](ctx, client.Run("list_items").WithParams("page=2"))
		assert.Error(t, err)
	})

	t.Run("Canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(trace.InjectRequestID(ctx, "req-canceled"))
		cancel()

		_, err := Execute[item](cctx, client.Run("list_items"))
		assert.ErrorIs(t, err, ErrCanceled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClientExecuteConcurrent(t *testing.T) {

	client := newTestClient(t, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := Execute[item](ctx, client.Run("list_items").WithPaging(5, 5))
	require.NoError(t, err)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, itemIDs(p))
	assert.Equal(t, 25, p.TotalCount())
}

func TestClientWithTransaction(t *testing.T) {

	client := newTestClient(t, true)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		out, err := client.WithTransaction(ctx, func(ctx context.Context, tx *Tx) (any, error) {
			return Execute[item](ctx, tx.Run("list_items").WithPaging(1, 2))
		})
		require.NoError(t, err)

		p, ok := out.(*Page[item])
		require.True(t, ok)
		assert.Equal(t, []int{1, 2}, itemIDs(p))
	})

	t.Run("Rollback on error", func(t *testing.T) {
		boom := errors.New("callback failed")
		_, err := client.WithTransaction(ctx, func(ctx context.Context, tx *Tx) (any, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			client.WithTransaction(ctx, func(ctx context.Context, tx *Tx) (any, error) {
				panic("callback panicked")
			})
		})

		// the connection is usable again after the rollback
		_, err := Execute[item](ctx, client.Run("list_items"))
		assert.NoError(t, err)
	})

	t.Run("Tx runner outside the transaction", func(t *testing.T) {
		_, err := client.WithTransaction(ctx, func(_ context.Context, tx *Tx) (any, error) {
			return Execute[item](context.Background(), tx.Run("list_items"))
		})
		assert.Error(t, err)
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.yaml"), "main")
	assert.Error(t, err)

	cfg := &Config{
		DataSources: []DataSource{{Name: "main", Type: DataSourceSQLite, Config: ConfigDetails{Path: filepath.Join(t.TempDir(), "x.db")}}},
	}
	_, err = New(cfg, "other")
	assert.ErrorIs(t, err, ErrDataSourceNotFound)

	_, err = New(nil, "main")
	assert.Error(t, err)
}
