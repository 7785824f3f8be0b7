// internal/historian/historian_test.go
package historian

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue serves queued payloads and reports redis.Nil once empty. While
// fail is set every pop returns it instead.
type fakeQueue struct {
	mu    sync.Mutex
	items []string
	keys  []string
	fail  error
	calls int
}

func (q *fakeQueue) push(t *testing.T, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	q.mu.Lock()
	q.items = append(q.items, string(data))
	q.mu.Unlock()
}

func (q *fakeQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx, "blpop")
	q.mu.Lock()
	q.keys = keys
	q.calls++
	if q.fail != nil {
		cmd.SetErr(q.fail)
		q.mu.Unlock()
		return cmd
	}
	if len(q.items) > 0 {
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()
		cmd.SetVal([]string{keys[0], item})
		return cmd
	}
	q.mu.Unlock()

	select {
	case <-time.After(2 * time.Millisecond):
	case <-ctx.Done():
	}
	cmd.SetErr(redis.Nil)
	return cmd
}

func (q *fakeQueue) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func readLines(t *testing.T, path string) []models.ActionRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []models.ActionRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec models.ActionRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, sc.Err())
	return out
}

func quietEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestHistorianArchivesByRoom(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{}
	q.push(t, models.ActionRecord{RoomID: "abc123", ActionIndex: 1, ActionType: "drawCard"})
	q.push(t, models.ActionRecord{RoomID: "XYZ789", ActionIndex: 1, ActionType: "playCard"})
	q.push(t, "not a record")
	q.push(t, models.ActionRecord{RoomID: "nope", ActionIndex: 9})
	q.push(t, models.ActionRecord{RoomID: "ABC123", ActionIndex: 2, ActionType: "callUno"})

	svc := New(q, Config{
		Dir:       dir,
		BatchSize: 2,
		Clock:     quartz.NewMock(t),
		Logger:    quietEntry(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	assert.Eventually(t, func() bool { return q.pending() == 0 }, 2*time.Second, 5*time.Millisecond)

	// The first two valid records filled a batch.
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "XYZ789.jsonl"))
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("historian did not stop")
	}

	abc := readLines(t, filepath.Join(dir, "ABC123.jsonl"))
	require.Len(t, abc, 2)
	assert.Equal(t, 1, abc[0].ActionIndex)
	assert.Equal(t, "ABC123", abc[0].RoomID)
	assert.Equal(t, "callUno", abc[1].ActionType)

	xyz := readLines(t, filepath.Join(dir, "XYZ789.jsonl"))
	require.Len(t, xyz, 1)
	assert.Equal(t, "playCard", xyz[0].ActionType)

	_, err := os.Stat(filepath.Join(dir, "NOPE.jsonl"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, []string{"uno_actions"}, q.keys)
}

func TestHistorianFlushesOnTick(t *testing.T) {
	dir := t.TempDir()
	clk := quartz.NewMock(t)
	q := &fakeQueue{}
	q.push(t, models.ActionRecord{RoomID: "ROOM01", ActionIndex: 1})

	svc := New(q, Config{
		Queue:      "custom",
		Dir:        dir,
		BatchSize:  10,
		FlushDelay: time.Second,
		Clock:      clk,
		Logger:     quietEntry(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	assert.Eventually(t, func() bool { return q.pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	path := filepath.Join(dir, "ROOM01.jsonl")
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "batch is not full yet")

	advCtx, advCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer advCancel()
	clk.Advance(time.Second).MustWait(advCtx)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, readLines(t, path), 1)

	cancel()
	require.NoError(t, <-errCh)
}

func TestHistorianBacksOffOnRedisError(t *testing.T) {
	clk := quartz.NewMock(t)
	q := &fakeQueue{fail: errors.New("connection refused")}

	svc := New(q, Config{
		Dir:        t.TempDir(),
		FlushDelay: time.Hour,
		RetryDelay: time.Second,
		Clock:      clk,
		Logger:     quietEntry(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	// The retry timer is the next thing due once the first pop has failed.
	assert.Eventually(t, func() bool {
		d, ok := clk.Peek()
		return ok && d == time.Second
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, q.callCount(), "no retry before the delay passes")

	advCtx, advCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer advCancel()
	clk.Advance(time.Second).MustWait(advCtx)
	assert.Eventually(t, func() bool { return q.callCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}
