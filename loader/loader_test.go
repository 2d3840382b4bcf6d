package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testResolver resolves key -> key*10 and records every batch it is given.
type testResolver struct {
	mu      sync.Mutex
	batches [][]int
	calls   int32
	fail    map[int]error
	omit    map[int]bool
	callErr error
}

func (r *testResolver) Resolve(ctx context.Context, keys []int) (map[int]Result[int], error) {
	atomic.AddInt32(&r.calls, 1)
	r.mu.Lock()
	r.batches = append(r.batches, append([]int(nil), keys...))
	r.mu.Unlock()

	if r.callErr != nil {
		return nil, r.callErr
	}

	out := make(map[int]Result[int], len(keys))
	for _, k := range keys {
		if r.omit[k] {
			continue
		}
		if err, ok := r.fail[k]; ok {
			out[k] = Result[int]{Err: err}
			continue
		}
		out[k] = Result[int]{Value: k * 10}
	}
	return out, nil
}

func (r *testResolver) callCount() int32 {
	return atomic.LoadInt32(&r.calls)
}

func (r *testResolver) recordedBatches() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int(nil), r.batches...)
}

func TestLoad_BatchesSimultaneousKeys(t *testing.T) {
	r := &testResolver{}
	l := New[int, int](r, WithWait(25*time.Millisecond))

	ctx := context.Background()
	t1 := l.LoadThunk(ctx, 1)
	t2 := l.LoadThunk(ctx, 2)
	t3 := l.LoadThunk(ctx, 3)

	for i, thunk := range []Thunk[int]{t1, t2, t3} {
		v, err := thunk()
		if err != nil {
			t.Fatalf("thunk %d: %v", i, err)
		}
		if want := (i + 1) * 10; v != want {
			t.Errorf("thunk %d = %d, want %d", i, v, want)
		}
	}

	if got := r.callCount(); got != 1 {
		t.Errorf("resolver calls = %d, want 1", got)
	}
	batches := r.recordedBatches()
	if len(batches) != 1 || len(batches[0]) != 3 {
		t.Errorf("batches = %v, want one batch of 3 keys", batches)
	}
}

func TestLoad_DedupesConcurrentKeys(t *testing.T) {
	r := &testResolver{}
	l := New[int, int](r, WithWait(25*time.Millisecond))

	ctx := context.Background()
	thunks := []Thunk[int]{
		l.LoadThunk(ctx, 1),
		l.LoadThunk(ctx, 1),
		l.LoadThunk(ctx, 2),
		l.LoadThunk(ctx, 1),
	}

	want := []int{10, 10, 20, 10}
	for i, thunk := range thunks {
		v, err := thunk()
		if err != nil {
			t.Fatalf("thunk %d: %v", i, err)
		}
		if v != want[i] {
			t.Errorf("thunk %d = %d, want %d", i, v, want[i])
		}
	}

	batches := r.recordedBatches()
	if len(batches) != 1 {
		t.Fatalf("resolver calls = %d, want 1", len(batches))
	}
	if len(batches[0]) != 2 {
		t.Errorf("batch = %v, want 2 unique keys", batches[0])
	}
}

func TestLoadAll_PositionalWithDuplicates(t *testing.T) {
	r := &testResolver{}
	l := New[int, int](r, WithWait(25*time.Millisecond))

	values, errs := l.LoadAll(context.Background(), []int{3, 1, 3, 2, 1})

	want := []int{30, 10, 30, 20, 10}
	for i, v := range values {
		if errs[i] != nil {
			t.Fatalf("errs[%d] = %v", i, errs[i])
		}
		if v != want[i] {
			t.Errorf("values[%d] = %d, want %d", i, v, want[i])
		}
	}

	batches := r.recordedBatches()
	if len(batches) != 1 || len(batches[0]) != 3 {
		t.Errorf("batches = %v, want one batch of 3 unique keys", batches)
	}
}

func TestLoadAll_SplitsAtMaxBatchSize(t *testing.T) {
	r := &testResolver{}
	l := New[int, int](r, WithMaxBatchSize(4), WithWait(25*time.Millisecond))

	ctx := context.Background()
	t1 := l.LoadThunk(ctx, 1)
	t2 := l.LoadThunk(ctx, 2)
	t3 := l.LoadThunk(ctx, 3)
	for i, thunk := range []Thunk[int]{t1, t2, t3} {
		if v, err := thunk(); err != nil || v != (i+1)*10 {
			t.Fatalf("thunk %d = (%d, %v), want (%d, nil)", i, v, err, (i+1)*10)
		}
	}

	values, errs := l.LoadAll(ctx, []int{2, 3, 4, 5, 6, 7, 8})
	want := []int{20, 30, 40, 50, 60, 70, 80}
	for i, v := range values {
		if errs[i] != nil {
			t.Fatalf("errs[%d] = %v", i, errs[i])
		}
		if v != want[i] {
			t.Errorf("values[%d] = %d, want %d", i, v, want[i])
		}
	}

	batches := r.recordedBatches()
	if len(batches) != 3 {
		t.Fatalf("resolver calls = %d, want 3: %v", len(batches), batches)
	}
	for _, batch := range batches {
		if len(batch) > 4 {
			t.Errorf("batch %v exceeds max size 4", batch)
		}
	}
	if len(batches[1]) != 4 || len(batches[2]) != 3 {
		t.Errorf("second/third batches = %v %v, want sizes 4 and 3", batches[1], batches[2])
	}
}

func TestLoad_PerKeyFailureLeavesSiblingsIntact(t *testing.T) {
	errBoom := errors.New("boom")
	r := &testResolver{fail: map[int]error{7: errBoom}}
	l := New[int, int](r, WithWait(25*time.Millisecond))

	values, errs := l.LoadAll(context.Background(), []int{6, 7, 8})

	if !errors.Is(errs[1], errBoom) {
		t.Errorf("errs[1] = %v, want %v", errs[1], errBoom)
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("sibling errs = %v %v, want nil", errs[0], errs[2])
	}
	if values[0] != 60 || values[2] != 80 {
		t.Errorf("sibling values = %d %d, want 60 80", values[0], values[2])
	}
	if got := r.callCount(); got != 1 {
		t.Errorf("resolver calls = %d, want 1", got)
	}
}

func TestLoad_MissingResultIsContractViolation(t *testing.T) {
	r := &testResolver{omit: map[int]bool{5: true}}
	l := New[int, int](r, WithWait(25*time.Millisecond))

	values, errs := l.LoadAll(context.Background(), []int{4, 5})

	if errs[0] != nil || values[0] != 40 {
		t.Errorf("key 4 = (%d, %v), want (40, nil)", values[0], errs[0])
	}
	if !errors.Is(errs[1], ErrMissingResult) {
		t.Errorf("key 5 err = %v, want ErrMissingResult", errs[1])
	}
}

func TestLoad_ResolverCallFailureFailsWholeBatch(t *testing.T) {
	errDown := errors.New("backend down")
	r := &testResolver{callErr: errDown}
	l := New[int, int](r, WithWait(25*time.Millisecond))

	_, errs := l.LoadAll(context.Background(), []int{1, 2})

	for i, err := range errs {
		if !errors.Is(err, errDown) {
			t.Errorf("errs[%d] = %v, want %v", i, err, errDown)
		}
	}
}

func TestLoadAll_Empty(t *testing.T) {
	r := &testResolver{}
	l := New[int, int](r)

	values, errs := l.LoadAll(context.Background(), nil)

	if len(values) != 0 || len(errs) != 0 {
		t.Errorf("LoadAll(nil) = %v, %v, want empty", values, errs)
	}
	if got := r.callCount(); got != 0 {
		t.Errorf("resolver calls = %d, want 0", got)
	}
}

func TestLoad_AbandonedWaiterStillCompletes(t *testing.T) {
	r := &testResolver{}
	l := New[int, int](r, WithWait(25*time.Millisecond))

	cctx, cancel := context.WithCancel(context.Background())
	abandoned := l.LoadThunk(cctx, 1)
	kept := l.LoadThunk(context.Background(), 1)
	cancel()

	if _, err := abandoned(); !errors.Is(err, context.Canceled) {
		t.Errorf("abandoned thunk err = %v, want context.Canceled", err)
	}

	// The batch still resolves for the waiter that stayed.
	v, err := kept()
	if err != nil {
		t.Fatalf("kept thunk: %v", err)
	}
	if v != 10 {
		t.Errorf("kept thunk = %d, want 10", v)
	}
	if got := r.callCount(); got != 1 {
		t.Errorf("resolver calls = %d, want 1", got)
	}
}

func TestLoad_ConcurrentCallersShareHandle(t *testing.T) {
	r := &testResolver{}
	l := New[int, int](r, WithMaxBatchSize(4))

	const callers = 32
	var wg sync.WaitGroup
	results := make([]int, callers)
	errs := make([]error, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Load(context.Background(), i%5)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if want := (i % 5) * 10; results[i] != want {
			t.Errorf("caller %d = %d, want %d", i, results[i], want)
		}
	}

	// Batch composition depends on scheduling, but the contract does not:
	// no batch carries duplicates or exceeds the cap.
	for _, batch := range r.recordedBatches() {
		if len(batch) > 4 {
			t.Errorf("batch %v exceeds max size 4", batch)
		}
		seen := make(map[int]bool, len(batch))
		for _, k := range batch {
			if seen[k] {
				t.Errorf("batch %v contains duplicate key %d", batch, k)
			}
			seen[k] = true
		}
	}
}

func TestLoadAllThunk_Deferred(t *testing.T) {
	r := &testResolver{}
	l := New[int, int](r, WithWait(25*time.Millisecond))

	thunk := l.LoadAllThunk(context.Background(), []int{1, 2})
	values, errs := thunk()

	if errs[0] != nil || errs[1] != nil {
		t.Fatalf("errs = %v", errs)
	}
	if values[0] != 10 || values[1] != 20 {
		t.Errorf("values = %v, want [10 20]", values)
	}
}

func TestMaxBatchSize_Accessor(t *testing.T) {
	l := New[int, int](&testResolver{}, WithMaxBatchSize(7))
	if got := l.MaxBatchSize(); got != 7 {
		t.Errorf("MaxBatchSize() = %d, want 7", got)
	}
}
