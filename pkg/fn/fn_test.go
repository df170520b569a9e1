package fn

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, func(v int) string { return strconv.Itoa(v * 2) })
	if !reflect.DeepEqual(got, []string{"2", "4", "6"}) {
		t.Fatalf("Map = %v", got)
	}
}

func TestFilter(t *testing.T) {
	got := Filter([]int{1, 2, 3, 4, 5}, func(v int) bool { return v%2 == 0 })
	if !reflect.DeepEqual(got, []int{2, 4}) {
		t.Fatalf("Filter = %v", got)
	}
	if got := Filter([]int{1}, func(int) bool { return false }); got != nil {
		t.Fatalf("expected nil for no matches, got %v", got)
	}
}

func TestFlatMap(t *testing.T) {
	got := FlatMap([]int{1, 2}, func(v int) []int { return []int{v, v} })
	if !reflect.DeepEqual(got, []int{1, 1, 2, 2}) {
		t.Fatalf("FlatMap = %v", got)
	}
}

func TestUniqueBy(t *testing.T) {
	type job struct{ url, title string }
	in := []job{
		{"u1", "first"},
		{"u2", "second"},
		{"u1", "dup of first"},
	}
	got := UniqueBy(in, func(j job) string { return j.url })
	if len(got) != 2 || got[0].title != "first" {
		t.Fatalf("UniqueBy = %v", got)
	}
}

func TestChunk(t *testing.T) {
	got := Chunk([]int{1, 2, 3, 4, 5}, 2)
	want := [][]int{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chunk = %v", got)
	}
	if Chunk([]int{1}, 0) != nil {
		t.Fatal("Chunk with n=0 should be nil")
	}
}

func TestParMapPreservesOrder(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	got := ParMap(in, 8, func(v int) int { return v * v })
	for i, v := range got {
		if v != i*i {
			t.Fatalf("out[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestParMapBoundsConcurrency(t *testing.T) {
	var active, peak int64
	in := make([]int, 20)
	ParMap(in, 4, func(int) struct{} {
		n := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return struct{}{}
	})
	if p := atomic.LoadInt64(&peak); p > 4 {
		t.Fatalf("concurrency peaked at %d, limit 4", p)
	}
}

func TestParMapEmpty(t *testing.T) {
	got := ParMap(nil, 4, func(v int) int { return v })
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestResult(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOk() || ok.IsErr() {
		t.Fatal("Ok misclassified")
	}
	if v, err := ok.Unwrap(); v != 42 || err != nil {
		t.Fatalf("Unwrap = %v, %v", v, err)
	}

	e := Err[int](errors.New("boom"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err misclassified")
	}
	if e.UnwrapOr(7) != 7 {
		t.Fatal("UnwrapOr fallback not used")
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(1, nil); !r.IsOk() {
		t.Fatal("FromPair with nil error should be ok")
	}
	if r := FromPair(0, errors.New("x")); !r.IsErr() {
		t.Fatal("FromPair with error should be err")
	}
}

func TestCollect(t *testing.T) {
	r := Collect([]Result[int]{Ok(1), Ok(2)})
	v, _ := r.Unwrap()
	if !reflect.DeepEqual(v, []int{1, 2}) {
		t.Fatalf("Collect = %v", v)
	}

	boom := errors.New("boom")
	r = Collect([]Result[int]{Ok(1), Err[int](boom)})
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("Collect error = %v", err)
	}
}

func TestThenShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	first := func(_ context.Context, v int) Result[int] { return Err[int](boom) }
	second := func(_ context.Context, v int) Result[int] {
		t.Fatal("second stage ran after error")
		return Ok(v)
	}
	r := Then(first, second)(context.Background(), 1)
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("error lost: %v", err)
	}
}

func TestPipeline(t *testing.T) {
	double := MapStage(func(v int) int { return v * 2 })
	inc := MapStage(func(v int) int { return v + 1 })

	r := Pipeline(double, inc, double)(context.Background(), 3)
	if v, _ := r.Unwrap(); v != 14 {
		t.Fatalf("Pipeline = %d, want 14", v)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond}, func(context.Context) Result[string] {
		attempts++
		if attempts < 3 {
			return Errf[string]("attempt %d failed", attempts)
		}
		return Ok("done")
	})
	if v, _ := r.Unwrap(); v != "done" || attempts != 3 {
		t.Fatalf("Retry = %q after %d attempts", v, attempts)
	}
}

func TestRetryExhausts(t *testing.T) {
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond}, func(context.Context) Result[int] {
		return Errf[int]("always fails")
	})
	if !r.IsErr() {
		t.Fatal("expected error after exhausting attempts")
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := Retry(ctx, RetryOpts{MaxAttempts: 5, InitialWait: time.Minute}, func(context.Context) Result[int] {
		return Errf[int]("fail")
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
