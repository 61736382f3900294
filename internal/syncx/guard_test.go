package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(42)

	if got := g.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}

	g.Set(100)
	if got := g.Get(); got != 100 {
		t.Errorf("Get() after Set = %d, want 100", got)
	}
}

func TestGuardSwap(t *testing.T) {
	g := NewGuard("hello")

	old := g.Swap("world")
	if old != "hello" {
		t.Errorf("Swap returned %q, want %q", old, "hello")
	}
	if got := g.Get(); got != "world" {
		t.Errorf("Get() after Swap = %q, want %q", got, "world")
	}
}

func TestGuardRead(t *testing.T) {
	g := NewGuard(map[string]string{"transcript": "hello"})

	got := g.Read(func(slots map[string]string) any {
		return slots["transcript"]
	})

	if got != "hello" {
		t.Errorf("Read returned %v, want hello", got)
	}
}

func TestGuardConcurrentReaders(t *testing.T) {
	g := NewGuard(7)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := g.Read(func(v int) any { return v }); got != 7 {
				t.Errorf("Read = %v, want 7", got)
			}
		}()
	}
	wg.Wait()
}

func TestGuardWrite(t *testing.T) {
	type counter struct{ value int }
	g := NewGuard(counter{value: 0})

	g.Write(func(c *counter) {
		c.value = 42
	})

	if got := g.Get().value; got != 42 {
		t.Errorf("Get().value = %d, want 42", got)
	}
}

func TestGuardUpdate(t *testing.T) {
	g := NewGuard(10)

	result := g.Update(func(v *int) any {
		old := *v
		*v = 20
		return old
	})

	if result != 10 {
		t.Errorf("Update returned %v, want 10", result)
	}
	if got := g.Get(); got != 20 {
		t.Errorf("Get() = %d, want 20", got)
	}
}

func TestGuardConcurrentSafety(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Write(func(v *int) {
				*v++
			})
		}()
	}

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Get()
		}()
	}

	wg.Wait()

	if got := g.Get(); got != 100 {
		t.Errorf("Get() = %d, want 100", got)
	}
}

func TestEpochTokens(t *testing.T) {
	var e Epoch

	tok := e.Current()
	if !e.Valid(tok) {
		t.Error("freshly issued token should be valid")
	}

	e.Bump()
	if e.Valid(tok) {
		t.Error("token from before Bump should be stale")
	}
	if !e.Valid(e.Current()) {
		t.Error("token issued after Bump should be valid")
	}
}

func TestEpochMonotonic(t *testing.T) {
	var e Epoch
	prev := e.Current()
	for i := 0; i < 10; i++ {
		next := e.Bump()
		if next <= prev {
			t.Fatalf("Bump not monotonic: %d then %d", prev, next)
		}
		prev = next
	}
}
