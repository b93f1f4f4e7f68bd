package cache

import "testing"

func TestGetMemoizesUntilBump(t *testing.T) {
	s := NewStore()
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	v1, _ := s.Get("items", "pkg", []string{"pkg"}, compute)
	v2, _ := s.Get("items", "pkg", []string{"pkg"}, compute)
	if v1 != v2 {
		t.Fatalf("expected memoized value, got %v then %v", v1, v2)
	}
	if calls != 1 {
		t.Fatalf("expected compute called once, called %d times", calls)
	}

	s.Bump("pkg")
	v3, _ := s.Get("items", "pkg", []string{"pkg"}, compute)
	if v3 == v1 {
		t.Fatalf("expected recomputation after bump, got stale value %v", v3)
	}
	if calls != 2 {
		t.Fatalf("expected compute called twice after bump, called %d times", calls)
	}
}

func TestBumpOnlyInvalidatesDependents(t *testing.T) {
	s := NewStore()
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	s.Get("items", "a", []string{"a"}, compute)
	s.Bump("b") // unrelated package
	_, _ = s.Get("items", "a", []string{"a"}, compute)
	if calls != 1 {
		t.Fatalf("expected unrelated bump to leave cache intact, compute called %d times", calls)
	}
}
