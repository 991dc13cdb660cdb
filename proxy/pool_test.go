package proxy

import "testing"

func TestPool_EmptyMeansDirect(t *testing.T) {
	p := NewPool(nil)
	if got := p.Pick(); got != "" {
		t.Errorf("empty pool picked %q, want direct connection", got)
	}
	if p.Size() != 0 {
		t.Errorf("Size = %d, want 0", p.Size())
	}
}

func TestPool_PickStaysInBounds(t *testing.T) {
	addrs := []string{"http://a:8080", "http://b:8080", "socks5://c:1080"}
	p := NewPool(addrs)

	valid := map[string]bool{}
	for _, a := range addrs {
		valid[a] = true
	}
	for i := 0; i < 100; i++ {
		if got := p.Pick(); !valid[got] {
			t.Fatalf("Pick returned unknown address %q", got)
		}
	}
}

func TestPool_SelectionIsInjectable(t *testing.T) {
	p := NewPool([]string{"a", "b", "c"})
	p.pick = func(n int) int { return n - 1 }
	if got := p.Pick(); got != "c" {
		t.Errorf("Pick = %q, want c", got)
	}
}

func TestPool_CopiesInput(t *testing.T) {
	addrs := []string{"http://a:8080"}
	p := NewPool(addrs)
	addrs[0] = "mutated"
	if got := p.Pick(); got != "http://a:8080" {
		t.Errorf("pool shares caller's slice: got %q", got)
	}
}
