package cache

import "testing"

func TestCache_SetLoadClear(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	c.Set(GroupAccounts, "accounts:all", []string{"A", "B"})
	c.Set(GroupSummary, "summary:dashboard", 42)

	got, ok := Load[[]string](c, "accounts:all")
	if !ok || len(got) != 2 {
		t.Fatalf("Load accounts = %v, %v", got, ok)
	}
	if _, ok := Load[string](c, "summary:dashboard"); ok {
		t.Error("Load with the wrong type should miss")
	}

	c.Clear(GroupAccounts)
	if _, ok := c.Get("accounts:all"); ok {
		t.Error("accounts key should be cleared")
	}
	if v, ok := Load[int](c, "summary:dashboard"); !ok || v != 42 {
		t.Errorf("summary key = %v, %v; want it untouched", v, ok)
	}
}

func TestCache_NilIsNoop(t *testing.T) {
	var c *Cache
	c.Set(GroupAccounts, "k", 1)
	if _, ok := c.Get("k"); ok {
		t.Error("nil cache should never hit")
	}
	c.Clear(GroupAccounts)
	c.Close()
}
