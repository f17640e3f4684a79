package rlm

import "testing"

func TestFoldRegistryPutGet(t *testing.T) {
	reg, err := NewFoldRegistry(2)
	if err != nil {
		t.Fatalf("NewFoldRegistry: %v", err)
	}
	fold := NewContextFold("a", "content")
	reg.Put(fold)

	got, ok := reg.Get(fold.ID)
	if !ok || got.Label != "a" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
}

func TestFoldRegistryEvictsLRU(t *testing.T) {
	reg, err := NewFoldRegistry(1)
	if err != nil {
		t.Fatalf("NewFoldRegistry: %v", err)
	}
	a := NewContextFold("a", "x")
	b := NewContextFold("b", "y")
	reg.Put(a)
	reg.Put(b)

	if _, ok := reg.Get(a.ID); ok {
		t.Fatal("expected a to be evicted")
	}
	if _, ok := reg.Get(b.ID); !ok {
		t.Fatal("expected b to still be present")
	}
}

func TestFoldRegistryRemove(t *testing.T) {
	reg, err := NewFoldRegistry(2)
	if err != nil {
		t.Fatalf("NewFoldRegistry: %v", err)
	}
	fold := NewContextFold("a", "content")
	reg.Put(fold)
	reg.Remove(fold.ID)
	if _, ok := reg.Get(fold.ID); ok {
		t.Fatal("expected fold removed")
	}
}
