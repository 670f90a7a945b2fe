package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/gofhir/jsonschema/pkg/schema"
)

func TestRegistry_AddGet(t *testing.T) {
	r := New()
	node := &schema.BoolNode{Ref: "#/definitions/a", Value: true}

	if err := r.Add("#/definitions/a", node); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := r.Get("#/definitions/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != node {
		t.Errorf("Get() returned a different node")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d; want 1", r.Count())
	}
}

func TestRegistry_Canonicalizes(t *testing.T) {
	r := New()
	node := &schema.BoolNode{Ref: "http://example.com/s.json#", Value: true}
	if err := r.Add("http://example.com/s.json", node); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !r.Has("http://example.com/s.json#") {
		t.Error("a missing fragment and an empty fragment should be the same key")
	}
}

func TestRegistry_Unresolved(t *testing.T) {
	r := New()
	_, err := r.Get("#/definitions/missing")
	if !errors.Is(err, schema.ErrUnresolvedReference) {
		t.Fatalf("Get() error = %v; want ErrUnresolvedReference", err)
	}
	var se *schema.SchemaError
	if !errors.As(err, &se) || se.URI != "#/definitions/missing" {
		t.Errorf("error should be a SchemaError naming the URI, got %v", err)
	}
}

func TestRegistry_FirstWins(t *testing.T) {
	r := New()
	first := &schema.BoolNode{Ref: "#", Value: true}
	second := &schema.BoolNode{Ref: "#", Value: false}
	_ = r.Add("#", first)
	_ = r.Add("#", second)

	got, _ := r.Get("#")
	if got != first {
		t.Error("first registration should win")
	}
}

func TestRegistry_Sealed(t *testing.T) {
	r := New()
	r.Seal()
	if !r.Sealed() {
		t.Fatal("Sealed() = false after Seal()")
	}
	err := r.Add("#", &schema.BoolNode{Ref: "#", Value: true})
	if !errors.Is(err, ErrSealed) {
		t.Errorf("Add() after Seal error = %v; want ErrSealed", err)
	}
}

func TestRegistry_AllURIs(t *testing.T) {
	r := New()
	_ = r.Add("#/b", &schema.BoolNode{Ref: "#/b"})
	_ = r.Add("#/a", &schema.BoolNode{Ref: "#/a"})

	uris := r.AllURIs()
	if len(uris) != 2 || uris[0] != "#/a" || uris[1] != "#/b" {
		t.Errorf("AllURIs() = %v; want [#/a #/b]", uris)
	}
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := New()
	_ = r.Add("#", &schema.BoolNode{Ref: "#", Value: true})
	r.Seal()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Get("#"); err != nil {
				t.Errorf("Get() error = %v", err)
			}
		}()
	}
	wg.Wait()
}
