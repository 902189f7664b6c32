package cache

import (
	"strings"
	"testing"
)

type addressFixture struct {
	Field string
	Op    string
	Value any
}

func TestSerializeKey_NoArgs(t *testing.T) {
	s := NewDefaultKeySerializer()
	if got := s.SerializeKey("products"); got != "products" {
		t.Errorf("expected bare name, got %q", got)
	}
}

func TestSerializeKey_BasicTypes(t *testing.T) {
	s := NewDefaultKeySerializer()

	tests := []struct {
		name string
		args []any
		want string
	}{
		{"string id", []any{"p1"}, "products::p1"},
		{"int", []any{42}, "products::42"},
		{"bool", []any{true}, "products::true"},
		{"float", []any{9.99}, "products::9.99"},
		{"nil", []any{nil}, "products::nil"},
		{"multiple", []any{"p1", 2}, "products::p1::2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SerializeKey("products", tt.args...); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeKey_Deterministic(t *testing.T) {
	s := NewDefaultKeySerializer()

	filters := []addressFixture{
		{Field: "category_id", Op: "eq", Value: "lawn"},
		{Field: "price", Op: "le", Value: 5000},
	}

	first := s.SerializeKey("products", "", filters)
	for i := 0; i < 50; i++ {
		if got := s.SerializeKey("products", "", filters); got != first {
			t.Fatalf("key changed between calls: %q vs %q", got, first)
		}
	}
}

func TestSerializeKey_MapsSorted(t *testing.T) {
	s := NewDefaultKeySerializer()

	m := map[string]int{"z": 1, "a": 2, "m": 3}
	first := s.SerializeKey("k", m)
	for i := 0; i < 50; i++ {
		if got := s.SerializeKey("k", m); got != first {
			t.Fatalf("map serialization not deterministic: %q vs %q", got, first)
		}
	}
	if !strings.Contains(first, "map[3]") {
		t.Errorf("expected map length marker in %q", first)
	}
}

func TestSerializeKey_StructFields(t *testing.T) {
	s := NewDefaultKeySerializer()

	got := s.SerializeKey("k", addressFixture{Field: "slug", Op: "eq", Value: "lawn-suit"})
	if !strings.Contains(got, "Field:slug") || !strings.Contains(got, "Value:lawn-suit") {
		t.Errorf("expected exported fields in key, got %q", got)
	}
}

func TestSerializeKey_DistinguishesValues(t *testing.T) {
	s := NewDefaultKeySerializer()

	a := s.SerializeKey("products", []addressFixture{{Field: "category_id", Op: "eq", Value: "lawn"}})
	b := s.SerializeKey("products", []addressFixture{{Field: "category_id", Op: "eq", Value: "winter"}})
	if a == b {
		t.Error("different filter values must produce different keys")
	}
}

func TestSerializeKey_NilSliceAndPointer(t *testing.T) {
	s := NewDefaultKeySerializer()

	var nilSlice []string
	if got := s.SerializeKey("k", nilSlice); got != "k::slice:nil" {
		t.Errorf("unexpected nil slice key: %q", got)
	}

	var nilPtr *addressFixture
	if got := s.SerializeKey("k", nilPtr); got != "k::nil" {
		t.Errorf("unexpected nil pointer key: %q", got)
	}

	value := addressFixture{Field: "f"}
	direct := s.SerializeKey("k", value)
	viaPtr := s.SerializeKey("k", &value)
	if direct != viaPtr {
		t.Errorf("pointer should serialize as its element: %q vs %q", viaPtr, direct)
	}
}
