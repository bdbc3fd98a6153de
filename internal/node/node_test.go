package node

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	n, err := Decode(strings.NewReader(`{"b": [1, "x", true, null], "a": {}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if n.Kind() != KindObject {
		t.Fatalf("Kind() = %v, want object", n.Kind())
	}
	fields := n.Fields()
	if len(fields) != 2 || fields[0].Name != "b" || fields[1].Name != "a" {
		t.Fatalf("Fields() = %+v, want b then a", fields)
	}

	b, _ := n.Lookup("b")
	elems := b.Elems()
	if len(elems) != 4 {
		t.Fatalf("len(Elems()) = %d, want 4", len(elems))
	}
	if v, ok := elems[0].Value().(json.Number); !ok || v.String() != "1" {
		t.Errorf("Elems()[0] = %#v, want json.Number 1", elems[0].Value())
	}
	if !elems[3].IsNull() {
		t.Errorf("Elems()[3].IsNull() = false, want true")
	}

	a, _ := n.Lookup("a")
	if a.Kind() != KindObject || len(a.Fields()) != 0 {
		t.Errorf("a = %+v, want empty object", a)
	}
	if _, ok := n.Lookup("missing"); ok {
		t.Error("Lookup(missing) ok = true, want false")
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ``},
		{name: "truncated", input: `{"a": [1, 2`},
		{name: "trailing", input: `{"a": 1} {"b": 2}`},
		{name: "bad_token", input: `{"a": tru}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(strings.NewReader(tt.input))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformed", tt.input, err)
			}
		})
	}
}

func TestFromAny(t *testing.T) {
	t.Parallel()

	got, err := FromAny(map[string]any{
		"z": []any{float64(1.5), nil},
		"a": "x",
	})
	if err != nil {
		t.Fatalf("FromAny() error = %v", err)
	}

	want := Object(
		F("a", Scalar("x")),
		F("z", Array(Scalar(json.Number("1.5")), Null())),
	)
	if !Equal(got, want) {
		t.Errorf("FromAny() = %+v, want %+v", got, want)
	}
	if got.Fields()[0].Name != "a" {
		t.Errorf("first field = %q, want sorted keys", got.Fields()[0].Name)
	}

	if _, err := FromAny(map[string]any{"c": make(chan int)}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("FromAny(chan) error = %v, want ErrUnsupported", err)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Node
		want bool
	}{
		{
			name: "field_order_ignored",
			a:    Object(F("a", Scalar("1")), F("b", Scalar("2"))),
			b:    Object(F("b", Scalar("2")), F("a", Scalar("1"))),
			want: true,
		},
		{
			name: "element_order_matters",
			a:    Array(Scalar("1"), Scalar("2")),
			b:    Array(Scalar("2"), Scalar("1")),
			want: false,
		},
		{
			name: "null_differs_from_string_null",
			a:    Null(),
			b:    Scalar("null"),
			want: false,
		},
		{
			name: "number_forms",
			a:    Scalar(json.Number("42")),
			b:    Scalar(42),
			want: true,
		},
		{
			name: "kind_mismatch",
			a:    Object(),
			b:    Array(),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: "null"},
		{in: "I", want: "I"},
		{in: json.Number("0.50"), want: "0.50"},
		{in: true, want: "true"},
		{in: float64(10.5), want: "10.5"},
		{in: int64(7), want: "7"},
	}

	for _, tt := range tests {
		if got := String(tt.in); got != tt.want {
			t.Errorf("String(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	if KindObject.String() != "object" || KindArray.String() != "array" || KindScalar.String() != "scalar" {
		t.Errorf("Kind strings = %s/%s/%s", KindObject, KindArray, KindScalar)
	}
}
