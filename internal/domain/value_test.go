package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestValueOfDriverTypes(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	cases := []struct {
		in   any
		kind ValueKind
	}{
		{nil, ValueNull},
		{"x", ValueText},
		{[]byte{1, 2}, ValueBytes},
		{true, ValueBool},
		{int32(7), ValueInt},
		{uint64(9), ValueInt},
		{uint64(math.MaxUint64), ValueText},
		{float32(1.5), ValueFloat},
		{ts, ValueTime},
		{[16]byte{1}, ValueText},
		{map[string]any{"a": 1}, ValueText},
		{struct{ A int }{1}, ValueText},
	}
	for _, tc := range cases {
		if got := ValueOf(tc.in).Kind(); got != tc.kind {
			t.Fatalf("ValueOf(%#v) kind = %s, want %s", tc.in, got, tc.kind)
		}
	}
}

func TestRowMarshalsToPlainJSON(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	row := RowOf(map[string]any{
		"id":      int64(1),
		"msg":     "teste",
		"ok":      true,
		"ratio":   0.25,
		"at":      ts,
		"missing": nil,
		"blob":    []byte("hi"),
	})

	b, err := json.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"at":"2024-03-01T12:30:00Z","blob":"aGk=","id":1,"missing":null,"msg":"teste","ok":true,"ratio":0.25}`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}
}

func TestValueMarshalNonFiniteFloat(t *testing.T) {
	b, err := json.Marshal(Float(math.Inf(1)))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"+Inf"` {
		t.Fatalf("got %s", b)
	}
}

func TestValueBytesAreCopied(t *testing.T) {
	src := []byte("abc")
	v := Bytes(src)
	src[0] = 'z'
	if got := v.Interface().([]byte); string(got) != "abc" {
		t.Fatalf("expected copy, got %q", got)
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("Erro no SELECT")
	err := fmt.Errorf("wrapped: %w", NewError(QueryFailed, "fetch_all", cause))

	if KindOf(err) != QueryFailed {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to stay reachable")
	}
	if IsCallerError(err) {
		t.Fatal("query failure is not a caller error")
	}
	if !IsCallerError(ErrEmptyTableName) {
		t.Fatal("empty table name should be a caller error")
	}
	if KindOf(cause) != "" {
		t.Fatal("plain errors carry no kind")
	}
	if got := NewError(ExportFailed, "export", cause).Error(); got != "export_failed: export: Erro no SELECT" {
		t.Fatalf("unexpected message %q", got)
	}
}
