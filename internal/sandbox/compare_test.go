package sandbox

import "testing"

func result(columns []string, rows ...[]interface{}) *Result {
	if rows == nil {
		rows = [][]interface{}{}
	}
	return &Result{Columns: columns, Rows: rows, RowCount: len(rows)}
}

func TestEqualExactMatch(t *testing.T) {
	got := result([]string{"id", "title"},
		[]interface{}{int64(1), "sword"},
		[]interface{}{int64(2), "shield"},
	)
	want := result([]string{"id", "title"},
		[]interface{}{float64(1), "sword"},
		[]interface{}{float64(2), "shield"},
	)
	if !Equal(got, want) {
		t.Fatalf("expected results to be equal")
	}
}

func TestEqualIsOrderSensitive(t *testing.T) {
	got := result([]string{"id"},
		[]interface{}{int64(2)},
		[]interface{}{int64(1)},
	)
	want := result([]string{"id"},
		[]interface{}{float64(1)},
		[]interface{}{float64(2)},
	)
	if Equal(got, want) {
		t.Fatalf("same rows in different order must not be equal")
	}
}

func TestEqualColumnOrderMatters(t *testing.T) {
	got := result([]string{"a", "b"}, []interface{}{int64(1), int64(2)})
	want := result([]string{"b", "a"}, []interface{}{float64(2), float64(1)})
	if Equal(got, want) {
		t.Fatalf("same columns in different order must not be equal")
	}
}

func TestEqualMismatches(t *testing.T) {
	base := result([]string{"id"}, []interface{}{int64(1)})
	cases := []struct {
		name  string
		other *Result
	}{
		{"extra row", result([]string{"id"}, []interface{}{float64(1)}, []interface{}{float64(2)})},
		{"missing row", result([]string{"id"})},
		{"extra column", result([]string{"id", "title"}, []interface{}{float64(1), "x"})},
		{"different value", result([]string{"id"}, []interface{}{float64(7)})},
		{"different type family", result([]string{"id"}, []interface{}{"1"})},
		{"null versus value", result([]string{"id"}, []interface{}{nil})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if Equal(base, tc.other) {
				t.Fatalf("expected mismatch")
			}
		})
	}
}

func TestEqualCrossRepresentationValues(t *testing.T) {
	cases := []struct {
		name string
		a    interface{}
		b    interface{}
		want bool
	}{
		{"int64 vs float64", int64(42), float64(42), true},
		{"int vs int64", int(3), int64(3), true},
		{"float32 vs float64", float32(2.5), float64(2.5), true},
		{"numeric mismatch", int64(1), float64(2), false},
		{"string vs string", "abc", "abc", true},
		{"bool vs bool", true, true, true},
		{"bool mismatch", true, false, false},
		{"nil vs nil", nil, nil, true},
		{"nil vs zero", nil, float64(0), false},
		{"number vs numeric string", int64(1), "1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := valueEqual(tc.a, tc.b); got != tc.want {
				t.Fatalf("valueEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestEqualNilResults(t *testing.T) {
	r := result([]string{"id"})
	if Equal(nil, r) || Equal(r, nil) {
		t.Fatalf("nil must not equal a result")
	}
	if !Equal(nil, nil) {
		t.Fatalf("two nil results are equal")
	}
}
