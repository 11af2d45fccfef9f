package flow

import (
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantKind  ClassKind
		wantName  string
		wantValue string
	}{
		{name: "empty", line: "", wantKind: ClassIgnore},
		{name: "whitespace only", line: "   \t", wantKind: ClassIgnore},
		{name: "comment", line: "// let a = 1", wantKind: ClassIgnore},
		{name: "indented comment", line: "    // a.sum()", wantKind: ClassIgnore},
		{name: "let binding", line: "let a = 1", wantKind: ClassBinding, wantName: "a", wantValue: "1"},
		{name: "binding without keyword", line: "total = a + b", wantKind: ClassBinding, wantName: "total", wantValue: "a + b"},
		{name: "binding without spaces", line: "let _x1=[1,2]", wantKind: ClassBinding, wantName: "_x1", wantValue: "[1,2]"},
		{name: "binding with empty rhs", line: "let a =", wantKind: ClassBinding, wantName: "a", wantValue: ""},
		{name: "binding wins over call", line: "let x = a.map(f)", wantKind: ClassBinding, wantName: "x", wantValue: "a.map(f)"},
		{name: "comparison is not a binding", line: "a == b", wantKind: ClassUnrecognized},
		{name: "arrow is not a binding", line: "x => y", wantKind: ClassUnrecognized},
		{name: "arrow call is not a binding", line: "f => a.map(f)", wantKind: ClassOperation, wantName: "map"},
		{name: "keyword is not a name", line: "let = 5", wantKind: ClassUnrecognized},
		{name: "keyword bound after keyword", line: "let let = 5", wantKind: ClassUnrecognized},
		{name: "arrow in value", line: "let f = x => x * 2", wantKind: ClassBinding, wantName: "f", wantValue: "x => x * 2"},
		{name: "chained call", line: "a.filter(x)", wantKind: ClassOperation, wantName: "filter"},
		{name: "empty call", line: "a.sum()", wantKind: ClassOperation, wantName: "sum"},
		{name: "first call wins", line: "a.smooth(3).sum()", wantKind: ClassOperation, wantName: "smooth"},
		{name: "call after field access", line: "data.values.mean()", wantKind: ClassOperation, wantName: "mean"},
		{name: "unclosed call", line: "a.filter(", wantKind: ClassUnrecognized},
		{name: "plain call", line: "print(a)", wantKind: ClassUnrecognized},
		{name: "identifier must not start with digit", line: "let 1a = 2", wantKind: ClassUnrecognized},
		{name: "garbage", line: "}{)(*&^%$", wantKind: ClassUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line, 7)
			if got.Kind != tt.wantKind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.line, got.Kind, tt.wantKind)
			}
			if got.Line != 7 {
				t.Errorf("Classify(%q).Line = %d, want 7", tt.line, got.Line)
			}
			if got.Name != tt.wantName {
				t.Errorf("Classify(%q).Name = %q, want %q", tt.line, got.Name, tt.wantName)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Classify(%q).Value = %q, want %q", tt.line, got.Value, tt.wantValue)
			}
		})
	}
}

func TestClassifierOptions(t *testing.T) {
	c := NewClassifier(Options{
		CommentPrefix:   "#",
		BindingKeywords: []string{"let", "var"},
	})

	if got := c.Classify("# note", 0); got.Kind != ClassIgnore {
		t.Errorf("custom comment prefix: got %v, want ignore", got.Kind)
	}
	if got := c.Classify("// not a comment here", 0); got.Kind != ClassUnrecognized {
		t.Errorf("default prefix with custom options: got %v, want unrecognized", got.Kind)
	}
	if got := c.Classify("var total = 3", 0); got.Kind != ClassBinding || got.Name != "total" {
		t.Errorf("var keyword: got %+v, want binding total", got)
	}
}

func TestClassKindString(t *testing.T) {
	if ClassOperation.String() != "operation" {
		t.Errorf("ClassOperation.String() = %q", ClassOperation.String())
	}
	if ClassKind(42).String() != "unknown" {
		t.Errorf("ClassKind(42).String() = %q", ClassKind(42).String())
	}
}

func TestClassificationJSON(t *testing.T) {
	data, err := json.Marshal(Classify("let a = 1", 2))
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	want := `{"kind":"binding","line":2,"name":"a","value":"1"}`
	if string(data) != want {
		t.Errorf("json.Marshal() = %s, want %s", data, want)
	}
}
