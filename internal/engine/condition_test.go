package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Flowboard/internal/domain"
)

// testRegistry builds a registry with one variable per type.
func testRegistry() *VariableRegistry {
	wf := &domain.Workflow{
		Mode: domain.ModeLegacy,
		Steps: []domain.Step{
			{Index: 0, Type: domain.StepTypeQuestion, Title: "Age", VariableName: "age", AnswerType: domain.AnswerTypeNumber},
			{Index: 1, Type: domain.StepTypeQuestion, Title: "Name", VariableName: "name", AnswerType: domain.AnswerTypeText},
			{Index: 2, Type: domain.StepTypeQuestion, Title: "Color", VariableName: "color", AnswerType: domain.AnswerTypeChoice, Options: []string{"red", "blue"}},
		},
	}
	return BuildRegistry(wf)
}

func TestParseCondition_Valid(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		variable string
		op       Operator
		value    string
	}{
		{name: "numeric ordering", text: "age >= 18", variable: "age", op: OpGe, value: "18"},
		{name: "numeric less", text: "age < 18", variable: "age", op: OpLt, value: "18"},
		{name: "quoted equality", text: `name == "Alice"`, variable: "name", op: OpEq, value: "Alice"},
		{name: "quoted inequality", text: `color != "red"`, variable: "color", op: OpNe, value: "red"},
		{name: "empty literal", text: `name == ""`, variable: "name", op: OpEq, value: ""},
		{name: "quoted ordering", text: `name > "m"`, variable: "name", op: OpGt, value: "m"},
		{name: "extra spaces", text: "  age  <=  65  ", variable: "age", op: OpLe, value: "65"},
		{name: "negative number", text: "age > -1", variable: "age", op: OpGt, value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseCondition(tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cond.Variable != tt.variable {
				t.Errorf("variable = %q, want %q", cond.Variable, tt.variable)
			}
			if cond.Operator != tt.op {
				t.Errorf("operator = %q, want %q", cond.Operator, tt.op)
			}
			if cond.Value != tt.value {
				t.Errorf("value = %q, want %q", cond.Value, tt.value)
			}
		})
	}
}

func TestParseCondition_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "empty", text: "", want: ErrEmptyCondition},
		{name: "spaces only", text: "   ", want: ErrEmptyCondition},
		{name: "no operator", text: "age", want: ErrMissingOperator},
		{name: "single equals", text: "age = 18", want: ErrUnknownOperator},
		{name: "arrow operator", text: "age => 18", want: ErrUnknownOperator},
		{name: "unterminated literal", text: `name == "Ali`, want: ErrUnterminatedLiteral},
		{name: "bare string literal", text: "age > abc", want: ErrMalformedLiteral},
		{name: "missing literal", text: "age >", want: ErrMalformedLiteral},
		{name: "trailing input", text: `name == "A" extra`, want: ErrTrailingInput},
		{name: "two bare tokens", text: "age > 1 2", want: ErrTrailingInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCondition(tt.text)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var pErr *ParseError
			if !errors.As(err, &pErr) {
				t.Fatalf("expected ParseError, got %T", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// Round-trip: parse(build(variable, operator, value)) возвращает
// исходную тройку для всех валидных комбинаций.
func TestBuildCondition_RoundTrip(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		variable string
		op       Operator
		value    string
	}{
		{"age", OpEq, "18"},
		{"age", OpNe, "18"},
		{"age", OpGt, "18"},
		{"age", OpGe, "18"},
		{"age", OpLt, "65"},
		{"age", OpLe, "65"},
		{"name", OpEq, "Alice"},
		{"name", OpNe, ""},
		{"name", OpGt, "m"},
		{"color", OpEq, "red"},
		{"color", OpLt, "red"},
	}

	for _, tt := range tests {
		t.Run(tt.variable+" "+string(tt.op)+" "+tt.value, func(t *testing.T) {
			text, err := BuildCondition(reg, tt.variable, tt.op, tt.value)
			if err != nil {
				t.Fatalf("build: %v", err)
			}

			cond, err := ParseCondition(text)
			if err != nil {
				t.Fatalf("parse %q: %v", text, err)
			}

			if cond.Variable != tt.variable || cond.Operator != tt.op || cond.Value != tt.value {
				t.Errorf("round trip of %q: got (%q, %q, %q), want (%q, %q, %q)",
					text, cond.Variable, cond.Operator, cond.Value, tt.variable, tt.op, tt.value)
			}
		})
	}
}

func TestBuildCondition_Quoting(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name     string
		variable string
		op       Operator
		value    string
		want     string
	}{
		{name: "equality always quoted", variable: "age", op: OpEq, value: "18", want: `age == "18"`},
		{name: "numeric ordering bare", variable: "age", op: OpGe, value: "18", want: "age >= 18"},
		{name: "string ordering quoted", variable: "name", op: OpGt, value: "m", want: `name > "m"`},
		{name: "enum ordering quoted", variable: "color", op: OpLt, value: "red", want: `color < "red"`},
		{name: "numeric var non-numeric value quoted", variable: "age", op: OpGt, value: "abc", want: `age > "abc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildCondition(reg, tt.variable, tt.op, tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildCondition_UnknownOperator(t *testing.T) {
	reg := testRegistry()

	if _, err := BuildCondition(reg, "age", Operator("=>"), "18"); !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	bindings := map[string]string{
		"age":   "20",
		"name":  "Alice",
		"empty": "",
		"pad":   "  Bob  ",
	}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "numeric true", text: "age >= 18", want: true},
		{name: "numeric false", text: "age < 18", want: false},
		{name: "equality true", text: `name == "Alice"`, want: true},
		{name: "equality case sensitive", text: `name == "alice"`, want: false},
		{name: "inequality", text: `name != "Bob"`, want: true},
		{name: "empty literal matches empty", text: `empty == ""`, want: true},
		{name: "empty literal against value", text: `name == ""`, want: false},
		{name: "trims before comparing", text: `pad == "Bob"`, want: true},
		{name: "missing variable never matches", text: `ghost == ""`, want: false},
		{name: "missing variable inequality", text: `ghost != "x"`, want: false},
		{name: "non-numeric binding fails closed", text: "name > 5", want: false},
		{name: "lexicographic ordering", text: `name < "Bob"`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseCondition(tt.text)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := cond.Evaluate(bindings); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// Empty binding fails closed for numeric comparisons on both branches:
// ни одна из веток "age >= 18" / "age < 18" не срабатывает.
func TestEvaluate_EmptyNumericFailsClosed(t *testing.T) {
	bindings := map[string]string{"age": ""}

	for _, text := range []string{"age >= 18", "age < 18"} {
		cond, err := ParseCondition(text)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if cond.Evaluate(bindings) {
			t.Errorf("Evaluate(%q) with empty binding should be false", text)
		}
	}
}

func TestValidateCondition(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name   string
		text   string
		strict bool
		want   error
	}{
		{name: "known variable", text: "age >= 18", strict: true, want: nil},
		{name: "unknown variable", text: "ghost == \"x\"", strict: false, want: ErrUnknownVariable},
		{name: "ordering on string strict", text: `name > "m"`, strict: true, want: ErrTypeMismatch},
		{name: "ordering on string lenient", text: `name > "m"`, strict: false, want: nil},
		{name: "ordering on enum strict", text: `color < "red"`, strict: true, want: ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseCondition(tt.text)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}

			err = ValidateCondition(reg, cond, tt.strict)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
