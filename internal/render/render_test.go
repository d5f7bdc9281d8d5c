package render

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func TestStepFragment_Generic(t *testing.T) {
	r := newRenderer(t)

	html, err := r.StepFragment(FragmentRequest{
		WorkflowID: uuid.New(),
		Type:       domain.StepTypeMessage,
		Index:      2,
		Step: &domain.Step{
			Type:        domain.StepTypeMessage,
			Title:       "Welcome",
			Description: "Greets the user",
		},
	})
	if err != nil {
		t.Fatalf("StepFragment() error = %v", err)
	}

	for _, want := range []string{
		`class="step step-message"`,
		`data-index="2"`,
		`value="Welcome"`,
		`Greets the user`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("fragment missing %q:\n%s", want, html)
		}
	}
}

func TestStepFragment_QuestionFields(t *testing.T) {
	r := newRenderer(t)

	html, err := r.StepFragment(FragmentRequest{
		Type: domain.StepTypeQuestion,
		Step: &domain.Step{
			Type:         domain.StepTypeQuestion,
			Title:        "Age?",
			VariableName: "age",
			AnswerType:   domain.AnswerTypeNumber,
		},
	})
	if err != nil {
		t.Fatalf("StepFragment() error = %v", err)
	}

	if !strings.Contains(html, `value="age"`) {
		t.Errorf("fragment missing variable name:\n%s", html)
	}
	if !strings.Contains(html, `value="number" selected`) {
		t.Errorf("fragment did not preselect answer type:\n%s", html)
	}
}

func TestStepFragment_DecisionBranchesAndVariables(t *testing.T) {
	r := newRenderer(t)

	html, err := r.StepFragment(FragmentRequest{
		Type: domain.StepTypeDecision,
		Step: &domain.Step{
			Type: domain.StepTypeDecision,
			Branches: []domain.Branch{
				{Condition: `age >= 18`, Target: "Adult"},
			},
			ElseTarget: "Fallback",
		},
		Variables: []string{"age", "city"},
	})
	if err != nil {
		t.Fatalf("StepFragment() error = %v", err)
	}

	for _, want := range []string{
		`value="age &gt;= 18"`,
		`value="Adult"`,
		`value="Fallback"`,
		`<option value="age">`,
		`<option value="city">`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("fragment missing %q:\n%s", want, html)
		}
	}
}

func TestStepFragment_EscapesUserContent(t *testing.T) {
	r := newRenderer(t)

	html, err := r.StepFragment(FragmentRequest{
		Type: domain.StepTypeMessage,
		Step: &domain.Step{
			Type:  domain.StepTypeMessage,
			Title: `<script>alert("x")</script>`,
		},
	})
	if err != nil {
		t.Fatalf("StepFragment() error = %v", err)
	}

	if strings.Contains(html, "<script>") {
		t.Errorf("fragment leaked unescaped markup:\n%s", html)
	}
}

func TestStepFragment_EmptyStepDefaults(t *testing.T) {
	r := newRenderer(t)

	html, err := r.StepFragment(FragmentRequest{
		Type:  domain.StepTypeCheckpoint,
		Index: 0,
	})
	if err != nil {
		t.Fatalf("StepFragment() error = %v", err)
	}
	if !strings.Contains(html, `class="step step-checkpoint"`) {
		t.Errorf("fragment missing type class:\n%s", html)
	}
}

func TestStepFragment_UnknownType(t *testing.T) {
	r := newRenderer(t)

	if _, err := r.StepFragment(FragmentRequest{Type: "jump"}); err == nil {
		t.Fatal("StepFragment() expected error for unknown type")
	}
}
