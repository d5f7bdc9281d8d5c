package engine

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
)

func TestValidateDraft(t *testing.T) {
	// Неполный decision и висячая ссылка терпимы в черновике.
	wf := linearWorkflow("Check", "Next")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = []domain.Branch{{Condition: "x == \"1\"", Target: "Ghost"}}

	if err := ValidateDraft(wf); err != nil {
		t.Errorf("draft validation should tolerate incomplete structure: %v", err)
	}
}

func TestValidateDraft_UnknownStepType(t *testing.T) {
	wf := linearWorkflow("A")
	wf.Steps[0].Type = domain.StepType("bogus")

	err := ValidateDraft(wf)
	if !errors.Is(err, ErrUnknownStepType) {
		t.Errorf("expected ErrUnknownStepType, got %v", err)
	}
}

func TestValidateDraft_DuplicateUID(t *testing.T) {
	uid := uuid.New()
	wf := &domain.Workflow{
		Mode: domain.ModeGraph,
		Steps: []domain.Step{
			{UID: uid, Index: 0, Type: domain.StepTypeAction},
			{UID: uid, Index: 1, Type: domain.StepTypeAction},
		},
	}

	err := ValidateDraft(wf)
	if !errors.Is(err, ErrDuplicateStepUID) {
		t.Errorf("expected ErrDuplicateStepUID, got %v", err)
	}
}

func TestValidatePublish_Valid(t *testing.T) {
	wf := linearWorkflow("Ask", "Check", "Adult", "Minor")
	wf.Steps[0].Type = domain.StepTypeQuestion
	wf.Steps[0].VariableName = "age"
	wf.Steps[0].AnswerType = domain.AnswerTypeNumber
	wf.Steps[1].Type = domain.StepTypeDecision
	wf.Steps[1].Branches = []domain.Branch{
		{Condition: "age >= 18", Target: "Adult"},
		{Condition: "age < 18", Target: "Minor"},
	}

	graph := NewStepGraph(wf)
	if err := ValidatePublish(graph); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// resolve-шаг с исходящим ребром — ошибка публикации, не черновика.
func TestValidatePublish_ResolveWithOutgoingEdge(t *testing.T) {
	uid0, uid1 := uuid.New(), uuid.New()
	wf := &domain.Workflow{
		Mode: domain.ModeGraph,
		Steps: []domain.Step{
			{UID: uid0, Index: 0, Type: domain.StepTypeResolve, Title: "Done",
				Transitions: []domain.Transition{{Target: uid1}}},
			{UID: uid1, Index: 1, Type: domain.StepTypeAction, Title: "After"},
		},
	}

	if err := ValidateDraft(wf); err != nil {
		t.Fatalf("draft should accept resolve with edges: %v", err)
	}

	graph := NewStepGraph(wf)
	err := ValidatePublish(graph)
	if !errors.Is(err, ErrTerminalStepHasEdges) {
		t.Errorf("expected ErrTerminalStepHasEdges, got %v", err)
	}
}

// resolve-шаг перед другими шагами публикуется: неявного
// секвенциального ребра из него нет.
func TestValidatePublish_MidListResolve(t *testing.T) {
	wf := linearWorkflow("Done", "After")
	wf.Steps[0].Type = domain.StepTypeResolve

	graph := NewStepGraph(wf)
	if err := ValidatePublish(graph); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidatePublish_DanglingReference(t *testing.T) {
	wf := linearWorkflow("Check", "Next")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = []domain.Branch{{Condition: `x == "1"`, Target: "Ghost"}}

	graph := NewStepGraph(wf)
	err := ValidatePublish(graph)
	if !errors.Is(err, ErrDanglingReference) {
		t.Errorf("expected ErrDanglingReference, got %v", err)
	}
}

func TestValidatePublish_IncompleteDecision(t *testing.T) {
	wf := linearWorkflow("Check", "Next")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = nil

	graph := NewStepGraph(wf)
	err := ValidatePublish(graph)
	if !errors.Is(err, ErrIncompleteDecision) {
		t.Errorf("expected ErrIncompleteDecision, got %v", err)
	}
}

func TestValidatePublish_StrictConditionCheck(t *testing.T) {
	// Переменная name строковая — оператор порядка в строгом режиме
	// отклоняется.
	wf := linearWorkflow("Ask", "Check", "High", "Low")
	wf.Steps[0].Type = domain.StepTypeQuestion
	wf.Steps[0].VariableName = "name"
	wf.Steps[0].AnswerType = domain.AnswerTypeText
	wf.Steps[1].Type = domain.StepTypeDecision
	wf.Steps[1].Branches = []domain.Branch{{Condition: `name > "m"`, Target: "High"}}
	wf.Steps[1].ElseTarget = "Low"

	graph := NewStepGraph(wf)
	err := ValidatePublish(graph)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestValidatePublish_UnknownVariable(t *testing.T) {
	wf := linearWorkflow("Check", "Next")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = []domain.Branch{{Condition: `ghost == "1"`, Target: "Next"}}

	graph := NewStepGraph(wf)
	err := ValidatePublish(graph)
	if !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("expected ErrUnknownVariable, got %v", err)
	}
}

func TestValidatePublish_Empty(t *testing.T) {
	graph := NewStepGraph(&domain.Workflow{})
	if err := ValidatePublish(graph); !errors.Is(err, ErrNoSteps) {
		t.Errorf("expected ErrNoSteps, got %v", err)
	}
}
