package engine

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
)

// linearWorkflow builds a legacy-mode workflow of plain action steps.
func linearWorkflow(titles ...string) *domain.Workflow {
	wf := &domain.Workflow{Mode: domain.ModeLegacy}
	for i, title := range titles {
		wf.Steps = append(wf.Steps, domain.Step{
			Index: i,
			Type:  domain.StepTypeAction,
			Title: title,
		})
	}
	return wf
}

func TestAddStep(t *testing.T) {
	graph := NewStepGraph(linearWorkflow("First", "Second"))

	step, err := graph.AddStep(domain.StepTypeMessage, 1, map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wf := graph.Workflow()
	if len(wf.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(wf.Steps))
	}
	if wf.Steps[1].Type != domain.StepTypeMessage {
		t.Errorf("step at 1 = %q, want message", wf.Steps[1].Type)
	}
	if step.Payload["text"] != "hi" {
		t.Error("payload should be kept")
	}

	// Индексы пересчитаны
	for i := range wf.Steps {
		if wf.Steps[i].Index != i {
			t.Errorf("step %d has index %d", i, wf.Steps[i].Index)
		}
	}
}

// Decision-шаг создаётся с одной пустой веткой по умолчанию.
func TestAddStep_DecisionDefaultBranch(t *testing.T) {
	graph := NewStepGraph(linearWorkflow("First"))

	step, err := graph.AddStep(domain.StepTypeDecision, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(step.Branches) != 1 {
		t.Fatalf("expected 1 default branch, got %d", len(step.Branches))
	}
	if step.Branches[0].Target != "" || step.Branches[0].Condition != "" {
		t.Error("default branch should be empty")
	}
}

// В graph-режиме новый шаг получает свежий UUID.
func TestAddStep_GraphModeAssignsUID(t *testing.T) {
	wf := &domain.Workflow{Mode: domain.ModeGraph}
	graph := NewStepGraph(wf)

	a, err := graph.AddStep(domain.StepTypeAction, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := graph.AddStep(domain.StepTypeAction, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.UID == uuid.Nil || b.UID == uuid.Nil {
		t.Fatal("graph-mode steps must get a UID")
	}
	if a.UID == b.UID {
		t.Error("UIDs must be unique")
	}
}

func TestAddStep_Errors(t *testing.T) {
	graph := NewStepGraph(linearWorkflow("First"))

	if _, err := graph.AddStep(domain.StepTypeAction, 5, nil); !errors.Is(err, ErrStepOutOfRange) {
		t.Errorf("expected ErrStepOutOfRange, got %v", err)
	}
	if _, err := graph.AddStep(domain.StepType("bogus"), 0, nil); !errors.Is(err, ErrUnknownStepType) {
		t.Errorf("expected ErrUnknownStepType, got %v", err)
	}
}

// Удаление целевого шага сохраняет висячую ссылку: значение цели
// остаётся в ветке и разрешается в висячее ребро, а не очищается.
func TestRemoveStep_PreservesDanglingReference(t *testing.T) {
	wf := linearWorkflow("Start", "Adult", "Minor")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = []domain.Branch{
		{Condition: "age >= 18", Target: "Adult"},
		{Condition: "age < 18", Target: "Minor"},
	}

	graph := NewStepGraph(wf)
	if err := graph.RemoveStep("1"); err != nil { // удаляем "Adult"
		t.Fatalf("unexpected error: %v", err)
	}

	// Сохранённое значение цели не тронуто
	if got := wf.Steps[0].Branches[0].Target; got != "Adult" {
		t.Fatalf("branch target = %q, want preserved %q", got, "Adult")
	}

	// Ребро разрешается как висячее
	edges := graph.ResolveEdges()
	var dangling *domain.Edge
	for i := range edges {
		if edges[i].Dangling {
			dangling = &edges[i]
			break
		}
	}
	if dangling == nil {
		t.Fatal("expected a dangling edge")
	}
	if dangling.To.Title != "Adult" {
		t.Errorf("dangling target = %q, want %q", dangling.To.Title, "Adult")
	}
	if dangling.To.Resolved() {
		t.Error("dangling edge must not resolve to a step")
	}
}

func TestReorder(t *testing.T) {
	graph := NewStepGraph(linearWorkflow("A", "B", "C"))

	if err := graph.Reorder([]int{2, 0, 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wf := graph.Workflow()
	wantTitles := []string{"C", "A", "B"}
	for i, want := range wantTitles {
		if wf.Steps[i].Title != want {
			t.Errorf("step %d = %q, want %q", i, wf.Steps[i].Title, want)
		}
		if wf.Steps[i].Index != i {
			t.Errorf("step %d index = %d", i, wf.Steps[i].Index)
		}
	}
}

func TestReorder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		order []int
	}{
		{name: "wrong length", order: []int{0}},
		{name: "duplicate", order: []int{0, 0, 1}},
		{name: "out of range", order: []int{0, 1, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := NewStepGraph(linearWorkflow("A", "B", "C"))
			if err := graph.Reorder(tt.order); !errors.Is(err, ErrBadReorder) {
				t.Errorf("expected ErrBadReorder, got %v", err)
			}
		})
	}
}

// Ссылки по заголовку переживают reorder без пересчёта.
func TestReorder_TitleReferencesSurvive(t *testing.T) {
	wf := linearWorkflow("Check", "Adult", "Minor")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = []domain.Branch{{Condition: "age >= 18", Target: "Adult"}}

	graph := NewStepGraph(wf)
	if err := graph.Reorder([]int{1, 2, 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edges := graph.ResolveEdges()
	found := false
	for _, e := range edges {
		if e.Kind == domain.EdgeKindBranch {
			found = true
			if e.Dangling {
				t.Error("branch should still resolve after reorder")
			}
			if e.To.Title != "Adult" {
				t.Errorf("branch target = %q, want Adult", e.To.Title)
			}
		}
	}
	if !found {
		t.Fatal("expected a branch edge")
	}
}

func TestResolveEdges_Sequential(t *testing.T) {
	graph := NewStepGraph(linearWorkflow("A", "B", "C"))

	edges := graph.ResolveEdges()
	if len(edges) != 2 {
		t.Fatalf("expected 2 sequential edges, got %d", len(edges))
	}
	for i, e := range edges {
		if e.Kind != domain.EdgeKindSequential {
			t.Errorf("edge %d kind = %q, want sequential", i, e.Kind)
		}
		if e.From.Index != i || e.To.Index != i+1 {
			t.Errorf("edge %d = %d→%d, want %d→%d", i, e.From.Index, e.To.Index, i, i+1)
		}
	}
}

// Терминальный шаг в середине списка не получает неявного
// продолжения в следующий шаг.
func TestResolveEdges_NoSequentialOutOfResolve(t *testing.T) {
	wf := linearWorkflow("Done", "After")
	wf.Steps[0].Type = domain.StepTypeResolve

	edges := NewStepGraph(wf).ResolveEdges()
	for _, e := range edges {
		if e.From.Index == 0 {
			t.Errorf("unexpected edge out of resolve step: kind=%q to=%q", e.Kind, e.To.Title)
		}
	}
}

func TestResolveEdges_Branches(t *testing.T) {
	wf := linearWorkflow("Check", "Adult", "Minor", "Fallback")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = []domain.Branch{
		{Condition: "age >= 18", Target: "Adult"},
		{Condition: "age < 18", Target: "Minor"},
	}
	wf.Steps[0].ElseTarget = "Fallback"

	graph := NewStepGraph(wf)
	edges := graph.ResolveEdges()

	var branches, elses int
	for _, e := range edges {
		switch e.Kind {
		case domain.EdgeKindBranch:
			branches++
		case domain.EdgeKindElse:
			elses++
		}
	}
	if branches != 2 {
		t.Errorf("branch edges = %d, want 2", branches)
	}
	if elses != 1 {
		t.Errorf("else edges = %d, want 1", elses)
	}

	// BranchIndex нумерует исходящие рёбра одного шага подряд
	for _, e := range edges {
		if e.Kind == domain.EdgeKindElse && e.BranchIndex != 2 {
			t.Errorf("else branch index = %d, want 2", e.BranchIndex)
		}
	}
}

// Пустая цель ветки — "цель не выбрана": ребро не строится.
func TestResolveEdges_EmptyBranchTargetSkipped(t *testing.T) {
	wf := linearWorkflow("Check", "Next")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = []domain.Branch{{}}

	graph := NewStepGraph(wf)
	for _, e := range graph.ResolveEdges() {
		if e.Kind == domain.EdgeKindBranch {
			t.Errorf("empty branch should not produce an edge, got %+v", e)
		}
		// Явные (пусть и пустые) ветки подавляют неявное ребро
		if e.Kind == domain.EdgeKindSequential && e.From.Index == 0 {
			t.Errorf("decision with branch list should not get a sequential edge")
		}
	}
}

func TestResolveEdges_LegacyYesNo(t *testing.T) {
	wf := linearWorkflow("Check", "Approved", "Rejected")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = nil
	wf.Steps[0].YesTarget = "Approved"
	wf.Steps[0].NoTarget = "Rejected"

	graph := NewStepGraph(wf)
	edges := graph.ResolveEdges()

	var yes, no *domain.Edge
	for i := range edges {
		switch edges[i].Kind {
		case domain.EdgeKindLegacyYes:
			yes = &edges[i]
		case domain.EdgeKindLegacyNo:
			no = &edges[i]
		}
	}

	if yes == nil || no == nil {
		t.Fatal("expected both Yes and No edges")
	}
	if yes.Label != "Yes" || no.Label != "No" {
		t.Errorf("labels = %q/%q, want Yes/No", yes.Label, no.Label)
	}
	if yes.To.Title != "Approved" || no.To.Title != "Rejected" {
		t.Errorf("targets = %q/%q", yes.To.Title, no.To.Title)
	}
}

func TestResolveEdges_Transitions(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	wf := &domain.Workflow{
		Mode: domain.ModeGraph,
		Steps: []domain.Step{
			{UID: a, Index: 0, Type: domain.StepTypeAction, Title: "A",
				Transitions: []domain.Transition{{Target: b, Label: "next"}}},
			{UID: b, Index: 1, Type: domain.StepTypeAction, Title: "B"},
		},
	}

	graph := NewStepGraph(wf)
	edges := graph.ResolveEdges()

	var tr *domain.Edge
	for i := range edges {
		if edges[i].Kind == domain.EdgeKindTransition {
			tr = &edges[i]
		}
	}
	if tr == nil {
		t.Fatal("expected a transition edge")
	}
	if tr.To.UID != b {
		t.Errorf("transition target = %s, want %s", tr.To.UID, b)
	}
	if tr.Label != "next" {
		t.Errorf("label = %q, want next", tr.Label)
	}
}

// Transition на удалённый шаг сохраняется как висячее ребро.
func TestResolveEdges_DanglingTransition(t *testing.T) {
	a, ghost := uuid.New(), uuid.New()
	wf := &domain.Workflow{
		Mode: domain.ModeGraph,
		Steps: []domain.Step{
			{UID: a, Index: 0, Type: domain.StepTypeAction,
				Transitions: []domain.Transition{{Target: ghost}}},
		},
	}

	graph := NewStepGraph(wf)
	edges := graph.ResolveEdges()

	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if !edges[0].Dangling {
		t.Error("edge should be dangling")
	}
	if edges[0].To.UID != ghost {
		t.Error("stored target value must be preserved")
	}
}

// Tie-break правила 4: если в шаг i+1 уже входит явная ветка из другого
// шага, неявное последовательное ребро i → i+1 не добавляется.
func TestResolveEdges_SequentialTieBreak(t *testing.T) {
	wf := linearWorkflow("Check", "Middle", "Join")
	wf.Steps[0].Type = domain.StepTypeDecision
	wf.Steps[0].Branches = []domain.Branch{
		{Condition: "age >= 18", Target: "Join"},
	}

	graph := NewStepGraph(wf)
	edges := graph.ResolveEdges()

	for _, e := range edges {
		if e.Kind == domain.EdgeKindSequential && e.From.Index == 1 && e.To.Index == 2 {
			t.Error("sequential edge into Join would overlap the explicit branch edge")
		}
	}

	// Само по себе ребро из ветки присутствует
	found := false
	for _, e := range edges {
		if e.Kind == domain.EdgeKindBranch && e.To.Title == "Join" {
			found = true
		}
	}
	if !found {
		t.Error("branch edge into Join should exist")
	}
}

// Шаг с явным входящим ребром из самого шага i всё же получает
// последовательное ребро — избыточность возникает только от чужих рёбер.
func TestResolveEdges_SequentialKeptWhenTargeterIsSame(t *testing.T) {
	graph := NewStepGraph(linearWorkflow("A", "B"))

	edges := graph.ResolveEdges()
	if len(edges) != 1 || edges[0].Kind != domain.EdgeKindSequential {
		t.Fatalf("expected single sequential edge, got %+v", edges)
	}
}

func TestRouteDecision(t *testing.T) {
	step := &domain.Step{
		Type: domain.StepTypeDecision,
		Branches: []domain.Branch{
			{Condition: "age >= 18", Target: "Adult"},
			{Condition: "age < 18", Target: "Minor"},
		},
	}

	tests := []struct {
		name    string
		age     string
		want    string
		matched bool
	}{
		{name: "adult", age: "20", want: "Adult", matched: true},
		{name: "minor", age: "10", want: "Minor", matched: true},
		{name: "non-numeric falls through", age: "", want: "", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RouteDecision(step, map[string]string{"age": tt.age})
			if ok != tt.matched || got != tt.want {
				t.Errorf("RouteDecision(age=%q) = (%q, %v), want (%q, %v)",
					tt.age, got, ok, tt.want, tt.matched)
			}
		})
	}
}

func TestRouteDecision_ElsePath(t *testing.T) {
	step := &domain.Step{
		Type:       domain.StepTypeDecision,
		Branches:   []domain.Branch{{Condition: "age >= 18", Target: "Adult"}},
		ElseTarget: "Fallback",
	}

	got, ok := RouteDecision(step, map[string]string{"age": "10"})
	if !ok || got != "Fallback" {
		t.Errorf("expected else path Fallback, got (%q, %v)", got, ok)
	}
}
