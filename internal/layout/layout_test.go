package layout

import (
	"reflect"
	"testing"

	"github.com/shaiso/Flowboard/internal/domain"
	"github.com/shaiso/Flowboard/internal/engine"
)

// branchedWorkflow: decision на шаге 0 с двумя ветками и else-путём.
func branchedWorkflow() *domain.Workflow {
	wf := &domain.Workflow{
		Mode: domain.ModeLegacy,
		Steps: []domain.Step{
			{Index: 0, Type: domain.StepTypeDecision, Title: "Check",
				Branches: []domain.Branch{
					{Condition: "age >= 18", Target: "Adult"},
					{Condition: "age < 18", Target: "Minor"},
				},
				ElseTarget: "Fallback"},
			{Index: 1, Type: domain.StepTypeAction, Title: "Adult"},
			{Index: 2, Type: domain.StepTypeAction, Title: "Minor"},
			{Index: 3, Type: domain.StepTypeAction, Title: "Fallback"},
		},
	}
	return wf
}

func TestCompute_LeftToRight(t *testing.T) {
	wf := &domain.Workflow{
		Mode: domain.ModeLegacy,
		Steps: []domain.Step{
			{Index: 0, Type: domain.StepTypeAction, Title: "A"},
			{Index: 1, Type: domain.StepTypeAction, Title: "B"},
			{Index: 2, Type: domain.StepTypeAction, Title: "C"},
		},
	}
	edges := engine.NewStepGraph(wf).ResolveEdges()

	l := Compute(wf, edges)

	if len(l.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(l.Positions))
	}

	var prevX float64 = -1
	for i := 0; i < 3; i++ {
		p := l.Positions[wf.Steps[i].Key(wf.Mode)]
		if p.X <= prevX {
			t.Errorf("step %d at x=%v, not to the right of previous", i, p.X)
		}
		prevX = p.X

		// Линейная цепочка остаётся на базовой линии
		if p.Y != baselineY {
			t.Errorf("step %d at y=%v, want baseline %v", i, p.Y, baselineY)
		}
	}
}

// Цель несеквенциального ребра смещается на пол-инкремента вниз.
func TestCompute_BranchTargetOffset(t *testing.T) {
	wf := branchedWorkflow()
	edges := engine.NewStepGraph(wf).ResolveEdges()

	l := Compute(wf, edges)

	for _, title := range []string{"Adult", "Minor", "Fallback"} {
		step := wf.StepByTitle(title)
		p := l.Positions[step.Key(wf.Mode)]
		if p.Y != baselineY+halfIncrement {
			t.Errorf("%s at y=%v, want offset %v", title, p.Y, baselineY+halfIncrement)
		}
	}

	// Сам decision-шаг остаётся на базовой линии
	if p := l.Positions["0"]; p.Y != baselineY {
		t.Errorf("decision step at y=%v, want baseline", p.Y)
	}
}

func TestCompute_ConnectorShapes(t *testing.T) {
	wf := branchedWorkflow()
	edges := engine.NewStepGraph(wf).ResolveEdges()

	l := Compute(wf, edges)

	for _, c := range l.Connectors {
		if c.Kind.IsSequential() {
			if c.Shape != ShapeLine || c.Control != nil {
				t.Errorf("sequential connector must be a straight line: %+v", c)
			}
		} else {
			if c.Shape != ShapeCurve || c.Control == nil {
				t.Errorf("branch connector must be a curve with control point: %+v", c)
			}
		}
	}
}

// Направление изгиба чередуется по чётности индекса ветки.
func TestCompute_CurveDirectionAlternates(t *testing.T) {
	wf := branchedWorkflow()
	edges := engine.NewStepGraph(wf).ResolveEdges()

	l := Compute(wf, edges)

	curves := make([]Connector, 0)
	for _, c := range l.Connectors {
		if c.Shape == ShapeCurve {
			curves = append(curves, c)
		}
	}
	if len(curves) != 3 {
		t.Fatalf("expected 3 curves, got %d", len(curves))
	}

	// Ветка 0 — вверх, ветка 1 — вниз, else (индекс 2) — снова вверх
	mid0 := (curves[0].Start.Y + curves[0].End.Y) / 2
	if curves[0].Control.Y >= mid0 {
		t.Error("even branch should bow up")
	}
	mid1 := (curves[1].Start.Y + curves[1].End.Y) / 2
	if curves[1].Control.Y <= mid1 {
		t.Error("odd branch should bow down")
	}
	mid2 := (curves[2].Start.Y + curves[2].End.Y) / 2
	if curves[2].Control.Y >= mid2 {
		t.Error("third edge should bow up again")
	}
}

// Палитра веток циклична: индекс за пределами палитры переиспользует цвета.
func TestCompute_PaletteCycles(t *testing.T) {
	wf := &domain.Workflow{
		Mode: domain.ModeLegacy,
		Steps: []domain.Step{
			{Index: 0, Type: domain.StepTypeDecision, Title: "Check"},
		},
	}
	// Веток больше, чем цветов в палитре
	n := len(branchPalette) + 2
	for i := 0; i < n; i++ {
		title := "T" + string(rune('A'+i))
		wf.Steps = append(wf.Steps, domain.Step{
			Index: i + 1, Type: domain.StepTypeAction, Title: title,
		})
		wf.Steps[0].Branches = append(wf.Steps[0].Branches, domain.Branch{
			Condition: `x == "1"`, Target: title,
		})
	}

	edges := engine.NewStepGraph(wf).ResolveEdges()
	l := Compute(wf, edges)

	var branchConnectors []Connector
	for _, c := range l.Connectors {
		if c.Kind == domain.EdgeKindBranch {
			branchConnectors = append(branchConnectors, c)
		}
	}
	if len(branchConnectors) != n {
		t.Fatalf("expected %d branch connectors, got %d", n, len(branchConnectors))
	}

	first := branchConnectors[0].Style
	cycled := branchConnectors[len(branchPalette)].Style
	if first.Color != cycled.Color {
		t.Errorf("palette should cycle: %q != %q", first.Color, cycled.Color)
	}
}

func TestCompute_KindStyles(t *testing.T) {
	wf := &domain.Workflow{
		Mode: domain.ModeLegacy,
		Steps: []domain.Step{
			{Index: 0, Type: domain.StepTypeDecision, Title: "Check",
				YesTarget: "Ok", NoTarget: "Fail"},
			{Index: 1, Type: domain.StepTypeAction, Title: "Ok"},
			{Index: 2, Type: domain.StepTypeAction, Title: "Fail"},
		},
	}
	edges := engine.NewStepGraph(wf).ResolveEdges()
	l := Compute(wf, edges)

	styles := make(map[domain.EdgeKind]Style)
	for _, c := range l.Connectors {
		styles[c.Kind] = c.Style
	}

	if styles[domain.EdgeKindLegacyYes] == styles[domain.EdgeKindLegacyNo] {
		t.Error("Yes and No edges must have distinct styles")
	}
}

// Висячие рёбра не рисуются, но и не ломают раскладку.
func TestCompute_DanglingEdgesSkipped(t *testing.T) {
	wf := &domain.Workflow{
		Mode: domain.ModeLegacy,
		Steps: []domain.Step{
			{Index: 0, Type: domain.StepTypeDecision, Title: "Check",
				Branches: []domain.Branch{{Condition: `x == "1"`, Target: "Ghost"}}},
		},
	}
	edges := engine.NewStepGraph(wf).ResolveEdges()

	l := Compute(wf, edges)

	if len(l.Connectors) != 0 {
		t.Errorf("dangling edge should not produce a connector, got %d", len(l.Connectors))
	}
	if len(l.Positions) != 1 {
		t.Errorf("step should still be positioned")
	}
}

func TestCompute_Bounds(t *testing.T) {
	wf := branchedWorkflow()
	edges := engine.NewStepGraph(wf).ResolveEdges()

	l := Compute(wf, edges)

	// 4 узла: правый край последнего = Margin + 3*(NodeWidth+hGap) + NodeWidth
	wantWidth := Margin + 3*(NodeWidth+hGap) + NodeWidth + Margin
	if l.Bounds.Width != wantWidth {
		t.Errorf("bounds width = %v, want %v", l.Bounds.Width, wantWidth)
	}

	wantHeight := baselineY + halfIncrement + NodeHeight + Margin
	if l.Bounds.Height != wantHeight {
		t.Errorf("bounds height = %v, want %v", l.Bounds.Height, wantHeight)
	}
}

// Детерминизм: два вызова на одном входе дают идентичный результат.
func TestCompute_Deterministic(t *testing.T) {
	wf := branchedWorkflow()
	edges := engine.NewStepGraph(wf).ResolveEdges()

	a := Compute(wf, edges)
	b := Compute(wf, edges)

	if !reflect.DeepEqual(a.Positions, b.Positions) {
		t.Error("positions differ between runs")
	}
	if !reflect.DeepEqual(a.Connectors, b.Connectors) {
		t.Error("connectors differ between runs")
	}
	if a.Bounds != b.Bounds {
		t.Error("bounds differ between runs")
	}
}
