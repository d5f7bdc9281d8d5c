package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
)

// ErrIncompleteDecision — decision-шаг без веток и без legacy-пути.
// Допустим в черновике, блокирует публикацию.
var ErrIncompleteDecision = errors.New("decision step has no branches")

// ValidateDraft выполняет терпимую валидацию для чернового сохранения.
//
// Черновик может содержать неполные decision-шаги и висячие ссылки —
// проверяется только базовая целостность: известные типы шагов и
// уникальность идентичностей.
func ValidateDraft(wf *domain.Workflow) error {
	if wf == nil {
		return ErrNoSteps
	}

	seen := make(map[uuid.UUID]bool)
	for i := range wf.Steps {
		step := &wf.Steps[i]

		if !step.Type.IsValid() {
			return NewValidationError(step.Key(wf.Mode), "type",
				fmt.Sprintf("unknown step type: %s", step.Type), ErrUnknownStepType)
		}

		if wf.Mode == domain.ModeGraph {
			if step.UID == uuid.Nil {
				return NewValidationError(step.Key(wf.Mode), "uid",
					"graph-mode step has no UID", ErrDuplicateStepUID)
			}
			if seen[step.UID] {
				return NewValidationError(step.Key(wf.Mode), "uid",
					fmt.Sprintf("duplicate step UID: %s", step.UID), ErrDuplicateStepUID)
			}
			seen[step.UID] = true
		}
	}

	return nil
}

// ValidatePublish выполняет полную структурную валидацию перед
// публикацией.
//
// Дополнительно к черновым проверкам:
//   - workflow не пуст
//   - resolve-шаги не имеют исходящих рёбер
//   - все цели веток/transitions разрешаются в существующие шаги
//   - decision-шаги полны (есть ветки или legacy-путь)
//   - условия строго проверяются относительно реестра переменных
func ValidatePublish(graph *StepGraph) error {
	wf := graph.Workflow()

	if err := ValidateDraft(wf); err != nil {
		return err
	}
	if len(wf.Steps) == 0 {
		return ErrNoSteps
	}

	reg := graph.Registry()
	edges := graph.ResolveEdges()

	// Исходящие рёбра и висячие ссылки
	for _, e := range edges {
		fromStep := &wf.Steps[e.From.Index]
		if fromStep.Type.IsTerminal() {
			return NewValidationError(fromStep.Key(wf.Mode), "edges",
				"resolve step must not have outgoing edges", ErrTerminalStepHasEdges)
		}

		if e.Kind.IsSequential() {
			continue
		}

		if e.Dangling {
			return NewValidationError(fromStep.Key(wf.Mode), "target",
				fmt.Sprintf("edge target %q does not exist", danglingTarget(e)), ErrDanglingReference)
		}

		if e.Condition != "" {
			cond, err := ParseCondition(e.Condition)
			if err != nil {
				return err
			}
			if err := ValidateCondition(reg, cond, true); err != nil {
				return err
			}
		}
	}

	// Полнота decision-шагов
	for i := range wf.Steps {
		step := &wf.Steps[i]
		if step.Type != domain.StepTypeDecision {
			continue
		}
		if !hasDecisionEdges(step) {
			return NewValidationError(step.Key(wf.Mode), "branches",
				"decision step has no branches and no legacy path", ErrIncompleteDecision)
		}
	}

	return nil
}

// hasDecisionEdges проверяет, что у decision-шага есть хотя бы одна
// настроенная ветка, legacy-путь или transition.
func hasDecisionEdges(step *domain.Step) bool {
	for _, br := range step.Branches {
		if br.Target != "" {
			return true
		}
	}
	if step.ElseTarget != "" || step.YesTarget != "" || step.NoTarget != "" {
		return true
	}
	return len(step.Transitions) > 0
}

// danglingTarget возвращает сохранённое значение висячей цели для
// сообщения об ошибке.
func danglingTarget(e domain.Edge) string {
	if e.To.Title != "" {
		return e.To.Title
	}
	return e.To.UID.String()
}
