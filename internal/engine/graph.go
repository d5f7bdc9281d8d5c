package engine

import (
	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
)

// StepGraph — рабочая модель графа шагов поверх snapshot workflow.
//
// StepGraph владеет упорядоченным списком шагов, выводит из него
// направленное множество рёбер и поддерживает реестр переменных в
// актуальном состоянии: каждая мутация набора шагов инкрементирует
// ревизию, по которой инвалидируется кэш реестра.
type StepGraph struct {
	wf  *domain.Workflow
	rev uint64

	cache registryCache
}

// NewStepGraph создаёт StepGraph поверх workflow.
// Индексы шагов нормализуются сразу.
func NewStepGraph(wf *domain.Workflow) *StepGraph {
	wf.Reindex()
	return &StepGraph{wf: wf}
}

// Workflow возвращает текущий snapshot.
func (g *StepGraph) Workflow() *domain.Workflow {
	return g.wf
}

// Revision возвращает текущую ревизию набора шагов.
func (g *StepGraph) Revision() uint64 {
	return g.rev
}

// Touch помечает изменение полей шага, влияющих на реестр переменных
// (variable_name, answer_type, options). Обязателен после таких правок:
// реестр гарантированно свежий перед построением/вычислением условий
// и перед сохранением.
func (g *StepGraph) Touch() {
	g.rev++
}

// Registry возвращает актуальный реестр переменных.
// Перестраивается только при изменении ревизии.
func (g *StepGraph) Registry() *VariableRegistry {
	return g.cache.get(g.wf, g.rev)
}

// AddStep вставляет новый шаг на позицию atIndex.
//
// Идентичность назначается свежая: в graph-режиме — новый UUID.
// Decision-шаг получает одну пустую ветку по умолчанию.
// atIndex за пределами списка — ErrStepOutOfRange.
func (g *StepGraph) AddStep(t domain.StepType, atIndex int, payload map[string]any) (*domain.Step, error) {
	if !t.IsValid() {
		return nil, NewValidationError("", "type", "unknown step type: "+string(t), ErrUnknownStepType)
	}
	if atIndex < 0 || atIndex > len(g.wf.Steps) {
		return nil, ErrStepOutOfRange
	}

	step := domain.Step{
		Type:    t,
		Payload: payload,
	}
	if g.wf.Mode == domain.ModeGraph {
		step.UID = uuid.New()
	}
	if t == domain.StepTypeDecision {
		step.Branches = []domain.Branch{{}}
	}

	g.wf.Steps = append(g.wf.Steps, domain.Step{})
	copy(g.wf.Steps[atIndex+1:], g.wf.Steps[atIndex:])
	g.wf.Steps[atIndex] = step
	g.wf.Reindex()
	g.rev++

	return &g.wf.Steps[atIndex], nil
}

// RemoveStep удаляет шаг по ключу идентичности.
//
// Ссылки на удалённый шаг в ветках и transitions других шагов
// НЕ очищаются: висячее значение сохраняется и отображается как
// выбранная, но невалидная цель.
func (g *StepGraph) RemoveStep(key string) error {
	idx := -1
	for i := range g.wf.Steps {
		if g.wf.Steps[i].Key(g.wf.Mode) == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrStepOutOfRange
	}

	g.wf.Steps = append(g.wf.Steps[:idx], g.wf.Steps[idx+1:]...)
	g.wf.Reindex()
	g.rev++

	return nil
}

// Reorder переставляет шаги в порядке newOrder (старые индексы).
//
// Ссылки по заголовку остаются валидными сами по себе; индексные поля
// пересчитываются. newOrder обязан быть перестановкой 0..n-1.
func (g *StepGraph) Reorder(newOrder []int) error {
	n := len(g.wf.Steps)
	if len(newOrder) != n {
		return ErrBadReorder
	}

	seen := make([]bool, n)
	for _, old := range newOrder {
		if old < 0 || old >= n || seen[old] {
			return ErrBadReorder
		}
		seen[old] = true
	}

	steps := make([]domain.Step, n)
	for newIdx, oldIdx := range newOrder {
		steps[newIdx] = g.wf.Steps[oldIdx]
	}
	g.wf.Steps = steps
	g.wf.Reindex()
	g.rev++

	return nil
}

// ResolveEdges выводит направленное множество рёбер из текущего
// набора шагов.
//
// Правила:
//  1. decision-шаг со списком веток даёт по ребру на каждую ветку
//     с непустой целью, плюс else-ребро, если задан else-путь;
//  2. decision-шаг на устаревших true/false-полях даёт два
//     подписанных ребра "Yes"/"No";
//  3. шаг graph-режима даёт по ребру на каждый transition;
//  4. последовательное ребро i → i+1 добавляется, если у шага i нет
//     явных исходящих рёбер И шаг i+1 ещё не является целью явного
//     ребра из другого шага (чтобы неявное ребро не дублировало
//     явную ветку, сходящуюся в тот же узел).
//
// Цель, не разрешившаяся в существующий шаг, даёт висячее ребро:
// сохранённое значение остаётся в To, Dangling == true.
func (g *StepGraph) ResolveEdges() []domain.Edge {
	wf := g.wf
	edges := make([]domain.Edge, 0, len(wf.Steps))

	for i := range wf.Steps {
		step := &wf.Steps[i]
		from := g.refTo(step)
		branchIdx := 0

		// Рёбра graph-режима
		for _, tr := range step.Transitions {
			if tr.Target == uuid.Nil {
				continue
			}
			label := tr.Label
			if label == "" {
				label = tr.Condition
			}
			edges = append(edges, g.edgeToUID(from, tr.Target, domain.EdgeKindTransition, label, tr.Condition, branchIdx))
			branchIdx++
		}

		if step.Type != domain.StepTypeDecision {
			continue
		}

		switch {
		case len(step.Branches) > 0 || step.ElseTarget != "":
			for _, br := range step.Branches {
				if br.Target == "" {
					// Явно пустая цель — ветка ещё не настроена,
					// ребро не рисуется.
					continue
				}
				edges = append(edges, g.edgeToTitle(from, br.Target, domain.EdgeKindBranch, br.Condition, br.Condition, branchIdx))
				branchIdx++
			}
			if step.ElseTarget != "" {
				edges = append(edges, g.edgeToTitle(from, step.ElseTarget, domain.EdgeKindElse, "else", "", branchIdx))
				branchIdx++
			}

		case step.YesTarget != "" || step.NoTarget != "":
			if step.YesTarget != "" {
				edges = append(edges, g.edgeToTitle(from, step.YesTarget, domain.EdgeKindLegacyYes, "Yes", "", branchIdx))
				branchIdx++
			}
			if step.NoTarget != "" {
				edges = append(edges, g.edgeToTitle(from, step.NoTarget, domain.EdgeKindLegacyNo, "No", "", branchIdx))
				branchIdx++
			}
		}
	}

	return g.appendSequentialEdges(edges)
}

// appendSequentialEdges добавляет неявные рёбра i → i+1 по правилу 4.
func (g *StepGraph) appendSequentialEdges(edges []domain.Edge) []domain.Edge {
	wf := g.wf

	// Для каждого шага запоминаем, откуда в него уже входят явные рёбра.
	incoming := make(map[int][]int)
	for _, e := range edges {
		if e.To.Resolved() {
			incoming[e.To.Index] = append(incoming[e.To.Index], e.From.Index)
		}
	}

	out := edges
	for i := 0; i+1 < len(wf.Steps); i++ {
		step := &wf.Steps[i]
		if step.HasExplicitEdges() {
			continue
		}

		// Терминальный шаг завершает поток: неявного продолжения
		// в следующий шаг у него нет.
		if step.Type.IsTerminal() {
			continue
		}

		// Если в i+1 уже входит явное ребро из другого шага,
		// неявное ребро было бы избыточным поверх явной ветки.
		redundant := false
		for _, from := range incoming[i+1] {
			if from != i {
				redundant = true
				break
			}
		}
		if redundant {
			continue
		}

		next := &wf.Steps[i+1]
		out = append(out, domain.Edge{
			From: g.refTo(step),
			To:   g.refTo(next),
			Kind: domain.EdgeKindSequential,
		})
	}

	return out
}

// refTo строит разрешённую ссылку на существующий шаг.
func (g *StepGraph) refTo(step *domain.Step) domain.StepRef {
	return domain.StepRef{
		UID:   step.UID,
		Index: step.Index,
		Title: step.Title,
	}
}

// edgeToTitle строит ребро с целью, адресованной заголовком.
func (g *StepGraph) edgeToTitle(from domain.StepRef, target string, kind domain.EdgeKind, label, condition string, branchIdx int) domain.Edge {
	e := domain.Edge{
		From:        from,
		Kind:        kind,
		Label:       label,
		Condition:   condition,
		BranchIndex: branchIdx,
	}

	if t := g.wf.StepByTitle(target); t != nil {
		e.To = g.refTo(t)
	} else {
		// Висячая ссылка: сохранённое значение остаётся в To.Title.
		e.To = domain.StepRef{Index: -1, Title: target}
		e.Dangling = true
	}
	return e
}

// edgeToUID строит ребро с целью, адресованной UUID.
func (g *StepGraph) edgeToUID(from domain.StepRef, target uuid.UUID, kind domain.EdgeKind, label, condition string, branchIdx int) domain.Edge {
	e := domain.Edge{
		From:        from,
		Kind:        kind,
		Label:       label,
		Condition:   condition,
		BranchIndex: branchIdx,
	}

	if t := g.wf.StepByUID(target); t != nil {
		e.To = g.refTo(t)
	} else {
		e.To = domain.StepRef{UID: target, Index: -1}
		e.Dangling = true
	}
	return e
}
