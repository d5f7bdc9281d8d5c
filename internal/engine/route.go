package engine

import "github.com/shaiso/Flowboard/internal/domain"

// RouteDecision выбирает исходящую ветку decision-шага по привязкам
// переменных.
//
// Выполняется не более одного ребра: первая ветка, чьё условие истинно,
// иначе else-путь, если задан. Нераспарсившееся условие трактуется как
// "никогда не срабатывает". Если ни одна ветка не сработала и else-пути
// нет, возвращается ("", false) — это ошибка выполнения workflow,
// а не дефект графа.
func RouteDecision(step *domain.Step, bindings map[string]string) (string, bool) {
	for _, br := range step.Branches {
		if br.Condition == "" {
			continue
		}
		cond, err := ParseCondition(br.Condition)
		if err != nil {
			continue
		}
		if cond.Evaluate(bindings) {
			return br.Target, true
		}
	}

	if step.ElseTarget != "" {
		return step.ElseTarget, true
	}
	return "", false
}
