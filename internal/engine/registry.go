package engine

import (
	"sync"

	"github.com/shaiso/Flowboard/internal/domain"
)

// VariableRegistry — реестр типизированных переменных workflow.
//
// Реестр строится сканированием question-шагов в порядке их следования.
// Позднее объявление с тем же именем перекрывает раннее (тип и options
// берутся из последнего объявления), позиция в списке остаётся за первым.
type VariableRegistry struct {
	byName map[string]domain.Variable
	order  []string
}

// BuildRegistry строит реестр переменных из snapshot workflow.
func BuildRegistry(wf *domain.Workflow) *VariableRegistry {
	reg := &VariableRegistry{
		byName: make(map[string]domain.Variable),
	}
	if wf == nil {
		return reg
	}

	for i := range wf.Steps {
		step := &wf.Steps[i]
		if step.Type != domain.StepTypeQuestion || step.VariableName == "" {
			continue
		}

		v := domain.Variable{
			Name:      step.VariableName,
			Type:      step.AnswerType.VariableType(),
			StepUID:   step.UID,
			StepIndex: step.Index,
		}
		if v.Type == domain.VariableTypeEnum {
			v.Options = append([]string(nil), step.Options...)
		}

		if _, exists := reg.byName[v.Name]; !exists {
			reg.order = append(reg.order, v.Name)
		}
		reg.byName[v.Name] = v
	}

	return reg
}

// Lookup возвращает переменную по имени.
func (r *VariableRegistry) Lookup(name string) (domain.Variable, bool) {
	v, ok := r.byName[name]
	return v, ok
}

// List возвращает переменные в порядке объявления.
func (r *VariableRegistry) List() []domain.Variable {
	out := make([]domain.Variable, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names возвращает имена переменных в порядке объявления.
func (r *VariableRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len возвращает количество переменных.
func (r *VariableRegistry) Len() int {
	return len(r.byName)
}

// registryCache — кэш реестра, привязанный к ревизии графа шагов.
//
// Перестроение происходит только при изменении набора шагов (ревизия
// инкрементируется мутациями StepGraph), а не на каждое обращение.
type registryCache struct {
	mu  sync.Mutex
	rev uint64
	reg *VariableRegistry
}

// get возвращает реестр для ревизии rev, перестраивая его при
// несовпадении ревизий.
func (c *registryCache) get(wf *domain.Workflow, rev uint64) *VariableRegistry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reg == nil || c.rev != rev {
		c.reg = BuildRegistry(wf)
		c.rev = rev
	}
	return c.reg
}

// invalidate сбрасывает кэш.
func (c *registryCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reg = nil
}
