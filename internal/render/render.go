package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
)

// FragmentRequest — запрос на рендеринг фрагмента шага.
type FragmentRequest struct {
	// WorkflowID — workflow, в который вставляется шаг.
	WorkflowID uuid.UUID

	// Type — тип шага.
	Type domain.StepType

	// Index — позиция вставки.
	Index int

	// Step — данные шага (опционально: пустой шаг для новой вставки).
	Step *domain.Step

	// Variables — имена переменных, доступные в выпадающих списках
	// условий decision-шага.
	Variables []string
}

// Renderer отдаёт HTML-фрагменты редактора шагов.
//
// Фрагмент — это серверная заготовка формы одного шага: клиент
// вставляет её в DOM как есть. Все пользовательские значения
// экранируются html/template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer создаёт Renderer со встроенными шаблонами.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("step").Parse(stepTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse step templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// StepFragment рендерит фрагмент формы шага.
// Неизвестный тип шага — ошибка.
func (r *Renderer) StepFragment(req FragmentRequest) (string, error) {
	if !req.Type.IsValid() {
		return "", fmt.Errorf("render fragment: unknown step type %q", req.Type)
	}

	step := req.Step
	if step == nil {
		step = &domain.Step{Type: req.Type, Index: req.Index}
	}

	data := struct {
		WorkflowID uuid.UUID
		Type       domain.StepType
		Index      int
		Step       *domain.Step
		Variables  []string
	}{
		WorkflowID: req.WorkflowID,
		Type:       req.Type,
		Index:      req.Index,
		Step:       step,
		Variables:  req.Variables,
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, templateName(req.Type), data); err != nil {
		return "", fmt.Errorf("render fragment: %w", err)
	}
	return buf.String(), nil
}

// templateName возвращает имя шаблона для типа шага.
// Типы без собственной формы используют общую заготовку.
func templateName(t domain.StepType) string {
	switch t {
	case domain.StepTypeQuestion:
		return "question"
	case domain.StepTypeDecision:
		return "decision"
	default:
		return "generic"
	}
}

// stepTemplates — встроенные шаблоны фрагментов.
//
// Разметка минимальна: структура полей, не оформление. Классы
// совпадают с типом шага, чтобы клиент мог стилизовать фрагменты
// без дополнительных атрибутов.
const stepTemplates = `
{{define "header"}}<div class="step step-{{.Type}}" data-workflow="{{.WorkflowID}}" data-index="{{.Index}}">
  <input class="step-title" name="title" value="{{.Step.Title}}" placeholder="Step title">
{{end}}

{{define "footer"}}</div>
{{end}}

{{define "generic"}}{{template "header" .}}  <textarea class="step-description" name="description" placeholder="Description">{{.Step.Description}}</textarea>
{{template "footer" .}}{{end}}

{{define "question"}}{{template "header" .}}  <input class="step-variable" name="variable_name" value="{{.Step.VariableName}}" placeholder="Variable name">
  <select class="step-answer-type" name="answer_type">
    <option value="text"{{if eq .Step.AnswerType "text"}} selected{{end}}>Text</option>
    <option value="number"{{if eq .Step.AnswerType "number"}} selected{{end}}>Number</option>
    <option value="choice"{{if eq .Step.AnswerType "choice"}} selected{{end}}>Choice</option>
  </select>
  <ul class="step-options">
    {{range .Step.Options}}<li><input name="options" value="{{.}}"></li>
    {{end}}</ul>
{{template "footer" .}}{{end}}

{{define "decision"}}{{template "header" .}}  <ul class="step-branches">
    {{range .Step.Branches}}<li>
      <input class="branch-condition" name="condition" value="{{.Condition}}" placeholder="variable == &#34;value&#34;">
      <input class="branch-target" name="target" value="{{.Target}}" placeholder="Target step">
    </li>
    {{end}}</ul>
  <datalist class="condition-variables">
    {{range .Variables}}<option value="{{.}}"></option>
    {{end}}</datalist>
  <input class="step-else" name="else_target" value="{{.Step.ElseTarget}}" placeholder="Else target">
{{template "footer" .}}{{end}}
`
