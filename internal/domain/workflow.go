package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Workflow — определение рабочего процесса, редактируемое пользователями.
//
// Workflow — это документ, который несколько клиентов редактируют
// одновременно. Консистентность обеспечивается оптимистической блокировкой:
// каждое принятое сохранение увеличивает Version ровно на 1, и номер версии
// назначает исключительно слой персистентности, никогда клиент.
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// Title — название workflow.
	Title string `json:"title"`

	// Description — описание назначения workflow.
	Description string `json:"description,omitempty"`

	// Mode — режим адресации шагов: legacy (по индексу) или graph (по UUID).
	Mode WorkflowMode `json:"mode"`

	// Status — статус жизненного цикла: DRAFT или PUBLISHED.
	Status WorkflowStatus `json:"status"`

	// Version — монотонно растущий номер версии.
	// Увеличивается на 1 при каждом принятом сохранении.
	Version int `json:"version"`

	// Steps — упорядоченный список шагов.
	Steps []Step `json:"steps"`

	// UpdatedBy — кто сохранил последнюю версию.
	UpdatedBy string `json:"updated_by,omitempty"`

	// CreatedAt — время создания workflow.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего принятого сохранения.
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowMode — режим адресации шагов и рёбер.
type WorkflowMode string

const (
	// ModeLegacy — шаги адресуются порядковым индексом,
	// ветки decision-шагов — заголовком целевого шага.
	ModeLegacy WorkflowMode = "legacy"

	// ModeGraph — шаги адресуются UUID,
	// рёбра задаются списком Transitions.
	ModeGraph WorkflowMode = "graph"
)

// StepType — тип шага workflow.
type StepType string

// Допустимые типы шагов.
const (
	StepTypeQuestion   StepType = "question"
	StepTypeDecision   StepType = "decision"
	StepTypeAction     StepType = "action"
	StepTypeCheckpoint StepType = "checkpoint"
	StepTypeSubFlow    StepType = "sub_flow"
	StepTypeMessage    StepType = "message"
	StepTypeEscalate   StepType = "escalate"
	StepTypeResolve    StepType = "resolve"
)

// IsValid проверяет, что тип шага известен.
func (t StepType) IsValid() bool {
	switch t {
	case StepTypeQuestion, StepTypeDecision, StepTypeAction, StepTypeCheckpoint,
		StepTypeSubFlow, StepTypeMessage, StepTypeEscalate, StepTypeResolve:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для шагов, у которых не должно быть
// исходящих рёбер. Проверяется только при публикации, не при черновом
// сохранении.
func (t StepType) IsTerminal() bool {
	return t == StepTypeResolve
}

// Step — один типизированный узел workflow.
//
// Идентичность шага зависит от режима workflow: в legacy-режиме шаг
// адресуется индексом Index, в graph-режиме — UID. Key() возвращает
// стабильный ключ для текущего режима.
type Step struct {
	// UID — идентификатор шага в graph-режиме.
	// В legacy-режиме может быть нулевым.
	UID uuid.UUID `json:"uid,omitempty"`

	// Index — позиция шага в списке. Пересчитывается при reorder.
	Index int `json:"index"`

	// Type — тип шага.
	Type StepType `json:"type"`

	// Title — заголовок шага. В legacy-режиме ветки адресуют цель
	// по заголовку, поэтому переименование шага оставляет висячие ссылки.
	Title string `json:"title"`

	// Description — описание шага.
	Description string `json:"description,omitempty"`

	// --- Поля question-шагов ---

	// VariableName — имя переменной, которую объявляет question-шаг.
	// Пустое значение означает, что шаг не объявляет переменную.
	VariableName string `json:"variable_name,omitempty"`

	// AnswerType — тип ответа question-шага (задаёт тип переменной).
	AnswerType AnswerType `json:"answer_type,omitempty"`

	// Options — варианты ответа для enum-переменных.
	Options []string `json:"options,omitempty"`

	// --- Рёбра decision-шагов (legacy-режим) ---

	// Branches — условные ветки, адресованные заголовком целевого шага.
	Branches []Branch `json:"branches,omitempty"`

	// ElseTarget — заголовок шага для else-ветки (если задан).
	ElseTarget string `json:"else_target,omitempty"`

	// YesTarget, NoTarget — устаревшие true/false-поля decision-шага.
	// Используются, только если Branches пуст.
	YesTarget string `json:"yes_target,omitempty"`
	NoTarget  string `json:"no_target,omitempty"`

	// --- Рёбра graph-режима ---

	// Transitions — рёбра, адресованные UUID целевого шага.
	Transitions []Transition `json:"transitions,omitempty"`

	// Payload — типоспецифичные данные шага (текст сообщения,
	// ссылка на вложенный workflow и т.д.).
	Payload map[string]any `json:"payload,omitempty"`
}

// Key возвращает стабильный ключ идентичности шага для режима mode.
// Для graph-режима — строковый UUID, для legacy — десятичный индекс.
func (s *Step) Key(mode WorkflowMode) string {
	if mode == ModeGraph && s.UID != uuid.Nil {
		return s.UID.String()
	}
	return strconv.Itoa(s.Index)
}

// HasExplicitEdges возвращает true, если у шага заданы явные исходящие
// рёбра (ветки, legacy-пути или transitions).
func (s *Step) HasExplicitEdges() bool {
	if len(s.Transitions) > 0 {
		return true
	}
	if s.Type != StepTypeDecision {
		return false
	}
	return len(s.Branches) > 0 || s.ElseTarget != "" || s.YesTarget != "" || s.NoTarget != ""
}

// Branch — условная ветка decision-шага (legacy-режим).
//
// Target хранит заголовок целевого шага. Если целевой шаг удалён или
// переименован, значение сохраняется как есть — висячая ссылка никогда
// не очищается автоматически.
type Branch struct {
	// Condition — текст условия на языке ConditionExpression.
	Condition string `json:"condition"`

	// Target — заголовок целевого шага. Пустое значение допустимо
	// и означает "цель не выбрана".
	Target string `json:"target"`
}

// Transition — ребро graph-режима.
type Transition struct {
	// Target — UUID целевого шага. Может ссылаться на удалённый шаг —
	// значение при этом сохраняется (висячая ссылка).
	Target uuid.UUID `json:"target"`

	// Condition — текст условия. Пустое условие означает безусловный переход.
	Condition string `json:"condition,omitempty"`

	// Label — отображаемая подпись ребра.
	Label string `json:"label,omitempty"`
}

// Snapshot возвращает глубокую копию workflow.
// Используется сессией: сабмитится копия, чтобы последующие
// правки не гонялись с сериализацией запроса.
func (w *Workflow) Snapshot() *Workflow {
	cp := *w
	cp.Steps = make([]Step, len(w.Steps))
	for i := range w.Steps {
		cp.Steps[i] = w.Steps[i].clone()
	}
	return &cp
}

// clone возвращает глубокую копию шага.
func (s *Step) clone() Step {
	cp := *s
	if s.Options != nil {
		cp.Options = append([]string(nil), s.Options...)
	}
	if s.Branches != nil {
		cp.Branches = append([]Branch(nil), s.Branches...)
	}
	if s.Transitions != nil {
		cp.Transitions = append([]Transition(nil), s.Transitions...)
	}
	if s.Payload != nil {
		cp.Payload = make(map[string]any, len(s.Payload))
		for k, v := range s.Payload {
			cp.Payload[k] = v
		}
	}
	return cp
}

// StepByTitle возвращает первый шаг с заданным заголовком или nil.
func (w *Workflow) StepByTitle(title string) *Step {
	for i := range w.Steps {
		if w.Steps[i].Title == title {
			return &w.Steps[i]
		}
	}
	return nil
}

// StepByUID возвращает шаг по UUID или nil.
func (w *Workflow) StepByUID(uid uuid.UUID) *Step {
	for i := range w.Steps {
		if w.Steps[i].UID == uid {
			return &w.Steps[i]
		}
	}
	return nil
}

// Reindex пересчитывает Index всех шагов по их текущему порядку.
// Вызывается после вставки, удаления и reorder.
func (w *Workflow) Reindex() {
	for i := range w.Steps {
		w.Steps[i].Index = i
	}
}
