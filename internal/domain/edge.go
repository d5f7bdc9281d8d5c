package domain

import "github.com/google/uuid"

// EdgeKind — вид ребра в разрешённом графе шагов.
//
// Три поверхностных синтаксиса рёбер (legacy yes/no-поля, ветки по
// заголовку, transitions по UUID) сводятся моделью к одному типу Edge;
// исходный синтаксис сохраняется только в Kind.
type EdgeKind string

const (
	// EdgeKindSequential — неявное ребро i → i+1 между соседними шагами.
	EdgeKindSequential EdgeKind = "sequential"

	// EdgeKindBranch — условная ветка decision-шага.
	EdgeKindBranch EdgeKind = "branch"

	// EdgeKindElse — else-ветка decision-шага.
	EdgeKindElse EdgeKind = "else"

	// EdgeKindLegacyYes — устаревший true-путь decision-шага.
	EdgeKindLegacyYes EdgeKind = "legacy_yes"

	// EdgeKindLegacyNo — устаревший false-путь decision-шага.
	EdgeKindLegacyNo EdgeKind = "legacy_no"

	// EdgeKindTransition — ребро graph-режима.
	EdgeKindTransition EdgeKind = "transition"
)

// IsSequential возвращает true для неявных последовательных рёбер.
func (k EdgeKind) IsSequential() bool {
	return k == EdgeKindSequential
}

// StepRef — разрешённая ссылка на шаг внутри ребра.
//
// Для висячего ребра (цель удалена или переименована) заполнено только
// поле Title либо UID — то значение, которое хранилось в ссылке, —
// а Index равен -1.
type StepRef struct {
	// UID — UUID шага (graph-режим; нулевой в legacy).
	UID uuid.UUID `json:"uid,omitempty"`

	// Index — индекс шага в списке; -1, если ссылка не разрешилась.
	Index int `json:"index"`

	// Title — заголовок шага (или сохранённое значение висячей ссылки).
	Title string `json:"title,omitempty"`
}

// Resolved возвращает true, если ссылка указывает на существующий шаг.
func (r StepRef) Resolved() bool {
	return r.Index >= 0
}

// Edge — одно ребро разрешённого графа шагов.
type Edge struct {
	// From — исходный шаг.
	From StepRef `json:"from"`

	// To — целевой шаг. Для висячего ребра To.Index == -1,
	// но сохранённое значение цели остаётся в To.Title / To.UID.
	To StepRef `json:"to"`

	// Kind — вид ребра.
	Kind EdgeKind `json:"kind"`

	// Label — отображаемая подпись ("Yes", "No", текст условия, ...).
	Label string `json:"label,omitempty"`

	// Condition — текст условия для условных рёбер.
	Condition string `json:"condition,omitempty"`

	// BranchIndex — порядковый номер ребра среди исходящих рёбер одного
	// шага. Используется layout'ом для чередования направления кривых.
	BranchIndex int `json:"branch_index"`

	// Dangling — true, если цель ребра не разрешилась в существующий шаг.
	Dangling bool `json:"dangling,omitempty"`
}
