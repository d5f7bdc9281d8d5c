package domain

import "github.com/google/uuid"

// VariableType — тип переменной, выводимый из AnswerType question-шага.
type VariableType string

const (
	// VariableTypeString — строковая переменная (свободный текст).
	VariableTypeString VariableType = "string"

	// VariableTypeNumeric — числовая переменная. Только для таких
	// переменных операторы сравнения порядка работают численно.
	VariableTypeNumeric VariableType = "numeric"

	// VariableTypeEnum — переменная с фиксированным набором значений.
	VariableTypeEnum VariableType = "enum"
)

// AnswerType — тип ответа question-шага.
type AnswerType string

// Допустимые типы ответов.
const (
	AnswerTypeText   AnswerType = "text"
	AnswerTypeNumber AnswerType = "number"
	AnswerTypeChoice AnswerType = "choice"
)

// VariableType возвращает тип переменной, соответствующий типу ответа.
func (a AnswerType) VariableType() VariableType {
	switch a {
	case AnswerTypeNumber:
		return VariableTypeNumeric
	case AnswerTypeChoice:
		return VariableTypeEnum
	default:
		return VariableTypeString
	}
}

// Variable — именованная типизированная переменная, объявленная
// question-шагом. Условия decision-шагов ссылаются на переменные по имени.
type Variable struct {
	// Name — имя переменной.
	Name string `json:"name"`

	// Type — тип переменной.
	Type VariableType `json:"type"`

	// StepUID — UUID объявившего шага (graph-режим).
	StepUID uuid.UUID `json:"step_uid,omitempty"`

	// StepIndex — индекс объявившего шага.
	StepIndex int `json:"step_index"`

	// Options — допустимые значения для enum-переменных.
	Options []string `json:"options,omitempty"`
}
