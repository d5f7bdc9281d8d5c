package engine

import (
	"errors"
	"fmt"
)

// Ошибки разбора условий.
var (
	// ErrEmptyCondition — пустой текст условия.
	ErrEmptyCondition = errors.New("condition is empty")

	// ErrMissingOperator — в условии нет оператора сравнения.
	ErrMissingOperator = errors.New("condition has no comparison operator")

	// ErrUnknownOperator — неизвестный оператор сравнения.
	ErrUnknownOperator = errors.New("unknown comparison operator")

	// ErrUnterminatedLiteral — строковый литерал без закрывающей кавычки.
	ErrUnterminatedLiteral = errors.New("unterminated string literal")

	// ErrMalformedLiteral — литерал не является ни строкой в кавычках,
	// ни числом.
	ErrMalformedLiteral = errors.New("malformed literal")

	// ErrTrailingInput — лишний текст после литерала.
	ErrTrailingInput = errors.New("unexpected input after literal")
)

// Ошибки проверки условий относительно реестра переменных.
var (
	// ErrUnknownVariable — условие ссылается на необъявленную переменную.
	ErrUnknownVariable = errors.New("condition references unknown variable")

	// ErrTypeMismatch — оператор порядка применён к нечисловой переменной.
	ErrTypeMismatch = errors.New("ordering operator on non-numeric variable")
)

// Ошибки структурной валидации workflow.
var (
	// ErrNoSteps — workflow не содержит шагов.
	ErrNoSteps = errors.New("workflow has no steps")

	// ErrUnknownStepType — неизвестный тип шага.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrDuplicateStepUID — несколько шагов с одинаковым UUID.
	ErrDuplicateStepUID = errors.New("duplicate step UID")

	// ErrDanglingReference — ветка или transition ссылается на
	// несуществующий шаг.
	ErrDanglingReference = errors.New("edge target does not exist")

	// ErrTerminalStepHasEdges — resolve-шаг имеет исходящие рёбра.
	ErrTerminalStepHasEdges = errors.New("resolve step has outgoing edges")

	// ErrStepOutOfRange — индекс шага вне списка.
	ErrStepOutOfRange = errors.New("step index out of range")

	// ErrBadReorder — новый порядок не является перестановкой шагов.
	ErrBadReorder = errors.New("reorder is not a permutation of steps")
)

// ParseError — ошибка разбора условия с позицией в тексте.
type ParseError struct {
	Text string // исходный текст условия
	Pos  int    // позиция ошибки (байтовое смещение)
	Err  error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse condition %q at %d: %v", e.Text, e.Pos, e.Err)
}

// Unwrap возвращает базовую ошибку.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// newParseError создаёт новую ошибку разбора.
func newParseError(text string, pos int, err error) *ParseError {
	return &ParseError{Text: text, Pos: pos, Err: err}
}

// ValidationError — ошибка валидации workflow с контекстом шага.
type ValidationError struct {
	StepKey string // ключ шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepKey != "" {
		return "step " + e.StepKey + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stepKey, field, message string, err error) *ValidationError {
	return &ValidationError{
		StepKey: stepKey,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
