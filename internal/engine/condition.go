package engine

import (
	"strconv"
	"strings"

	"github.com/shaiso/Flowboard/internal/domain"
)

// Operator — оператор сравнения в условии.
type Operator string

// Допустимые операторы.
const (
	OpEq Operator = "=="
	OpNe Operator = "!="
	OpGt Operator = ">"
	OpGe Operator = ">="
	OpLt Operator = "<"
	OpLe Operator = "<="
)

// IsValid проверяет, что оператор известен.
func (o Operator) IsValid() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return true
	default:
		return false
	}
}

// IsOrdering возвращает true для операторов порядка (>, >=, <, <=).
func (o Operator) IsOrdering() bool {
	switch o {
	case OpGt, OpGe, OpLt, OpLe:
		return true
	default:
		return false
	}
}

// Condition — разобранное условие вида `<variable> <op> <literal>`.
//
// Условия маршрутизируют decision-шаги: выполняется первая ветка,
// чьё условие истинно, иначе else-ветка (если задана).
type Condition struct {
	// Variable — имя переменной из реестра.
	Variable string

	// Operator — оператор сравнения.
	Operator Operator

	// Value — значение литерала без кавычек.
	Value string

	// quoted — литерал был задан в кавычках. Для операторов порядка
	// это означает лексикографическое сравнение строк вместо числового.
	quoted bool
}

// ParseCondition разбирает текст условия.
//
// Грамматика: `<identifier> <op> <literal>`, где литерал — либо строка
// в двойных кавычках, либо голое число. Неизвестный оператор и
// незакрытый литерал — ошибки разбора.
func ParseCondition(text string) (*Condition, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, newParseError(text, 0, ErrEmptyCondition)
	}

	// Идентификатор переменной
	i := 0
	for i < len(s) && isIdentChar(s[i], i == 0) {
		i++
	}
	if i == 0 {
		return nil, newParseError(text, 0, ErrMissingOperator)
	}
	variable := s[:i]

	// Пропускаем пробелы перед оператором
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i == len(s) {
		return nil, newParseError(text, i, ErrMissingOperator)
	}

	// Оператор: сначала двухсимвольные, затем односимвольные
	var op Operator
	rest := s[i:]
	switch {
	case strings.HasPrefix(rest, "=="):
		op = OpEq
	case strings.HasPrefix(rest, "!="):
		op = OpNe
	case strings.HasPrefix(rest, ">="):
		op = OpGe
	case strings.HasPrefix(rest, "<="):
		op = OpLe
	case strings.HasPrefix(rest, ">"):
		op = OpGt
	case strings.HasPrefix(rest, "<"):
		op = OpLt
	default:
		return nil, newParseError(text, i, ErrUnknownOperator)
	}
	i += len(op)

	// Пропускаем пробелы перед литералом
	for i < len(s) && s[i] == ' ' {
		i++
	}

	value, quoted, err := parseLiteral(text, s, i)
	if err != nil {
		return nil, err
	}

	return &Condition{
		Variable: variable,
		Operator: op,
		Value:    value,
		quoted:   quoted,
	}, nil
}

// parseLiteral разбирает литерал начиная с позиции i.
// Возвращает значение без кавычек и флаг quoted.
func parseLiteral(orig, s string, i int) (string, bool, error) {
	if i >= len(s) {
		// Пустой литерал допустим только в кавычках; голое отсутствие
		// значения — ошибка.
		return "", false, newParseError(orig, i, ErrMalformedLiteral)
	}

	if s[i] == '"' {
		// Строка в кавычках
		end := strings.IndexByte(s[i+1:], '"')
		if end < 0 {
			return "", false, newParseError(orig, i, ErrUnterminatedLiteral)
		}
		value := s[i+1 : i+1+end]

		// После закрывающей кавычки допустимы только пробелы
		tail := strings.TrimSpace(s[i+1+end+1:])
		if tail != "" {
			return "", false, newParseError(orig, i+1+end+1, ErrTrailingInput)
		}
		return value, true, nil
	}

	// Голый литерал: один токен, обязан быть числом
	token := s[i:]
	if strings.ContainsAny(token, " \t") {
		return "", false, newParseError(orig, i, ErrTrailingInput)
	}
	if _, err := strconv.ParseFloat(token, 64); err != nil {
		return "", false, newParseError(orig, i, ErrMalformedLiteral)
	}
	return token, false, nil
}

// isIdentChar проверяет допустимость символа в идентификаторе.
func isIdentChar(c byte, first bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
		return true
	}
	if !first && c >= '0' && c <= '9' {
		return true
	}
	return false
}

// String возвращает каноническую сериализацию условия.
// Литерал в кавычках сериализуется с кавычками, голое число — без.
func (c *Condition) String() string {
	var b strings.Builder
	b.WriteString(c.Variable)
	b.WriteByte(' ')
	b.WriteString(string(c.Operator))
	b.WriteByte(' ')
	if c.quoted {
		b.WriteByte('"')
		b.WriteString(c.Value)
		b.WriteByte('"')
	} else {
		b.WriteString(c.Value)
	}
	return b.String()
}

// BuildCondition собирает канонический текст условия.
//
// Кавычки выбираются по правилу тип/оператор: операторы равенства всегда
// берут литерал в кавычках; операторы порядка — голое число, если
// переменная объявлена числовой и значение числовое, иначе строку
// в кавычках (лексикографическое сравнение).
func BuildCondition(reg *VariableRegistry, variable string, op Operator, value string) (string, error) {
	if !op.IsValid() {
		return "", ErrUnknownOperator
	}

	quoted := true
	if op.IsOrdering() {
		v, ok := reg.Lookup(variable)
		if ok && v.Type == domain.VariableTypeNumeric {
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				quoted = false
			}
		}
	}

	c := &Condition{Variable: variable, Operator: op, Value: value, quoted: quoted}
	return c.String(), nil
}

// Evaluate вычисляет условие на привязках переменных.
//
// Семантика:
//   - переменная без привязки — условие никогда не срабатывает (false)
//   - равенство — точное сравнение строк после обрезки пробелов,
//     чувствительное к регистру; пустой литерал означает "значение пусто"
//   - числовое сравнение приводит обе стороны к числу и возвращает
//     false, если приведение невозможно (fail closed)
//   - сравнение порядка над литералом в кавычках — лексикографическое
func (c *Condition) Evaluate(bindings map[string]string) bool {
	raw, ok := bindings[c.Variable]
	if !ok {
		return false
	}

	left := strings.TrimSpace(raw)
	right := strings.TrimSpace(c.Value)

	switch c.Operator {
	case OpEq:
		return left == right
	case OpNe:
		return left != right
	}

	if c.quoted {
		return compareStrings(left, right, c.Operator)
	}
	return compareNumbers(left, right, c.Operator)
}

// compareNumbers сравнивает числовые значения. Непарсящиеся значения
// дают false.
func compareNumbers(left, right string, op Operator) bool {
	l, err := strconv.ParseFloat(left, 64)
	if err != nil {
		return false
	}
	r, err := strconv.ParseFloat(right, 64)
	if err != nil {
		return false
	}

	switch op {
	case OpGt:
		return l > r
	case OpGe:
		return l >= r
	case OpLt:
		return l < r
	case OpLe:
		return l <= r
	default:
		return false
	}
}

// compareStrings сравнивает строки лексикографически.
func compareStrings(left, right string, op Operator) bool {
	switch op {
	case OpGt:
		return left > right
	case OpGe:
		return left >= right
	case OpLt:
		return left < right
	case OpLe:
		return left <= right
	default:
		return false
	}
}

// ValidateCondition проверяет условие относительно реестра переменных.
//
// В нестрогом режиме (черновик) проверяется только существование
// переменной. В строгом режиме (публикация) оператор порядка над
// нечисловой переменной — ошибка ErrTypeMismatch.
func ValidateCondition(reg *VariableRegistry, c *Condition, strict bool) error {
	v, ok := reg.Lookup(c.Variable)
	if !ok {
		return newParseError(c.String(), 0, ErrUnknownVariable)
	}

	if strict && c.Operator.IsOrdering() && v.Type != domain.VariableTypeNumeric {
		return newParseError(c.String(), 0, ErrTypeMismatch)
	}

	return nil
}
