package layout

import (
	"github.com/shaiso/Flowboard/internal/domain"
)

// Геометрические константы холста. Все размеры фиксированы: layout —
// детерминированная функция входа, без случайности и без часов.
const (
	// NodeWidth, NodeHeight — размеры узла шага.
	NodeWidth  = 160.0
	NodeHeight = 80.0

	// hGap — горизонтальный зазор между соседними узлами.
	hGap = 60.0

	// baselineY — базовая вертикальная позиция узлов.
	baselineY = 40.0

	// halfIncrement — вертикальное смещение узла, в который входит
	// несеквенциальное ребро (половина высоты узла).
	halfIncrement = NodeHeight / 2

	// curveDepth — глубина изгиба квадратичной кривой.
	curveDepth = 50.0

	// Margin — отступ холста со всех сторон.
	Margin = 40.0
)

// Point — точка на холсте.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect — габариты холста.
type Rect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Shape — форма коннектора.
type Shape string

const (
	// ShapeLine — прямой отрезок (секвенциальные рёбра).
	ShapeLine Shape = "line"

	// ShapeCurve — квадратичная кривая (ветки, transitions).
	ShapeCurve Shape = "curve"
)

// Style — стиль отрисовки коннектора.
type Style struct {
	// Color — цвет линии.
	Color string `json:"color"`

	// Dash — SVG-паттерн пунктира; пусто для сплошной линии.
	Dash string `json:"dash,omitempty"`
}

// Фиксированная палитра веток. Рёбра с BranchIndex за пределами
// палитры переиспользуют цвета по кругу.
var branchPalette = []Style{
	{Color: "#2563eb"},
	{Color: "#d97706"},
	{Color: "#7c3aed"},
	{Color: "#0d9488"},
}

// Стили, привязанные к виду ребра.
var kindStyles = map[domain.EdgeKind]Style{
	domain.EdgeKindSequential: {Color: "#64748b"},
	domain.EdgeKindElse:       {Color: "#94a3b8", Dash: "6 3"},
	domain.EdgeKindLegacyYes:  {Color: "#16a34a"},
	domain.EdgeKindLegacyNo:   {Color: "#dc2626"},
}

// Connector — одно нарисованное ребро.
type Connector struct {
	// From, To — ключи идентичности шагов.
	From string `json:"from"`
	To   string `json:"to"`

	// Kind — вид исходного ребра.
	Kind domain.EdgeKind `json:"kind"`

	// Label — подпись ребра.
	Label string `json:"label,omitempty"`

	// Shape — прямая или кривая.
	Shape Shape `json:"shape"`

	// Start, End — концы коннектора.
	Start Point `json:"start"`
	End   Point `json:"end"`

	// Control — контрольная точка квадратичной кривой (только ShapeCurve).
	Control *Point `json:"control,omitempty"`

	// Style — цвет и пунктир.
	Style Style `json:"style"`
}

// Layout — результат раскладки: позиции узлов, коннекторы и габариты
// холста.
type Layout struct {
	// Positions — позиция левого верхнего угла узла по ключу шага.
	Positions map[string]Point `json:"positions"`

	// Connectors — рисуемые рёбра в порядке входного списка.
	Connectors []Connector `json:"connectors"`

	// Bounds — габариты холста: max(позиция + размер узла) + отступ.
	Bounds Rect `json:"bounds"`
}

// Compute раскладывает шаги и рёбра на холсте.
//
// Шаги идут слева направо в порядке объявления. Шаг, в который входит
// несеквенциальное ребро, смещается вниз на пол-инкремента, чтобы
// визуально отделить сходящиеся ветки; остальные остаются на базовой
// линии. Одинаковый вход всегда даёт одинаковый выход.
func Compute(wf *domain.Workflow, edges []domain.Edge) *Layout {
	// Цели несеквенциальных рёбер (по индексу шага)
	offset := make(map[int]bool)
	for _, e := range edges {
		if !e.Kind.IsSequential() && e.To.Resolved() {
			offset[e.To.Index] = true
		}
	}

	positions := make(map[string]Point, len(wf.Steps))
	for i := range wf.Steps {
		step := &wf.Steps[i]
		p := Point{
			X: Margin + float64(i)*(NodeWidth+hGap),
			Y: baselineY,
		}
		if offset[i] {
			p.Y += halfIncrement
		}
		positions[step.Key(wf.Mode)] = p
	}

	connectors := make([]Connector, 0, len(edges))
	for _, e := range edges {
		// Висячие рёбра не рисуются: у них нет конечной точки.
		// Они отображаются предупреждающим бейджем на исходном шаге.
		if !e.From.Resolved() || !e.To.Resolved() {
			continue
		}

		fromKey := wf.Steps[e.From.Index].Key(wf.Mode)
		toKey := wf.Steps[e.To.Index].Key(wf.Mode)
		start := rightCenter(positions[fromKey])
		end := leftCenter(positions[toKey])

		c := Connector{
			From:  fromKey,
			To:    toKey,
			Kind:  e.Kind,
			Label: e.Label,
			Start: start,
			End:   end,
			Style: styleFor(e),
		}

		if e.Kind.IsSequential() {
			c.Shape = ShapeLine
		} else {
			c.Shape = ShapeCurve
			c.Control = controlPoint(start, end, e.BranchIndex)
		}

		connectors = append(connectors, c)
	}

	return &Layout{
		Positions:  positions,
		Connectors: connectors,
		Bounds:     bounds(positions),
	}
}

// controlPoint вычисляет контрольную точку кривой. Направление изгиба
// чередуется по чётности индекса ветки, чтобы несколько веток одного
// decision-шага не накладывались друг на друга.
func controlPoint(start, end Point, branchIndex int) *Point {
	mid := Point{
		X: (start.X + end.X) / 2,
		Y: (start.Y + end.Y) / 2,
	}
	depth := curveDepth * float64(1+branchIndex/2)
	if branchIndex%2 == 0 {
		mid.Y -= depth // чётные — вверх от базовой линии
	} else {
		mid.Y += depth // нечётные — вниз
	}
	return &mid
}

// styleFor выбирает стиль ребра: виды с фиксированным стилем берут его
// из kindStyles, условные рёбра — из палитры веток по кругу.
func styleFor(e domain.Edge) Style {
	if s, ok := kindStyles[e.Kind]; ok {
		return s
	}
	return branchPalette[e.BranchIndex%len(branchPalette)]
}

// rightCenter — середина правой грани узла.
func rightCenter(p Point) Point {
	return Point{X: p.X + NodeWidth, Y: p.Y + NodeHeight/2}
}

// leftCenter — середина левой грани узла.
func leftCenter(p Point) Point {
	return Point{X: p.X, Y: p.Y + NodeHeight/2}
}

// bounds вычисляет габариты холста по позициям узлов.
func bounds(positions map[string]Point) Rect {
	var maxX, maxY float64
	for _, p := range positions {
		if x := p.X + NodeWidth; x > maxX {
			maxX = x
		}
		if y := p.Y + NodeHeight; y > maxY {
			maxY = y
		}
	}
	if len(positions) == 0 {
		return Rect{Width: 2 * Margin, Height: 2 * Margin}
	}
	return Rect{Width: maxX + Margin, Height: maxY + Margin}
}
