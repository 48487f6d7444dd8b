package core

// ContentShape classifies what a task kind accepts as its content: a bare
// scalar (command line, expression, task name) or a list (subtask array).
type ContentShape int

const (
	ShapeAny ContentShape = iota
	ShapeScalar
	ShapeList
)

func (s ContentShape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeList:
		return "list"
	default:
		return "any"
	}
}
