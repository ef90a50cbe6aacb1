package sqlmapper

import "context"

// Statement types reported in QueryContext.Type.
const (
	TypeSelect = "SELECT"
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
)

// QueryContext describes one statement about to be executed.
type QueryContext struct {
	Type  string
	Table string
	SQL   string
	Args  []any
}

// Handler executes a statement. The mapper's root handler talks to the database;
// middlewares wrap it.
type Handler func(ctx context.Context, qc *QueryContext) error

type Middleware func(next Handler) Handler

func chain(mdls []Middleware, root Handler) Handler {
	h := root
	for i := len(mdls) - 1; i >= 0; i-- {
		h = mdls[i](h)
	}
	return h
}
