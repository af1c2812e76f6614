package planner

import (
	"strings"

	"golang.org/x/exp/slices"
	"mit.edu/dsg/godf/common"
)

// ExprProjection is an ordered list of expressions that declares the output columns of a node.
// It is a value type; every operation returns a new projection.
type ExprProjection struct {
	exprs []Expr
}

func NewExprProjection(exprs ...Expr) ExprProjection {
	return ExprProjection{exprs: slices.Clone(exprs)}
}

// ColumnProjection returns one column reference per field of schema, in order.
func ColumnProjection(schema *common.Schema) ExprProjection {
	return ExprProjection{exprs: Cols(schema.ColumnNames()...)}
}

func (p ExprProjection) Len() int {
	return len(p.exprs)
}

func (p ExprProjection) Expr(i int) Expr {
	return p.exprs[i]
}

// Exprs returns a copy of the expressions.
func (p ExprProjection) Exprs() []Expr {
	return slices.Clone(p.exprs)
}

// Resolve binds every expression against schema.
func (p ExprProjection) Resolve(schema *common.Schema) (ExprProjection, error) {
	resolved := make([]Expr, len(p.exprs))
	for i, e := range p.exprs {
		r, err := e.Resolve(schema)
		if err != nil {
			return ExprProjection{}, err
		}
		resolved[i] = r
	}
	return ExprProjection{exprs: resolved}, nil
}

// ToSchema derives the schema this projection produces. Every expression must be resolved and
// named, and the names must be unique.
func (p ExprProjection) ToSchema() (*common.Schema, error) {
	fields := make([]common.Field, len(p.exprs))
	for i, e := range p.exprs {
		name, err := ExprName(e)
		if err != nil {
			return nil, err
		}
		t, ok := e.ResolvedType()
		if !ok {
			return nil, common.Errorf(common.SchemaError, "expression %s has no resolved type", e)
		}
		fields[i] = common.Field{Name: name, Type: t}
	}
	return common.NewSchema(fields...)
}

// Names returns the name of each expression; unnamed expressions yield "".
func (p ExprProjection) Names() []string {
	names := make([]string, len(p.exprs))
	for i, e := range p.exprs {
		names[i], _ = e.Name()
	}
	return names
}

// Union merges other into p by name: an expression of other replaces the same-named entry of p
// in place, and expressions with new names are appended in order.
func (p ExprProjection) Union(other ExprProjection) ExprProjection {
	out := slices.Clone(p.exprs)
	for _, e := range other.exprs {
		name, named := e.Name()
		idx := -1
		if named {
			idx = slices.IndexFunc(out, func(existing Expr) bool {
				n, ok := existing.Name()
				return ok && n == name
			})
		}
		if idx >= 0 {
			out[idx] = e
		} else {
			out = append(out, e)
		}
	}
	return ExprProjection{exprs: out}
}

// Exclude drops every expression whose name is in names.
func (p ExprProjection) Exclude(names ...string) ExprProjection {
	out := slices.DeleteFunc(slices.Clone(p.exprs), func(e Expr) bool {
		n, ok := e.Name()
		return ok && slices.Contains(names, n)
	})
	return ExprProjection{exprs: out}
}

func (p ExprProjection) String() string {
	parts := make([]string, len(p.exprs))
	for i, e := range p.exprs {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
