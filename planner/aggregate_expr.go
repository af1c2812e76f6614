package planner

import (
	"fmt"
	"strings"

	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/storage"
)

// AggKind names a user-facing aggregation. Sum, Count, Min and Max are primitive reductions that
// a LocalAggregateNode computes directly; Mean is derived by the aggregation planner.
type AggKind int

const (
	AggSum AggKind = iota
	AggCount
	AggMin
	AggMax
	AggMean
)

func (k AggKind) String() string {
	switch k {
	case AggSum:
		return "sum"
	case AggCount:
		return "count"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggMean:
		return "mean"
	}
	return "???"
}

// IsPrimitive reports whether k can be evaluated by a single reduction over rows.
func (k AggKind) IsPrimitive() bool {
	return k >= AggSum && k <= AggMax
}

// ParseAggKind maps a kind name to an AggKind. Unknown names are a ConfigurationError.
func ParseAggKind(s string) (AggKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return AggSum, nil
	case "count":
		return AggCount, nil
	case "min":
		return AggMin, nil
	case "max":
		return AggMax, nil
	case "mean", "avg":
		return AggMean, nil
	}
	return 0, common.Errorf(common.ConfigurationError, "unsupported aggregation kind '%s'", s)
}

// AggregateExpr is a call to a primitive reduction. Per row it evaluates to its argument; the
// reduction itself is carried out by whoever executes the enclosing LocalAggregateNode.
type AggregateExpr struct {
	child      Expr
	kind       AggKind
	outputType common.Type
}

// NewAggregateExpr builds an aggregation call of a primitive kind.
func NewAggregateExpr(kind AggKind, child Expr) (*AggregateExpr, error) {
	if !kind.IsPrimitive() {
		return nil, common.Errorf(common.ConfigurationError, "%s is not a primitive aggregation", kind)
	}
	return &AggregateExpr{child: child, kind: kind}, nil
}

func Sum(e Expr) *AggregateExpr   { return &AggregateExpr{child: e, kind: AggSum} }
func Count(e Expr) *AggregateExpr { return &AggregateExpr{child: e, kind: AggCount} }
func Min(e Expr) *AggregateExpr   { return &AggregateExpr{child: e, kind: AggMin} }
func Max(e Expr) *AggregateExpr   { return &AggregateExpr{child: e, kind: AggMax} }

func (e *AggregateExpr) Kind() AggKind {
	return e.kind
}

func (e *AggregateExpr) Child() Expr {
	return e.child
}

func (e *AggregateExpr) Name() (string, bool) {
	return e.child.Name()
}

func (e *AggregateExpr) ResolvedType() (common.Type, bool) {
	return e.outputType, e.outputType != common.DefaultType
}

func (e *AggregateExpr) Resolve(schema *common.Schema) (Expr, error) {
	child, err := e.child.Resolve(schema)
	if err != nil {
		return nil, err
	}
	t, _ := child.ResolvedType()
	var outputType common.Type
	switch e.kind {
	case AggCount:
		outputType = common.IntType
	case AggSum:
		if !t.IsNumeric() {
			return nil, common.Errorf(common.SchemaError, "cannot sum %s of type %s", child, t)
		}
		outputType = t
	case AggMin, AggMax:
		if t.IsList() {
			return nil, common.Errorf(common.SchemaError, "cannot take %s of list column %s", e.kind, child)
		}
		outputType = t
	default:
		return nil, common.Errorf(common.ConfigurationError, "%s is not a primitive aggregation", e.kind)
	}
	return &AggregateExpr{child: child, kind: e.kind, outputType: outputType}, nil
}

func (e *AggregateExpr) Eval(t storage.Tuple) common.Value {
	return e.child.Eval(t)
}

func (e *AggregateExpr) String() string {
	return fmt.Sprintf("%s(%s)", e.kind, e.child.String())
}

// unwrapAggregate strips aliases and returns the aggregation call underneath, if any.
func unwrapAggregate(e Expr) (*AggregateExpr, bool) {
	for {
		switch v := e.(type) {
		case *AliasExpr:
			e = v.child
		case *AggregateExpr:
			return v, true
		default:
			return nil, false
		}
	}
}
