package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// AggRequest asks for Kind applied to Expr. The result column is named after Expr.
type AggRequest struct {
	Expr Expr
	Kind AggKind
}

func (r AggRequest) String() string {
	return fmt.Sprintf("%s(%s)", r.Kind, r.Expr)
}

// aggRule describes how one AggKind is computed in two phases. intermediates[i] is computed per
// partition and combined across partitions with reducers[i]. finalize, when set, turns the
// reduced columns into the result.
type aggRule struct {
	intermediates []AggKind
	reducers      []AggKind
	finalize      func(reduced []Expr) Expr
}

var aggRules = map[AggKind]aggRule{
	AggSum:   {intermediates: []AggKind{AggSum}, reducers: []AggKind{AggSum}},
	AggCount: {intermediates: []AggKind{AggCount}, reducers: []AggKind{AggSum}},
	AggMin:   {intermediates: []AggKind{AggMin}, reducers: []AggKind{AggMin}},
	AggMax:   {intermediates: []AggKind{AggMax}, reducers: []AggKind{AggMax}},
	AggMean: {
		intermediates: []AggKind{AggSum, AggCount},
		reducers:      []AggKind{AggSum, AggSum},
		finalize:      meanFinalizer,
	},
}

// meanFinalizer divides in floating point regardless of the input type.
func meanFinalizer(reduced []Expr) Expr {
	return Divide(Plus(reduced[0], Lit(0.0)), Plus(reduced[1], Lit(0.0)))
}

// plannedAgg tracks one request through the phases.
type plannedAgg struct {
	AggRequest
	output  string
	rule    aggRule
	reduced []string
}

// Aggregate plans requests over input as
//
//	LocalAggregate -> Coalesce(1) | Repartition(Hash, groupBy) -> LocalAggregate [-> Projection]
//
// Without group-by keys every partial result is collapsed into one partition before the final
// reduction. With keys the partials are hash-partitioned on the keys, keeping the input's
// partition count, so each group is reduced in exactly one place. The trailing projection is only
// emitted when some request needs a finalizer.
//
// Result columns are named after the requested expressions. If one name is requested more than
// once, each of those columns is suffixed with its kind, as in "y_sum" and "y_mean".
func Aggregate(input PlanNode, requests []AggRequest, groupBy []Expr) (PlanNode, error) {
	if len(requests) == 0 {
		return nil, common.Errorf(common.ConfigurationError, "aggregation needs at least one (expression, kind) pair")
	}
	planned, err := planAggregates(requests)
	if err != nil {
		return nil, err
	}

	keys, err := NewExprProjection(groupBy...).Resolve(input.OutputSchema())
	if err != nil {
		return nil, err
	}
	keyNames := make([]string, keys.Len())
	for i, k := range keys.exprs {
		if keyNames[i], err = ExprName(k); err != nil {
			return nil, err
		}
	}

	// Phase 1: partial reductions per partition.
	var partials []AggregateClause
	for _, p := range planned {
		for _, kind := range p.rule.intermediates {
			call, _ := NewAggregateExpr(kind, p.Expr)
			partials = append(partials, AggregateClause{
				Expr: Alias(call, intermediateName(p.output, kind)),
				Kind: kind,
			})
		}
	}
	local, err := NewLocalAggregateNode(input, partials, keys)
	if err != nil {
		return nil, err
	}

	// Exchange: bring all partials of a group together.
	var exchanged PlanNode
	if len(keyNames) == 0 {
		exchanged, err = NewCoalesceNode(local, 1)
	} else {
		exchanged, err = NewRepartitionNode(local, input.NumPartitions(), NewExprProjection(Cols(keyNames...)...), PartitionHash)
	}
	if err != nil {
		return nil, err
	}

	// Phase 2: combine the partials.
	needsFinalizer := false
	var combined []AggregateClause
	for i := range planned {
		p := &planned[i]
		if p.rule.finalize != nil {
			needsFinalizer = true
		}
		for j, kind := range p.rule.intermediates {
			reducer := p.rule.reducers[j]
			inter := intermediateName(p.output, kind)
			name := p.output
			if p.rule.finalize != nil {
				name = intermediateName(inter, reducer)
			}
			call, _ := NewAggregateExpr(reducer, Col(inter))
			combined = append(combined, AggregateClause{Expr: Alias(call, name), Kind: reducer})
			p.reduced = append(p.reduced, name)
		}
	}
	global, err := NewLocalAggregateNode(exchanged, combined, NewExprProjection(Cols(keyNames...)...))
	if err != nil {
		return nil, err
	}
	if !needsFinalizer {
		return global, nil
	}

	// Finalize: keys first, then one column per request in request order.
	out := Cols(keyNames...)
	for _, p := range planned {
		if p.rule.finalize == nil {
			out = append(out, Col(p.output))
			continue
		}
		out = append(out, Alias(p.rule.finalize(Cols(p.reduced...)), p.output))
	}
	final, err := NewProjectionNode(global, NewExprProjection(out...))
	if err != nil {
		return nil, err
	}
	return final, nil
}

func planAggregates(requests []AggRequest) ([]plannedAgg, error) {
	planned := make([]plannedAgg, len(requests))
	seen := make(map[string]int, len(requests))
	for i, r := range requests {
		rule, ok := aggRules[r.Kind]
		if !ok {
			return nil, common.Errorf(common.ConfigurationError, "unsupported aggregation kind %s", r.Kind)
		}
		if r.Expr == nil {
			return nil, common.Errorf(common.ConfigurationError, "aggregation request %d has no expression", i)
		}
		name, err := ExprName(r.Expr)
		if err != nil {
			return nil, err
		}
		planned[i] = plannedAgg{AggRequest: r, output: name, rule: rule}
		seen[name]++
	}
	for i := range planned {
		if seen[planned[i].output] > 1 {
			planned[i].output = intermediateName(planned[i].output, planned[i].Kind)
		}
	}
	return planned, nil
}

func intermediateName(name string, kind AggKind) string {
	return name + "_" + kind.String()
}
