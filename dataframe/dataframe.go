package dataframe

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// Runner executes a logical plan. It is supplied by whoever creates the root DataFrame.
type Runner interface {
	Run(ctx context.Context, plan planner.PlanNode) (*storage.PartitionSet, error)
}

// DataFrame is a lazy, immutable handle on a logical plan. Every transformation validates its
// arguments against the current schema right away and returns a new DataFrame; nothing is
// executed until Collect or ToMaps.
type DataFrame struct {
	plan   planner.PlanNode
	runner Runner
}

// New wraps plan. runner may be nil for a DataFrame that is only planned and explained.
func New(plan planner.PlanNode, runner Runner) *DataFrame {
	common.Assert(plan != nil, "DataFrame needs a plan")
	return &DataFrame{plan: plan, runner: runner}
}

func (df *DataFrame) derive(plan planner.PlanNode, err error) (*DataFrame, error) {
	if err != nil {
		return nil, err
	}
	return &DataFrame{plan: plan, runner: df.runner}, nil
}

func (df *DataFrame) Plan() planner.PlanNode {
	return df.plan
}

func (df *DataFrame) Schema() *common.Schema {
	return df.plan.OutputSchema()
}

func (df *DataFrame) ColumnNames() []string {
	return df.plan.OutputSchema().ColumnNames()
}

func (df *DataFrame) NumPartitions() int {
	return df.plan.NumPartitions()
}

// Select keeps exactly the given expressions, in order.
func (df *DataFrame) Select(exprs ...planner.Expr) (*DataFrame, error) {
	if len(exprs) == 0 {
		return nil, common.Errorf(common.ConfigurationError, "select needs at least one column")
	}
	return df.derive(planner.Project(df.plan, exprs...))
}

// Exclude drops the named columns. Names that are not columns are ignored.
func (df *DataFrame) Exclude(names ...string) (*DataFrame, error) {
	keep := planner.ColumnProjection(df.Schema()).Exclude(names...)
	return df.derive(planner.Project(df.plan, keep.Exprs()...))
}

// Where keeps the rows for which predicate is true.
func (df *DataFrame) Where(predicate planner.Expr) (*DataFrame, error) {
	return df.derive(planner.Filter(df.plan, predicate))
}

// WithColumn adds expr as column name, or replaces the column if name already exists.
func (df *DataFrame) WithColumn(name string, expr planner.Expr) (*DataFrame, error) {
	exprs := planner.ColumnProjection(df.Schema()).
		Union(planner.NewExprProjection(planner.Alias(expr, name)))
	return df.derive(planner.Project(df.plan, exprs.Exprs()...))
}

// Sort orders all rows globally by a single key.
func (df *DataFrame) Sort(key planner.Expr, descending bool) (*DataFrame, error) {
	return df.derive(planner.Sort(df.plan, key, descending))
}

func (df *DataFrame) Limit(n int64) (*DataFrame, error) {
	return df.derive(planner.Limit(df.plan, n))
}

// Repartition redistributes rows into n partitions, by hash of partitionBy when a key is given
// and randomly otherwise. At most one key is accepted.
func (df *DataFrame) Repartition(n int, partitionBy ...planner.Expr) (*DataFrame, error) {
	scheme := planner.PartitionRandom
	if len(partitionBy) > 0 {
		scheme = planner.PartitionHash
	}
	return df.derive(planner.Repartition(df.plan, n, partitionBy, scheme))
}

// Coalesce merges adjacent partitions down to n.
func (df *DataFrame) Coalesce(n int) (*DataFrame, error) {
	return df.derive(planner.Coalesce(df.plan, n))
}

// JoinOptions selects the join keys. Use On when both sides share key names, or LeftOn and
// RightOn together otherwise. How defaults to "inner", the only supported join type.
type JoinOptions struct {
	On      []planner.Expr
	LeftOn  []planner.Expr
	RightOn []planner.Expr
	How     string
}

func (o JoinOptions) keys() (left, right []planner.Expr, err error) {
	if len(o.On) > 0 {
		if len(o.LeftOn) > 0 || len(o.RightOn) > 0 {
			return nil, nil, common.Errorf(common.ConfigurationError, "join: on cannot be combined with left_on or right_on")
		}
		return o.On, o.On, nil
	}
	if len(o.LeftOn) == 0 || len(o.RightOn) == 0 {
		return nil, nil, common.Errorf(common.ConfigurationError, "join: without on, both left_on and right_on are required")
	}
	return o.LeftOn, o.RightOn, nil
}

// Join joins df with other. The result keeps df's partition count.
func (df *DataFrame) Join(other *DataFrame, opts JoinOptions) (*DataFrame, error) {
	leftKeys, rightKeys, err := opts.keys()
	if err != nil {
		return nil, err
	}
	how := opts.How
	if how == "" {
		how = "inner"
	}
	joinType, err := planner.ParseJoinType(how)
	if err != nil {
		return nil, err
	}
	return df.derive(planner.Join(df.plan, other.plan, leftKeys, rightKeys, joinType))
}

// Explode turns every element of the given list columns into its own row.
func (df *DataFrame) Explode(cols ...planner.Expr) (*DataFrame, error) {
	op, err := planner.NewExplodeOp(df.Schema(), cols)
	if err != nil {
		return nil, err
	}
	return df.derive(planner.MapPartition(df.plan, op))
}

// Distinct drops duplicate rows by grouping on every column.
func (df *DataFrame) Distinct() (*DataFrame, error) {
	names := df.ColumnNames()
	dummy := uuid.NewString()
	grouped, err := df.GroupBy(planner.Cols(names...)...).Agg([]AggSpec{
		{Expr: planner.Alias(planner.Col(names[0]), dummy), Kind: "min"},
	})
	if err != nil {
		return nil, err
	}
	return grouped.Exclude(dummy)
}

// AggSpec asks for Kind ("sum", "count", "min", "max" or "mean") of Expr.
type AggSpec struct {
	Expr planner.Expr
	Kind string
}

func (df *DataFrame) agg(specs []AggSpec, groupBy []planner.Expr) (*DataFrame, error) {
	if len(specs) == 0 {
		return nil, common.Errorf(common.ConfigurationError, "no columns to aggregate")
	}
	requests := make([]planner.AggRequest, len(specs))
	for i, s := range specs {
		kind, err := planner.ParseAggKind(strings.ToLower(s.Kind))
		if err != nil {
			return nil, err
		}
		requests[i] = planner.AggRequest{Expr: s.Expr, Kind: kind}
	}
	return df.derive(planner.Aggregate(df.plan, requests, groupBy))
}

func specsOf(kind string, cols []planner.Expr) []AggSpec {
	specs := make([]AggSpec, len(cols))
	for i, c := range cols {
		specs[i] = AggSpec{Expr: c, Kind: kind}
	}
	return specs
}

// Sum totals each column over all rows; the result has one row.
func (df *DataFrame) Sum(cols ...planner.Expr) (*DataFrame, error) {
	return df.agg(specsOf("sum", cols), nil)
}

// Mean averages each column over all rows; the result has one row.
func (df *DataFrame) Mean(cols ...planner.Expr) (*DataFrame, error) {
	return df.agg(specsOf("mean", cols), nil)
}

// Agg computes every spec over all rows.
func (df *DataFrame) Agg(specs []AggSpec) (*DataFrame, error) {
	return df.agg(specs, nil)
}

// GroupBy starts a grouped aggregation. Keys are checked when the aggregation is built.
func (df *DataFrame) GroupBy(keys ...planner.Expr) *GroupedDataFrame {
	return &GroupedDataFrame{df: df, keys: keys}
}

// Explain renders the plan tree.
func (df *DataFrame) Explain() string {
	return planner.Explain(df.plan)
}

// Collect runs the plan and returns its partitions.
func (df *DataFrame) Collect(ctx context.Context) (*storage.PartitionSet, error) {
	if df.runner == nil {
		return nil, common.Errorf(common.ConfigurationError, "DataFrame has no runner")
	}
	return df.runner.Run(ctx, df.plan)
}

// ToMaps runs the plan and returns every row as a column-name keyed map, in partition order.
func (df *DataFrame) ToMaps(ctx context.Context) ([]map[string]any, error) {
	out, err := df.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return out.ToMaps(), nil
}

func (df *DataFrame) String() string {
	return "DataFrame" + df.Schema().String()
}

// GroupedDataFrame is a DataFrame awaiting an aggregation over its group-by keys.
type GroupedDataFrame struct {
	df   *DataFrame
	keys []planner.Expr
}

func (g *GroupedDataFrame) Sum(cols ...planner.Expr) (*DataFrame, error) {
	return g.df.agg(specsOf("sum", cols), g.keys)
}

func (g *GroupedDataFrame) Mean(cols ...planner.Expr) (*DataFrame, error) {
	return g.df.agg(specsOf("mean", cols), g.keys)
}

func (g *GroupedDataFrame) Agg(specs []AggSpec) (*DataFrame, error) {
	return g.df.agg(specs, g.keys)
}
