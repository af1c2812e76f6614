package execution

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/logging"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

var xySchema = common.MustSchema(
	common.Field{Name: "x", Type: common.StringType},
	common.Field{Name: "y", Type: common.IntType},
)

// register loads rows into the runner and returns a scan over them.
func register(t *testing.T, r *LocalRunner, name string, schema *common.Schema, rows []map[string]any, parts int) planner.PlanNode {
	t.Helper()
	data, err := storage.FromMaps(schema, rows, parts)
	require.NoError(t, err)
	r.RegisterDataset(name, data)
	scan, err := planner.NewScanNode(planner.SourceDescriptor{
		Name: name, Format: MemoryFormat, Location: name, NumPartitions: parts,
	}, schema)
	require.NoError(t, err)
	return scan
}

func newTestRunner() *LocalRunner {
	return NewLocalRunner(2, logging.Nop())
}

func sortedRows(ps *storage.PartitionSet) []map[string]any {
	rows := ps.ToMaps()
	sort.SliceStable(rows, func(i, j int) bool {
		return rowKey(rows[i]) < rowKey(rows[j])
	})
	return rows
}

func rowKey(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += k + "=" + fmt.Sprint(row[k]) + ";"
	}
	return s
}

func TestRunScan(t *testing.T) {
	r := newTestRunner()
	scan := register(t, r, "t", xySchema, []map[string]any{
		{"x": "a", "y": 1}, {"x": "b", "y": 2}, {"x": "c", "y": 3},
	}, 2)

	out, err := r.Run(context.Background(), scan)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumPartitions())
	assert.Equal(t, 3, out.NumRows())
	assert.True(t, out.Schema().Equal(xySchema))
}

func TestMeanAcrossPartitions(t *testing.T) {
	r := newTestRunner()
	schema := common.MustSchema(common.Field{Name: "v", Type: common.IntType})
	scan := register(t, r, "nums", schema, []map[string]any{{"v": 1}, {"v": 2}, {"v": 3}, {"v": 4}}, 2)

	data, _ := r.Dataset("nums")
	require.Equal(t, 2, data.Partition(0).NumRows(), "rows [1,2] and [3,4]")

	plan, err := planner.Aggregate(scan, []planner.AggRequest{{Expr: planner.Col("v"), Kind: planner.AggMean}}, nil)
	require.NoError(t, err)
	out, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"v": 2.5}}, out.ToMaps())
}

func TestGroupByAggregation(t *testing.T) {
	rows := []map[string]any{
		{"x": "a", "y": 1}, {"x": "a", "y": 3}, {"x": "b", "y": 5},
	}
	want := []map[string]any{
		{"x": "a", "y_sum": int64(4), "y_mean": 2.0},
		{"x": "b", "y_sum": int64(5), "y_mean": 5.0},
	}
	for _, parts := range []int{1, 2, 3, 5} {
		r := newTestRunner()
		scan := register(t, r, "t", xySchema, rows, parts)
		plan, err := planner.Aggregate(scan, []planner.AggRequest{
			{Expr: planner.Col("y"), Kind: planner.AggSum},
			{Expr: planner.Col("y"), Kind: planner.AggMean},
		}, planner.Cols("x"))
		require.NoError(t, err)

		out, err := r.Run(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, parts, out.NumPartitions())
		assert.Equal(t, want, sortedRows(out), "partitions=%d", parts)
	}
}

func TestAggregateKindsAndNulls(t *testing.T) {
	r := newTestRunner()
	scan := register(t, r, "t", xySchema, []map[string]any{
		{"x": "a", "y": 4}, {"x": "b", "y": nil}, {"x": "c", "y": -2}, {"x": "d", "y": 7},
	}, 3)

	plan, err := planner.Aggregate(scan, []planner.AggRequest{
		{Expr: planner.Col("y"), Kind: planner.AggCount},
		{Expr: planner.Col("y"), Kind: planner.AggMin},
		{Expr: planner.Col("y"), Kind: planner.AggMax},
		{Expr: planner.Alias(planner.Col("x"), "names"), Kind: planner.AggCount},
	}, nil)
	require.NoError(t, err)
	out, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{
		"y_count": int64(3), "y_min": int64(-2), "y_max": int64(7), "names": int64(4),
	}}, out.ToMaps())
}

func TestGlobalAggregateOverEmptyInput(t *testing.T) {
	r := newTestRunner()
	scan := register(t, r, "t", xySchema, nil, 3)

	plan, err := planner.Aggregate(scan, []planner.AggRequest{
		{Expr: planner.Col("y"), Kind: planner.AggCount},
		{Expr: planner.Col("y"), Kind: planner.AggSum},
	}, nil)
	require.NoError(t, err)
	out, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"y_count": int64(0), "y_sum": nil}}, out.ToMaps())
}

func TestHashRepartitionColocatesKeys(t *testing.T) {
	r := newTestRunner()
	var rows []map[string]any
	for i := 0; i < 60; i++ {
		rows = append(rows, map[string]any{"x": string(rune('a' + i%7)), "y": i})
	}
	scan := register(t, r, "t", xySchema, rows, 4)
	plan, err := planner.Repartition(scan, 3, planner.Cols("x"), planner.PartitionHash)
	require.NoError(t, err)

	out, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumPartitions())
	assert.Equal(t, 60, out.NumRows())

	home := map[string]int{}
	for i, p := range out.Partitions() {
		for _, tup := range p.Tuples() {
			k := tup.GetValue(0).StringValue()
			if prev, ok := home[k]; ok {
				assert.Equal(t, prev, i, "key %s split across partitions", k)
			}
			home[k] = i
		}
	}
}

func TestRandomRepartitionAndCoalesce(t *testing.T) {
	r := newTestRunner()
	var rows []map[string]any
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]any{"x": "k", "y": i})
	}
	scan := register(t, r, "t", xySchema, rows, 2)

	spread, err := planner.Repartition(scan, 5, nil, planner.PartitionRandom)
	require.NoError(t, err)
	out, err := r.Run(context.Background(), spread)
	require.NoError(t, err)
	for _, p := range out.Partitions() {
		assert.Equal(t, 2, p.NumRows())
	}

	merged, err := planner.Coalesce(spread, 2)
	require.NoError(t, err)
	out, err = r.Run(context.Background(), merged)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumPartitions())
	assert.Equal(t, 10, out.NumRows())
}

func TestSortAndLimit(t *testing.T) {
	r := newTestRunner()
	scan := register(t, r, "t", xySchema, []map[string]any{
		{"x": "a", "y": 3}, {"x": "b", "y": 9}, {"x": "c", "y": nil},
		{"x": "d", "y": 1}, {"x": "e", "y": 9}, {"x": "f", "y": 4},
	}, 3)

	sorted, err := planner.Sort(scan, planner.Col("y"), true)
	require.NoError(t, err)
	out, err := r.Run(context.Background(), sorted)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumPartitions())

	var xs []string
	for _, tup := range out.Tuples() {
		xs = append(xs, tup.GetValue(0).StringValue())
	}
	// stable for equal keys, NULL sorts first ascending so last descending
	assert.Equal(t, []string{"b", "e", "f", "a", "d", "c"}, xs)

	top, err := planner.Limit(sorted, 2)
	require.NoError(t, err)
	out, err = r.Run(context.Background(), top)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumPartitions())
	assert.Equal(t, []map[string]any{{"x": "b", "y": int64(9)}, {"x": "e", "y": int64(9)}}, out.ToMaps())
}

func TestFilterProjectPipeline(t *testing.T) {
	r := newTestRunner()
	scan := register(t, r, "t", xySchema, []map[string]any{
		{"x": "a", "y": 1}, {"x": "b", "y": 2}, {"x": "c", "y": 3}, {"x": "d", "y": nil},
	}, 2)

	filtered, err := planner.Filter(scan, planner.Ge(planner.Col("y"), planner.Lit(2)))
	require.NoError(t, err)
	projected, err := planner.Project(filtered,
		planner.Col("x"),
		planner.Alias(planner.Times(planner.Col("y"), planner.Lit(0.5)), "half"))
	require.NoError(t, err)

	out, err := r.Run(context.Background(), projected)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"x": "b", "half": 1.0},
		{"x": "c", "half": 1.5},
	}, out.ToMaps())
}

func TestJoin(t *testing.T) {
	r := newTestRunner()
	people := register(t, r, "people", common.MustSchema(
		common.Field{Name: "id", Type: common.IntType},
		common.Field{Name: "name", Type: common.StringType},
	), []map[string]any{
		{"id": 1, "name": "ann"}, {"id": 2, "name": "bo"}, {"id": 3, "name": "cy"}, {"id": nil, "name": "nobody"},
	}, 2)
	orders := register(t, r, "orders", common.MustSchema(
		common.Field{Name: "id", Type: common.IntType},
		common.Field{Name: "name", Type: common.StringType},
	), []map[string]any{
		{"id": 1, "name": "pen"}, {"id": 1, "name": "ink"}, {"id": 3, "name": "pad"}, {"id": nil, "name": "lost"},
	}, 3)

	plan, err := planner.Join(people, orders, planner.Cols("id"), planner.Cols("id"), planner.InnerJoin)
	require.NoError(t, err)
	out, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumPartitions())
	assert.Equal(t, []map[string]any{
		{"id": int64(1), "name": "ann", "right.name": "ink"},
		{"id": int64(1), "name": "ann", "right.name": "pen"},
		{"id": int64(3), "name": "cy", "right.name": "pad"},
	}, sortedRows(out))
}

func TestSelfJoin(t *testing.T) {
	r := newTestRunner()
	scan := register(t, r, "t", xySchema, []map[string]any{
		{"x": "a", "y": 1}, {"x": "b", "y": 2},
	}, 2)
	doubled, err := planner.Project(scan, planner.Col("x"), planner.Alias(planner.Times(planner.Col("y"), planner.Lit(2)), "y2"))
	require.NoError(t, err)

	plan, err := planner.Join(doubled, doubled, planner.Cols("x"), planner.Cols("x"), planner.InnerJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y2", "right.y2"}, plan.OutputSchema().ColumnNames())

	out, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"x": "a", "y2": int64(2), "right.y2": int64(2)},
		{"x": "b", "y2": int64(4), "right.y2": int64(4)},
	}, sortedRows(out))
}

func TestExplode(t *testing.T) {
	r := newTestRunner()
	schema := common.MustSchema(
		common.Field{Name: "id", Type: common.IntType},
		common.Field{Name: "tags", Type: common.ListOf(common.StringType)},
	)
	scan := register(t, r, "t", schema, []map[string]any{
		{"id": 1, "tags": []any{"a", "b"}},
		{"id": 2, "tags": []any{}},
	}, 2)
	op, err := planner.NewExplodeOp(schema, planner.Cols("tags"))
	require.NoError(t, err)
	plan, err := planner.MapPartition(scan, op)
	require.NoError(t, err)

	out, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": int64(1), "tags": "a"},
		{"id": int64(1), "tags": "b"},
		{"id": int64(2), "tags": nil},
	}, out.ToMaps())
}

func TestRunErrors(t *testing.T) {
	r := newTestRunner()

	missing, err := planner.NewScanNode(planner.SourceDescriptor{Name: "m", Format: MemoryFormat, Location: "nowhere", NumPartitions: 1}, xySchema)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), missing)
	assert.True(t, common.IsErrorCode(err, common.NoSuchObjectError), "%v", err)

	parquet, err := planner.NewScanNode(planner.SourceDescriptor{Name: "p", Format: "parquet", Location: "/data/p", NumPartitions: 1}, xySchema)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), parquet)
	assert.True(t, common.IsErrorCode(err, common.NotSupportedError), "%v", err)

	http, err := planner.NewHTTPRequestNode(xySchema)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), http)
	assert.True(t, common.IsErrorCode(err, common.NotSupportedError), "%v", err)

	schema := common.MustSchema(
		common.Field{Name: "a", Type: common.ListOf(common.IntType)},
		common.Field{Name: "b", Type: common.ListOf(common.IntType)},
	)
	scan := register(t, r, "lists", schema, []map[string]any{{"a": []any{1, 2}, "b": []any{1}}}, 1)
	op, err := planner.NewExplodeOp(schema, planner.Cols("a", "b"))
	require.NoError(t, err)
	plan, err := planner.MapPartition(scan, op)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), plan)
	assert.True(t, common.IsErrorCode(err, common.ExecutionError), "%v", err)
}

func TestRunHonorsCancellation(t *testing.T) {
	r := newTestRunner()
	scan := register(t, r, "t", xySchema, []map[string]any{{"x": "a", "y": 1}}, 1)
	filtered, err := planner.Filter(scan, planner.Gt(planner.Col("y"), planner.Lit(0)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, filtered)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutionHashTable(t *testing.T) {
	ht := NewExecutionHashTable[int]()
	k := func(s string) storage.Tuple { return storage.FromValues(common.NewStringValue(s)) }

	ht.Insert(k("b"), 1)
	ht.Insert(k("a"), 2)
	ht.Insert(k("b"), 3)

	v, ok := ht.Get(k("b"))
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = ht.Get(k("c"))
	assert.False(t, ok)

	var order []string
	ht.Iterate(func(key storage.Tuple, _ int) {
		order = append(order, key.GetValue(0).StringValue())
	})
	assert.Equal(t, []string{"b", "a"}, order)
}
