package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mit.edu/dsg/godf/common"
)

func makeScan(t *testing.T, numPartitions int, fields ...common.Field) PlanNode {
	t.Helper()
	src := SourceDescriptor{Name: "t", Format: "memory", Location: "t", NumPartitions: numPartitions}
	n, err := NewScanNode(src, common.MustSchema(fields...))
	require.NoError(t, err)
	return n
}

func xyScan(t *testing.T, numPartitions int) PlanNode {
	return makeScan(t, numPartitions,
		common.Field{Name: "x", Type: common.StringType},
		common.Field{Name: "y", Type: common.IntType},
	)
}

func TestScanNode(t *testing.T) {
	scan := xyScan(t, 4)
	assert.Equal(t, []string{"x", "y"}, scan.OutputSchema().ColumnNames())
	assert.Equal(t, RandomPartitioning(4), scan.Partitioning())
	assert.Empty(t, scan.Children())

	_, err := NewScanNode(SourceDescriptor{Name: "t", NumPartitions: 0}, scan.OutputSchema())
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
	_, err = NewScanNode(SourceDescriptor{Name: "t", NumPartitions: 1}, common.MustSchema())
	assert.True(t, common.IsErrorCode(err, common.SchemaError))
}

func TestProjectionSchema(t *testing.T) {
	scan := xyScan(t, 3)

	tests := []struct {
		name    string
		exprs   []Expr
		want    []common.Field
		errCode common.GoDFErrorCode
	}{
		{
			name:  "declared order",
			exprs: []Expr{Col("y"), Col("x")},
			want:  []common.Field{{Name: "y", Type: common.IntType}, {Name: "x", Type: common.StringType}},
		},
		{
			name:  "computed column",
			exprs: []Expr{Col("x"), Alias(Times(Col("y"), Lit(1.5)), "z")},
			want:  []common.Field{{Name: "x", Type: common.StringType}, {Name: "z", Type: common.FloatType}},
		},
		{name: "duplicate names", exprs: []Expr{Col("x"), Col("x")}, errCode: common.SchemaError},
		{name: "unnamed literal", exprs: []Expr{Lit(1)}, errCode: common.SchemaError},
		{name: "missing column", exprs: []Expr{Col("q")}, errCode: common.SchemaError},
		{name: "empty", exprs: nil, errCode: common.SchemaError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Project(scan, tt.exprs...)
			if tt.want == nil {
				require.Error(t, err)
				assert.Nil(t, n)
				assert.True(t, common.IsErrorCode(err, tt.errCode), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.OutputSchema().Fields())
			assert.Equal(t, scan.Partitioning(), n.Partitioning())
		})
	}
}

func TestUnaryNodesPreserveSchemaAndPartitioning(t *testing.T) {
	scan := xyScan(t, 3)
	hashed, err := NewRepartitionNode(scan, 5, NewExprProjection(Col("x")), PartitionHash)
	require.NoError(t, err)

	filter, err := Filter(hashed, Gt(Col("y"), Lit(1)))
	require.NoError(t, err)
	sorted, err := Sort(hashed, Col("y"), true)
	require.NoError(t, err)
	limited, err := Limit(hashed, 10)
	require.NoError(t, err)

	for _, n := range []PlanNode{filter, sorted, limited} {
		assert.True(t, hashed.OutputSchema().Equal(n.OutputSchema()), n.String())
		assert.Equal(t, hashed.Partitioning(), n.Partitioning(), n.String())
	}

	global, ok := limited.(*GlobalLimitNode)
	require.True(t, ok)
	_, ok = global.Child.(*LocalLimitNode)
	assert.True(t, ok, "limit expands to local then global")
}

func TestFilterRequiresBool(t *testing.T) {
	_, err := Filter(xyScan(t, 1), Col("y"))
	assert.True(t, common.IsErrorCode(err, common.SchemaError))
}

func TestSingleKeyRestrictions(t *testing.T) {
	scan := xyScan(t, 2)

	_, err := NewSortNode(scan, []OrderByClause{{Expr: Col("x")}, {Expr: Col("y")}})
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))

	_, err = Repartition(scan, 4, []Expr{Col("x"), Col("y")}, PartitionHash)
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))

	_, err = Limit(scan, -1)
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
}

func TestRepartitionAndCoalesce(t *testing.T) {
	scan := xyScan(t, 4)

	random, err := Repartition(scan, 8, nil, PartitionRandom)
	require.NoError(t, err)
	assert.Equal(t, RandomPartitioning(8), random.Partitioning())

	hashed, err := Repartition(scan, 2, []Expr{Col("x")}, PartitionHash)
	require.NoError(t, err)
	assert.Equal(t, PartitionHash, hashed.Partitioning().Scheme)
	assert.Equal(t, 2, hashed.NumPartitions())
	assert.True(t, hashed.Partitioning().IsHashOn([]string{"x"}))

	_, err = Repartition(scan, 2, nil, PartitionHash)
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
	_, err = Repartition(scan, 2, []Expr{Col("x")}, PartitionRandom)
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
	_, err = Repartition(scan, 0, nil, PartitionRandom)
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))

	one, err := Coalesce(scan, 1)
	require.NoError(t, err)
	assert.Equal(t, RandomPartitioning(1), one.Partitioning())
	_, err = Coalesce(scan, 5)
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
}

func TestJoinSchema(t *testing.T) {
	left := makeScan(t, 3,
		common.Field{Name: "id", Type: common.IntType},
		common.Field{Name: "v", Type: common.StringType},
	)
	right := makeScan(t, 2,
		common.Field{Name: "id", Type: common.IntType},
		common.Field{Name: "v", Type: common.FloatType},
		common.Field{Name: "w", Type: common.BoolType},
	)

	n, err := Join(left, right, Cols("id"), Cols("id"), InnerJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "v", "right.v", "w"}, n.OutputSchema().ColumnNames())
	assert.Equal(t, 3, n.NumPartitions())
	assert.True(t, n.Partitioning().IsHashOn([]string{"id"}))
	assert.Equal(t, []int{1, 2}, n.(*JoinNode).RightOutput)

	other := makeScan(t, 2,
		common.Field{Name: "key", Type: common.IntType},
		common.Field{Name: "w", Type: common.BoolType},
	)
	n, err = Join(left, other, Cols("id"), Cols("key"), InnerJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "v", "key", "w"}, n.OutputSchema().ColumnNames())
}

func TestJoinErrors(t *testing.T) {
	left := xyScan(t, 2)
	right := xyScan(t, 2)

	tests := []struct {
		name      string
		leftKeys  []Expr
		rightKeys []Expr
		how       JoinType
		code      common.GoDFErrorCode
	}{
		{"unsupported type", Cols("x"), Cols("x"), JoinType(7), common.ConfigurationError},
		{"no keys", nil, nil, InnerJoin, common.ConfigurationError},
		{"key count mismatch", Cols("x"), Cols("x", "y"), InnerJoin, common.ConfigurationError},
		{"key type mismatch", Cols("x"), Cols("y"), InnerJoin, common.SchemaError},
		{"missing key", Cols("x"), Cols("z"), InnerJoin, common.SchemaError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Join(left, right, tt.leftKeys, tt.rightKeys, tt.how)
			assert.Nil(t, n)
			assert.True(t, common.IsErrorCode(err, tt.code), "%v", err)
		})
	}

	_, err := ParseJoinType("left")
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
	how, err := ParseJoinType("Inner")
	require.NoError(t, err)
	assert.Equal(t, InnerJoin, how)
}

func TestLocalAggregateNode(t *testing.T) {
	scan := xyScan(t, 3)

	n, err := NewLocalAggregateNode(scan, []AggregateClause{
		{Expr: Alias(Sum(Col("y")), "total"), Kind: AggSum},
		{Expr: Count(Col("y")), Kind: AggCount},
	}, NewExprProjection(Col("x")))
	require.NoError(t, err)
	assert.Equal(t, []common.Field{
		{Name: "x", Type: common.StringType},
		{Name: "total", Type: common.IntType},
		{Name: "y", Type: common.IntType},
	}, n.OutputSchema().Fields())
	assert.Equal(t, RandomPartitioning(3), n.Partitioning())

	_, err = NewLocalAggregateNode(scan, nil, NewExprProjection())
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
	_, err = NewLocalAggregateNode(scan, []AggregateClause{{Expr: Col("y"), Kind: AggSum}}, NewExprProjection())
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
	_, err = NewLocalAggregateNode(scan, []AggregateClause{{Expr: Sum(Col("y")), Kind: AggMax}}, NewExprProjection())
	assert.True(t, common.IsErrorCode(err, common.ConfigurationError))
}

func TestHTTPRequestNode(t *testing.T) {
	n, err := NewHTTPRequestNode(common.MustSchema(common.Field{Name: "body", Type: common.StringType}))
	require.NoError(t, err)
	assert.Equal(t, 1, n.NumPartitions())

	_, err = NewHTTPRequestNode(nil)
	assert.True(t, common.IsErrorCode(err, common.SchemaError))
}

func TestExplain(t *testing.T) {
	scan := xyScan(t, 2)
	filter, err := Filter(scan, Gt(Col("y"), Lit(0)))
	require.NoError(t, err)

	out := Explain(filter)
	assert.Contains(t, out, "Filter: (col(y) > lit(0))")
	assert.Contains(t, out, "  -> Scan: memory(t, t)")
	assert.Contains(t, out, "{x: string, y: int}")
}

func TestProjectionHashPartitioning(t *testing.T) {
	hashed, err := Repartition(xyScan(t, 3), 4, Cols("x"), PartitionHash)
	require.NoError(t, err)

	tests := []struct {
		name  string
		exprs []Expr
		kept  bool
	}{
		{"key passed through", []Expr{Col("x"), Col("y")}, true},
		{"key moved", []Expr{Col("y"), Col("x")}, true},
		{"key dropped", []Expr{Col("y")}, false},
		{"key name reused", []Expr{Alias(Col("y"), "x")}, false},
		{"key recomputed", []Expr{Alias(Plus(Col("y"), Lit(1)), "x"), Col("y")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Project(hashed, tt.exprs...)
			require.NoError(t, err)
			if !tt.kept {
				assert.Equal(t, RandomPartitioning(4), n.Partitioning())
				return
			}
			p := n.Partitioning()
			assert.True(t, p.IsHashOn([]string{"x"}))
			assert.Equal(t, 4, p.NumPartitions)
			// the key is bound to its offset in the projection output
			idx, _ := n.OutputSchema().IndexOf("x")
			assert.Equal(t, idx, p.PartitionBy.Expr(0).(*ColumnExpr).fieldOffset)
		})
	}
}
