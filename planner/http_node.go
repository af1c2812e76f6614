package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// HTTPRequestNode is a leaf whose rows arrive from an HTTP request body. It only declares the
// request schema; a Runner decides whether it can serve it.
type HTTPRequestNode struct {
	basePlan
}

func NewHTTPRequestNode(schema *common.Schema) (*HTTPRequestNode, error) {
	if schema == nil || schema.NumFields() == 0 {
		return nil, common.Errorf(common.SchemaError, "http request declares no columns")
	}
	return &HTTPRequestNode{
		basePlan: basePlan{outputSchema: schema, partitioning: RandomPartitioning(1)},
	}, nil
}

func (n *HTTPRequestNode) Children() []PlanNode {
	return nil
}

func (n *HTTPRequestNode) String() string {
	return fmt.Sprintf("HTTPRequest: %s", n.outputSchema)
}
