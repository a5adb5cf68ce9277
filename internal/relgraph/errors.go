package relgraph

import "fmt"

// ValidationError reports a malformed relationship fact, including
// composite-key facts whose parent and child column lists differ in length.
type ValidationError struct {
	Child  string
	Parent string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid relationship %s -> %s: %s", e.Child, e.Parent, e.Reason)
}

// GraphCycleError reports a cycle in the many-to-one subgraph. Child and
// Parent name one edge on the cycle.
type GraphCycleError struct {
	Child  string
	Parent string
}

func (e *GraphCycleError) Error() string {
	return fmt.Sprintf("many-to-one cycle through %s -> %s blocks root resolution", e.Child, e.Parent)
}
