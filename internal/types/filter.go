package types

// FilterAction is the decision a content filter reaches on an input.
type FilterAction string

const (
	FilterPass  FilterAction = "pass"
	FilterFlag  FilterAction = "flag"
	FilterBlock FilterAction = "block"
)

// FilterInput is the resolved text of a flow together with who asked for it.
type FilterInput struct {
	TenantID string
	Flow     string
	Text     string
}

type FilterResult struct {
	Action     FilterAction
	FilterName string
	Message    string
	Detections int
}
