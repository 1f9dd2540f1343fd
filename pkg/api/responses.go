package api

type CostBreakdown struct {
	InputRate  float64 `json:"input_rate"`
	OutputRate float64 `json:"output_rate"`
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
}

type CostResponse struct {
	Model     string        `json:"model"`
	Cost      float64       `json:"cost"`
	Currency  string        `json:"currency"`
	Usage     Usage         `json:"usage"`
	Breakdown CostBreakdown `json:"breakdown"`
	// RecordID is set when the cost was written to the ledger.
	RecordID string `json:"record_id,omitempty"`
}

type BatchCostResponse struct {
	Items []CostResponse     `json:"items"`
	Total map[string]float64 `json:"total"` // keyed by currency
}

type ConfigResponse struct {
	Model  string         `json:"model"`
	Params map[string]any `json:"params"`
}

type ListResponse[T any] struct {
	Object string `json:"object"`
	Data   []T    `json:"data"`
}

func NewList[T any](data []T) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Object: "list", Data: data}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Models  int    `json:"models"`
}
