package dto

// RunAgentRequest controls one batch runner invocation. OnlyPending defaults
// to true when omitted.
type RunAgentRequest struct {
	OnlyPending *bool `json:"onlyPending,omitempty"`
	Async       bool  `json:"async,omitempty"`
}
