package domain

// InvalidInstruction pairs a decoded instruction with the validation
// errors that block it from execution.
type InvalidInstruction struct {
	Instruction TradingInstruction `json:"instruction"`
	Errors      []string           `json:"errors"`
}

// ParseResult is the complete outcome of decoding one model response.
// Instructions holds everything that was decoded, before any filtering;
// ValidInstructions and InvalidInstructions split the same set by
// validation outcome. ParseErrors records decoder-level failures that did
// not map to a particular instruction.
type ParseResult struct {
	Instructions        []TradingInstruction `json:"instructions"`
	ValidInstructions   []TradingInstruction `json:"valid_instructions"`
	InvalidInstructions []InvalidInstruction `json:"invalid_instructions"`
	ParseErrors         []string             `json:"parse_errors,omitempty"`
	RawResponse         string               `json:"raw_response"`
}
