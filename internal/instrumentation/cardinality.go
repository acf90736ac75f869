package instrumentation

// UnknownToolLabel replaces tool names outside the catalog in metric labels.
const UnknownToolLabel = "unknown"

// ToolLabel bounds the cardinality of the tool label. Clients can send any
// tool name; only names for which known returns true are kept verbatim.
func ToolLabel(name string, known func(string) bool) string {
	if known != nil && known(name) {
		return name
	}
	return UnknownToolLabel
}
