// ABOUTME: Defines Result - what a tool reports for one execution: its output
// ABOUTME: text and whether the tool itself flagged the execution as failed.
package tool

// Result is the outcome a tool reports. IsError marks a failure reported by
// the tool rather than by the transport; the router turns it into an
// InvocationError wrapping ErrToolReported.
type Result struct {
	ToolName string
	Output   string
	IsError  bool
}

// NewResult creates a successful Result.
func NewResult(toolName, output string) *Result {
	return &Result{ToolName: toolName, Output: output}
}

// NewErrorResult creates a Result the tool reported as failed.
func NewErrorResult(toolName, message string) *Result {
	return &Result{ToolName: toolName, Output: message, IsError: true}
}
