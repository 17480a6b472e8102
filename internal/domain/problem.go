package domain

// Problem is a structured, user-facing validation or execution failure.
// Error carries a fixed message; Context optionally narrows it (a column name,
// a file path).
type Problem struct {
	Error   string  `json:"error"`
	Context *string `json:"context,omitempty"`
}

// NewProblem builds a Problem without context.
func NewProblem(msg string) Problem {
	return Problem{Error: msg}
}

// NewProblemCtx builds a Problem with context.
func NewProblemCtx(msg, ctx string) Problem {
	return Problem{Error: msg, Context: &ctx}
}
