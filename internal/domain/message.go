package domain

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn sent to a backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ExpectedOutput decides where generated text goes.
type ExpectedOutput string

const (
	// OutputCommand re-injects the text into the input buffer.
	OutputCommand ExpectedOutput = "command"
	// OutputResponse prints the text as an answer.
	OutputResponse ExpectedOutput = "response"
)

// Operation names the session operation that issued a generation.
type Operation string

const (
	OperationAggregate Operation = "aggregate"
	OperationShell     Operation = "shell"
	OperationQuery     Operation = "query"
	OperationData      Operation = "data"
	OperationGeneral   Operation = "general"
	OperationAsk       Operation = "ask"
	OperationClassify  Operation = "classify"
)
