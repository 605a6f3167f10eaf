package model

// Command is a parsed editor command: `<scope> <operation> [args...]`.
type Command struct {
	Scope     string
	Operation string
	Args      []string
}
