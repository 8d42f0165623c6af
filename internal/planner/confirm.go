package planner

// Confirmer gates destructive actions behind a user decision
type Confirmer interface {
	ConfirmDestructive(message string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(message string) bool

// ConfirmDestructive calls f
func (f ConfirmFunc) ConfirmDestructive(message string) bool {
	return f(message)
}

// AlwaysConfirm approves every action. Front ends use it once the user has
// already answered a prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

// NeverConfirm rejects every action
var NeverConfirm Confirmer = ConfirmFunc(func(string) bool { return false })

// Prompt records the message of a confirmation request and declines it,
// so the caller can ask the user and retry with AlwaysConfirm.
type Prompt struct {
	Message string
}

// ConfirmDestructive stores message and declines
func (p *Prompt) ConfirmDestructive(message string) bool {
	p.Message = message
	return false
}

func confirmed(c Confirmer, message string) bool {
	if c == nil {
		return false
	}
	return c.ConfirmDestructive(message)
}
