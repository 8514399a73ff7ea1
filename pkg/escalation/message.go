package escalation

const messagePreamble = "I understand you need additional assistance. "

// Message renders the user-facing handoff text for an escalated decision.
// Non-escalated decisions have no message.
func (d Decision) Message() string {
	if !d.ShouldEscalate {
		return ""
	}
	switch d.Type {
	case TypeSensitiveContent:
		return messagePreamble + "This appears to be a sensitive issue that requires " +
			"human attention. A support specialist will review your request."
	case TypeUserRequested:
		return messagePreamble + "I'll connect you with a human assistant who can " +
			"provide more personalized help."
	case TypeLowConfidence:
		return messagePreamble + "I want to make sure you get the best help possible. " +
			"Let me connect you with someone who can better assist with your request."
	case TypeRepeatedAttempts:
		return messagePreamble + "I notice we've been working on this together. " +
			"A human assistant can provide a fresh perspective."
	default:
		return messagePreamble + "For the best assistance, " +
			"I'll escalate this to a human specialist."
	}
}
