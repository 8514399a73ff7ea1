// Package responder produces canned replies for requests the assistant
// cannot route to a real capability. Fallback replies score low on purpose,
// which feeds the confidence signals and, over consecutive turns, trips the
// fallback streak trigger.
package responder

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/rizki/eskala/internal/observability"
)

// Response is a canned reply plus the flag callers use to track fallback
// streaks.
type Response struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Responder routes requests to canned replies by keyword.
type Responder struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Responder {
	observability.EnsureRegistered()
	return &Responder{logger: logger.With().Str("component", "responder").Logger()}
}

// Respond picks a canned reply for the request. Every reply it produces is a
// fallback; callers with a real capability backend should only reach for
// this when that backend is unavailable.
func (r *Responder) Respond(request string) Response {
	lower := strings.ToLower(request)

	var text string
	switch {
	case containsAny(lower, "create", "make", "new"):
		if strings.Contains(lower, "board") {
			text = "I can help you create a new board! However, the capability backend is not " +
				"connected right now, so I cannot perform the creation for you."
		} else if containsAny(lower, "card", "task") {
			text = "I'd be happy to help create cards for your project! The capability backend " +
				"is not connected right now, so I cannot add them directly."
		} else {
			text = genericFallback
		}
	case containsAny(lower, "help", "what", "how"):
		text = "I'm your board assistant! I can help you with:\n\n" +
			"- Creating boards, lists, and cards\n" +
			"- Generating project-specific task suggestions\n" +
			"- Organizing and searching your boards\n" +
			"- Project management best practices\n\n" +
			"For full functionality, please connect the capability backend."
	default:
		text = genericFallback
	}

	observability.RecordFallbackResponse()
	r.logger.Debug().Str("request", request).Msg("Fallback response served")
	return Response{Text: text, Fallback: true}
}

const genericFallback = "I understand you'd like help with your boards. For the best assistance, " +
	"please ensure the capability backend is properly configured."

func containsAny(s string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}
