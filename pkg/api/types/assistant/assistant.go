package assistant

import (
	"errors"
	"fmt"
	"strings"

	apibooks "github.com/opst/libris/pkg/api/types/books"
	"github.com/opst/libris/pkg/assistant"
	"github.com/opst/libris/pkg/utils"
)

var ErrInvalidRequest = errors.New("invalid request")

// MaxMessageLength is the longest chat message accepted, in bytes.
const MaxMessageLength = 4000

type Turn struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`
	Text string `json:"text"`
}

type ChatRequest struct {
	Message string `json:"message"`

	// History is the conversation so far, oldest first.
	History []Turn `json:"history"`
}

// Turns validates the request and returns the message and the history.
func (r ChatRequest) Turns() (string, []assistant.Turn, error) {
	message := strings.TrimSpace(r.Message)
	if message == "" {
		return "", nil, fmt.Errorf(`%w: "message" is required`, ErrInvalidRequest)
	}
	if MaxMessageLength < len(message) {
		return "", nil, fmt.Errorf(
			`%w: "message" should be %d bytes or shorter`, ErrInvalidRequest, MaxMessageLength,
		)
	}

	history := make([]assistant.Turn, 0, len(r.History))
	for i, t := range r.History {
		switch t.Role {
		case assistant.RoleUser, assistant.RoleAssistant:
		default:
			return "", nil, fmt.Errorf(
				`%w: history[%d]: "role" should be "user" or "assistant"`, ErrInvalidRequest, i,
			)
		}
		history = append(history, assistant.Turn{Role: t.Role, Text: t.Text})
	}
	return message, history, nil
}

type ChatResponse struct {
	Answer string `json:"answer"`

	// Books are catalog entries the answer is based on.
	Books []apibooks.Book `json:"books"`
}

func ComposeAnswer(a assistant.Answer) ChatResponse {
	return ChatResponse{
		Answer: a.Text,
		Books:  utils.Map(a.Books, apibooks.ComposeBook),
	}
}

type Recommendation struct {
	Book  apibooks.Book `json:"book"`
	Score float64       `json:"score"`
}

type Recommendations struct {
	// Method is "embedding" or "categories".
	Method string           `json:"method"`
	Items  []Recommendation `json:"items"`
}

func ComposeRecommendations(r assistant.Recommendations) Recommendations {
	return Recommendations{
		Method: string(r.Method),
		Items: utils.Map(r.Items, func(i assistant.Recommendation) Recommendation {
			return Recommendation{Book: apibooks.ComposeBook(i.Book), Score: i.Score}
		}),
	}
}
