package mutation

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/heavy-duty/docstate/docstore"
)

const emptyJSONObject = "{}"

// Message is a failure text shown to the user verbatim. Actions return it as an error.
type Message string

func (m Message) Error() string {
	return string(m)
}

// Classifier turns any failure into a user-facing message:
//
//  1. a string or Message is used verbatim
//  2. a *docstore.Error uses the sentence known for its code, or the fallback sentence
//  3. anything else is rendered as JSON; when that yields "{}" or fails, an error's Error() text is used
type Classifier struct {
	known    map[docstore.Code]string
	fallback string
}

// NewClassifier creates a Classifier with a fallback sentence and optional code sentences.
func NewClassifier(fallback string, known map[docstore.Code]string) Classifier {
	codes := make(map[docstore.Code]string, len(known))
	for code, sentence := range known {
		codes[code] = sentence
	}

	return Classifier{known: codes, fallback: fallback}
}

// Fallback returns the sentence used for codes without a known sentence.
func (c Classifier) Fallback() string {
	return c.fallback
}

// Classify returns the message for failure.
func (c Classifier) Classify(failure any) string {
	switch v := failure.(type) {
	case string:
		return v
	case Message:
		return string(v)
	}

	if err, ok := failure.(error); ok {
		var message Message
		if errors.As(err, &message) {
			return string(message)
		}

		var docErr *docstore.Error
		if errors.As(err, &docErr) && docErr.Code != "" {
			if sentence, known := c.known[docErr.Code]; known {
				return sentence
			}

			return c.fallback
		}
	}

	return render(failure)
}

func render(failure any) string {
	rendered, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(failure)
	if err == nil && rendered != emptyJSONObject {
		return rendered
	}

	if asErr, ok := failure.(error); ok {
		return asErr.Error()
	}

	if err != nil {
		return fmt.Sprintf("%v", failure)
	}

	return rendered
}

// errorType labels a failure for metrics and spans.
func errorType(failure any) string {
	switch v := failure.(type) {
	case string, Message:
		return "message"
	case error:
		return string(docstore.CodeOf(v))
	default:
		return "panic"
	}
}
