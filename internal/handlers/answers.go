package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lojf/pairsurvey/internal/services"
)

// answerValue accepts either a single string or a list of strings.
type answerValue []string

func (v *answerValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var many []string
		if err := json.Unmarshal(b, &many); err != nil {
			return errors.New("answer must be a string or a list of strings")
		}
		*v = many
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return errors.New("answer must be a string or a list of strings")
	}
	*v = answerValue{one}
	return nil
}

type submitRequest struct {
	Answers []struct {
		QuestionID string      `json:"questionId"`
		Answer     answerValue `json:"answer"`
	} `json:"answers"`
}

// flatten expands multi-select answers into one input per option.
func (req submitRequest) flatten() ([]services.AnswerInput, error) {
	if req.Answers == nil {
		return nil, services.NewInvalidError("answers is required")
	}
	out := make([]services.AnswerInput, 0, len(req.Answers))
	for i, a := range req.Answers {
		if len(a.Answer) == 0 {
			return nil, services.NewInvalidError(fmt.Sprintf("answers[%d]: answer is required", i))
		}
		out = append(out, services.FlattenAnswer(a.QuestionID, a.Answer)...)
	}
	return out, nil
}
