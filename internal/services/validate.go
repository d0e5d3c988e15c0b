package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lojf/pairsurvey/internal/joincode"
	"github.com/lojf/pairsurvey/internal/models"
)

// ParticipantInput is the profile a participant supplies on initiate or join.
type ParticipantInput struct {
	Name   string      `json:"name" validate:"required"`
	Age    int         `json:"age" validate:"gt=0"`
	Gender string      `json:"gender" validate:"required"`
	Role   models.Role `json:"role" validate:"required,oneof=Parent Child"`
}

// AnswerInput is one answered value; multi-select questions are already
// flattened into several inputs sharing QuestionID.
type AnswerInput struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (in ParticipantInput) normalized() ParticipantInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Role = models.Role(strings.TrimSpace(string(in.Role)))
	return in
}

// Validate trims the profile and checks it, returning an invalid ServiceError.
func (in ParticipantInput) Validate() (ParticipantInput, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return in, validationError(err)
	}
	return in, nil
}

// NormJoinCode trims and upper-cases a user-typed join code.
func NormJoinCode(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if !joincode.Valid(code) {
		return "", NewInvalidError("join code must be 6 characters")
	}
	return code, nil
}

// normalizeAnswers trims every answer, validates it and drops exact
// duplicates so a submission never collides with itself.
func normalizeAnswers(in []AnswerInput) ([]AnswerInput, error) {
	out := make([]AnswerInput, 0, len(in))
	seen := make(map[AnswerInput]struct{}, len(in))
	for i, a := range in {
		a.QuestionID = strings.TrimSpace(a.QuestionID)
		a.Answer = strings.TrimSpace(a.Answer)
		if err := validate.Struct(a); err != nil {
			return nil, NewInvalidError(fmt.Sprintf("answers[%d]: %s", i, validationError(err).Error()))
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

// FlattenAnswer expands a multi-select answer into one input per option.
func FlattenAnswer(questionID string, values []string) []AnswerInput {
	out := make([]AnswerInput, 0, len(values))
	for _, v := range values {
		out = append(out, AnswerInput{QuestionID: questionID, Answer: v})
	}
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewInvalidError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return NewInvalidError(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be a positive integer"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
