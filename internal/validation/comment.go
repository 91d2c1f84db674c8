package validation

import "github.com/residence-ops/residence-tickets/internal/domain"

var createCommentSchema = MustCompile("create comment", `{
	"type": "object",
	"properties": {
		"content": {"type": "string"}
	},
	"required": ["content"],
	"additionalProperties": false
}`)

// CreateCommentInput is a validated comment creation request.
type CreateCommentInput struct {
	Content string
}

// CreateComment validates a comment payload.
func CreateComment(payload any) (CreateCommentInput, error) {
	object, v, err := createCommentSchema.check(payload)
	if err != nil {
		return CreateCommentInput{}, err
	}

	content := v.text(object, "content", domain.ContentMaxLength)
	if err := v.err(); err != nil {
		return CreateCommentInput{}, err
	}
	return CreateCommentInput{Content: *content}, nil
}
