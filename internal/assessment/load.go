package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const questionSetSchemaURL = "prodiplan://question-set.json"

// questionSetSchemaJSON is the schema every external question file must satisfy.
const questionSetSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["questions"],
  "additionalProperties": false,
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "prompt"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "prompt": {"type": "string", "minLength": 1},
          "placeholder": {"type": "string"},
          "tip": {"type": "string"}
        }
      }
    }
  }
}`

var questionSetSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(questionSetSchemaJSON), &doc); err != nil {
		panic(fmt.Sprintf("parse question set schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(questionSetSchemaURL, doc); err != nil {
		panic(fmt.Sprintf("add question set schema: %v", err))
	}
	s, err := c.Compile(questionSetSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("compile question set schema: %v", err))
	}
	return s
}

type questionFile struct {
	Questions []Question `json:"questions"`
}

// LoadQuestions reads a question set from a JSON file of the form {"questions": [...]}.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}
	return ParseQuestions(data)
}

// ParseQuestions validates raw JSON against the question set schema and decodes it.
func ParseQuestions(data []byte) ([]Question, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidQuestionSet, err)
	}
	if err := questionSetSchema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestionSet, err)
	}

	var qf questionFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&qf); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidQuestionSet, err)
	}
	if err := ValidateQuestions(qf.Questions); err != nil {
		return nil, err
	}
	return qf.Questions, nil
}
