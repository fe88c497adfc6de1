package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/normalize"
)

// Document is the exchange format for one chapter of questions.
type Document struct {
	ChapterName string  `json:"chapter_name" yaml:"chapter_name"`
	Questions   []Entry `json:"questions" yaml:"questions"`
}

type Entry struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// FormatFromContentType maps an HTTP Content-Type; anything that is not
// YAML is treated as JSON.
func FormatFromContentType(contentType string) Format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatJSON
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML
	}
	return FormatJSON
}

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["chapter_name", "questions"],
  "properties": {
    "chapter_name": {"type": "string", "minLength": 1},
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["question", "answer"],
        "properties": {
          "question": {"type": "string", "minLength": 1},
          "answer": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var compiledSchema = mustSchema(documentSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("importer: invalid document schema: " + err.Error())
	}
	return s
}

// Decode reads a document in the given format, checks it against the
// document schema and returns it. Any problem is a *ValidationError.
func Decode(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var raw any
	var node yaml.Node
	switch format {
	case FormatYAML:
		if err = yaml.Unmarshal(data, &node); err == nil && node.Kind != 0 {
			textScalars(&node)
			err = node.Decode(&raw)
		}
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("malformed %s: %v", format, err)}}
	}

	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &ValidationError{Problems: problems}
	}

	var doc Document
	switch format {
	case FormatYAML:
		err = node.Decode(&doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// textScalars retags plain YAML numbers, booleans and timestamps as strings
// so `answer: 4` reads as "4". The source text is kept, so 3.10 stays "3.10".
func textScalars(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		switch n.Tag {
		case "!!int", "!!float", "!!bool", "!!timestamp":
			n.Tag = "!!str"
		}
		return
	}
	for _, c := range n.Content {
		textScalars(c)
	}
}

// Validate reports every structural problem at once. Whitespace-only
// strings count as missing.
func (d *Document) Validate() error {
	var problems []string
	if normalize.IsBlank(d.ChapterName) {
		problems = append(problems, "chapter_name is required")
	}
	if len(d.Questions) == 0 {
		problems = append(problems, "questions must not be empty")
	}
	for i, e := range d.Questions {
		if normalize.IsBlank(e.Question) {
			problems = append(problems, fmt.Sprintf("questions[%d].question is required", i))
		}
		if normalize.IsBlank(e.Answer) {
			problems = append(problems, fmt.Sprintf("questions[%d].answer is required", i))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
