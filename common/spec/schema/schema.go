// Package schema holds the versioned JSON Schemas of the payloads Kaiwa
// sends to the bot platform. The outbound client checks every serialized
// payload against its schema after model validation and before it leaves
// the process, so a model that validates but marshals into an unexpected
// shape is caught locally.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed v1/*.json
var files embed.FS

// Name identifies one embedded schema.
type Name string

const (
	Message    Name = "message"
	Attachment Name = "attachment"
	Workflow   Name = "workflow"
)

// Names lists every embedded schema.
var Names = []Name{Message, Attachment, Workflow}

// ErrUnknownSchema is returned for a name that has no embedded schema.
var ErrUnknownSchema = errors.New("unknown schema")

const baseURL = "https://kaiwa.dev/schema/v1/"

var (
	compileOnce sync.Once
	compiled    map[Name]*jsonschema.Schema
	compileErr  error
)

func load() (map[Name]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		for _, n := range Names {
			data, err := files.ReadFile("v1/" + string(n) + ".json")
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", n, err)
				return
			}
			if err := c.AddResource(baseURL+string(n)+".json", bytes.NewReader(data)); err != nil {
				compileErr = fmt.Errorf("add schema %s: %w", n, err)
				return
			}
		}
		out := make(map[Name]*jsonschema.Schema, len(Names))
		for _, n := range Names {
			s, err := c.Compile(baseURL + string(n) + ".json")
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", n, err)
				return
			}
			out[n] = s
		}
		compiled = out
	})
	return compiled, compileErr
}

// ValidateJSON checks a serialized payload against the named schema.
func ValidateJSON(name Name, data []byte) error {
	schemas, err := load()
	if err != nil {
		return err
	}
	s, ok := schemas[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("schema %s: decode payload: %w", name, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}
	return nil
}

// Validate marshals v and checks it against the named schema.
func Validate(name Name, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("schema %s: marshal payload: %w", name, err)
	}
	return ValidateJSON(name, data)
}
