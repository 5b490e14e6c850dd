package schema_test

import (
	"errors"
	"testing"

	"github.com/bdobrica/Kaiwa/common/spec/calling"
	"github.com/bdobrica/Kaiwa/common/spec/messaging"
	"github.com/bdobrica/Kaiwa/common/spec/schema"
)

func TestSchemasCompile(t *testing.T) {
	for _, n := range schema.Names {
		// An empty object fails every schema but proves it compiled.
		err := schema.ValidateJSON(n, []byte(`{}`))
		if err == nil {
			t.Errorf("%s: want the empty object to be rejected", n)
		}
		if errors.Is(err, schema.ErrUnknownSchema) {
			t.Errorf("%s: not embedded", n)
		}
	}
}

func TestValidate_Models(t *testing.T) {
	for _, tc := range []struct {
		name schema.Name
		v    any
	}{
		{schema.Message, messaging.Text("hello")},
		{schema.Attachment, messaging.EncodeAttachment(messaging.AttachmentImage, "cat.png", []byte("png"), []byte("thumb"))},
		{schema.Workflow, calling.NewWorkflowFor("https://bot.example.com/cb",
			calling.AnswerWith(calling.ModalityAudio), calling.Play(calling.Say("hi")), calling.HangUp())},
	} {
		if err := schema.Validate(tc.name, tc.v); err != nil {
			t.Errorf("%s: %v", tc.name, err)
		}
	}
}

func TestValidateJSON_Rejects(t *testing.T) {
	for _, tc := range []struct {
		desc string
		name schema.Name
		doc  string
	}{
		{"empty content", schema.Message, `{"message":{"content":""}}`},
		{"extra field", schema.Message, `{"message":{"content":"hi"},"extra":1}`},
		{"bad base64", schema.Attachment, `{"originalBase64":"!!!!","type":"Image"}`},
		{"bad type", schema.Attachment, `{"originalBase64":"aGk=","type":"Audio"}`},
		{"no callback", schema.Workflow, `{"actions":[{"action":"hangup","operationId":"op"}],"links":{}}`},
		{"no operation id", schema.Workflow, `{"actions":[{"action":"hangup"}],"links":{"callback":"https://x"}}`},
		{"no actions", schema.Workflow, `{"actions":[],"links":{"callback":"https://x"}}`},
	} {
		if err := schema.ValidateJSON(tc.name, []byte(tc.doc)); err == nil {
			t.Errorf("%s: want an error", tc.desc)
		}
	}
}

func TestValidateJSON_Errors(t *testing.T) {
	if err := schema.ValidateJSON("contact", []byte(`{}`)); !errors.Is(err, schema.ErrUnknownSchema) {
		t.Errorf("unknown name: got %v, want ErrUnknownSchema", err)
	}
	if err := schema.ValidateJSON(schema.Message, []byte(`{`)); err == nil {
		t.Error("garbage: want a decode error")
	}
}
