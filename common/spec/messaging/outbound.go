package messaging

import (
	"encoding/base64"

	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// Limits imposed by the remote service. They must track its documented
// values and are not configurable.
const (
	MaxMessageSize    = 1024000
	MaxAttachmentSize = 20971520

	// attachmentEnvelope approximates the JSON punctuation and field names
	// surrounding the base64 payloads of an AttachmentToSend.
	attachmentEnvelope = 96
)

// MessageContent is the body of an outbound message.
type MessageContent struct {
	rules.Decoded

	Content *string `json:"content,omitempty"`
}

// NewMessageContent builds a MessageContent from an untyped JSON object.
func NewMessageContent(src map[string]any) (*MessageContent, error) {
	c := &MessageContent{}
	f := rules.Read(src)
	f.String("content", &c.Content)
	c.SetDecodeProblems(f.Problems())
	return c, f.Err()
}

// Validate implements rules.Validator.
func (c *MessageContent) Validate() []string {
	errs := append([]string(nil), c.DecodeProblems()...)
	return append(errs, rules.ByteLength("content", c.Content, 1, MaxMessageSize)...)
}

// MessageToSend is the payload of an outbound text message.
type MessageToSend struct {
	rules.Decoded

	Message *MessageContent `json:"message,omitempty"`
}

// NewMessageToSend builds a MessageToSend from an untyped JSON object.
func NewMessageToSend(src map[string]any) (*MessageToSend, error) {
	m := &MessageToSend{}
	f := rules.Read(src)
	rules.Nested(f, "message", &m.Message, NewMessageContent)
	m.SetDecodeProblems(f.Problems())
	return m, f.Err()
}

// Text returns a MessageToSend carrying content.
func Text(content string) *MessageToSend {
	return &MessageToSend{Message: &MessageContent{Content: &content}}
}

// Validate implements rules.Validator.
func (m *MessageToSend) Validate() []string {
	errs := append([]string(nil), m.DecodeProblems()...)
	return append(errs, rules.Object("message", m.Message)...)
}

// AttachmentToSend is the payload of an attachment upload. Binary content is
// carried base64 encoded.
type AttachmentToSend struct {
	rules.Decoded

	OriginalBase64  *string         `json:"originalBase64,omitempty"`
	ThumbnailBase64 *string         `json:"thumbnailBase64,omitempty"`
	Type            *AttachmentType `json:"type,omitempty"`
	Name            *string         `json:"name,omitempty"`
}

// NewAttachmentToSend builds an AttachmentToSend from an untyped JSON object.
func NewAttachmentToSend(src map[string]any) (*AttachmentToSend, error) {
	a := &AttachmentToSend{}
	f := rules.Read(src)
	f.String("originalBase64", &a.OriginalBase64)
	f.String("thumbnailBase64", &a.ThumbnailBase64)
	rules.ReadEnum(f, "type", &a.Type)
	f.String("name", &a.Name)
	a.SetDecodeProblems(f.Problems())
	return a, f.Err()
}

// EncodeAttachment base64-encodes original (and thumbnail, when non-nil) into
// an AttachmentToSend.
func EncodeAttachment(typ AttachmentType, name string, original, thumbnail []byte) *AttachmentToSend {
	orig := base64.StdEncoding.EncodeToString(original)
	a := &AttachmentToSend{OriginalBase64: &orig, Type: &typ}
	if thumbnail != nil {
		thumb := base64.StdEncoding.EncodeToString(thumbnail)
		a.ThumbnailBase64 = &thumb
	}
	if name != "" {
		a.Name = &name
	}
	return a
}

// EstimatedSize approximates the serialized size of the upload without
// encoding it.
func (a *AttachmentToSend) EstimatedSize() int {
	n := attachmentEnvelope
	for _, s := range []*string{a.OriginalBase64, a.ThumbnailBase64, a.Name} {
		if s != nil {
			n += len(*s)
		}
	}
	if a.Type != nil {
		n += len(*a.Type)
	}
	return n
}

// Validate implements rules.Validator.
func (a *AttachmentToSend) Validate() []string {
	errs := append([]string(nil), a.DecodeProblems()...)
	errs = append(errs, rules.Base64("originalBase64", a.OriginalBase64, MaxAttachmentSize)...)
	errs = append(errs, rules.OptionalBase64("thumbnailBase64", a.ThumbnailBase64, MaxAttachmentSize)...)
	errs = append(errs, rules.Enum("type", a.Type, AttachmentTypes)...)
	errs = append(errs, rules.OptionalString("name", a.Name, rules.StringOpts{})...)
	if size := a.EstimatedSize(); size > MaxAttachmentSize {
		errs = append(errs, "attachment must serialize to at most 20971520 bytes")
	}
	return errs
}

// AttachmentResponse is returned by the service after an upload.
type AttachmentResponse struct {
	rules.Decoded

	ID *string `json:"id,omitempty"`
}

// NewAttachmentResponse builds an AttachmentResponse from a response body
// decoded into an untyped JSON object.
func NewAttachmentResponse(src map[string]any) (*AttachmentResponse, error) {
	r := &AttachmentResponse{}
	f := rules.Read(src)
	f.String("id", &r.ID)
	r.SetDecodeProblems(f.Problems())
	return r, f.Err()
}

// Validate implements rules.Validator.
func (r *AttachmentResponse) Validate() []string {
	errs := append([]string(nil), r.DecodeProblems()...)
	return append(errs, rules.String("id", r.ID, rules.StringOpts{})...)
}

// AttachmentInfo describes a stored attachment and its renditions.
type AttachmentInfo struct {
	rules.Decoded

	Name  *string               `json:"name,omitempty"`
	Type  *AttachmentType       `json:"type,omitempty"`
	Views []*AttachmentViewInfo `json:"views,omitempty"`
}

// NewAttachmentInfo builds an AttachmentInfo from a response body decoded
// into an untyped JSON object.
func NewAttachmentInfo(src map[string]any) (*AttachmentInfo, error) {
	i := &AttachmentInfo{}
	f := rules.Read(src)
	f.String("name", &i.Name)
	rules.ReadEnum(f, "type", &i.Type)
	rules.NestedList(f, "views", &i.Views, NewAttachmentViewInfo)
	i.SetDecodeProblems(f.Problems())
	return i, f.Err()
}

// Validate implements rules.Validator.
func (i *AttachmentInfo) Validate() []string {
	errs := append([]string(nil), i.DecodeProblems()...)
	errs = append(errs, rules.OptionalString("name", i.Name, rules.StringOpts{})...)
	errs = append(errs, rules.Enum("type", i.Type, AttachmentTypes)...)
	errs = append(errs, rules.ObjectArray("views", i.Views, rules.ArrayOpts{})...)
	return errs
}
