package messaging

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// AttachmentType is the media type of an attachment.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "Image"
	AttachmentVideo AttachmentType = "Video"
)

// AttachmentTypes lists the supported attachment media types.
var AttachmentTypes = []AttachmentType{AttachmentImage, AttachmentVideo}

// ViewID names one rendition of an attachment.
type ViewID string

const (
	ViewOriginal  ViewID = "original"
	ViewThumbnail ViewID = "thumbnail"
)

// ViewIDs lists the renditions the platform serves.
var ViewIDs = []ViewID{ViewOriginal, ViewThumbnail}

// AttachmentViewInfo describes one downloadable rendition of an attachment.
type AttachmentViewInfo struct {
	rules.Decoded

	ViewID *ViewID `json:"view_id,omitempty"`
	Size   *int    `json:"size,omitempty"`
}

// NewAttachmentViewInfo builds an AttachmentViewInfo from an untyped JSON object.
func NewAttachmentViewInfo(src map[string]any) (*AttachmentViewInfo, error) {
	v := &AttachmentViewInfo{}
	f := rules.Read(src)
	rules.ReadEnum(f, "view_id", &v.ViewID)
	f.Int("size", &v.Size)
	v.SetDecodeProblems(f.Problems())
	return v, f.Err()
}

// Validate implements rules.Validator.
func (v *AttachmentViewInfo) Validate() []string {
	errs := append([]string(nil), v.DecodeProblems()...)
	errs = append(errs, rules.Enum("view_id", v.ViewID, ViewIDs)...)
	errs = append(errs, rules.Number("size", v.Size, 0, MaxAttachmentSize)...)
	return errs
}

// Attachment announces media shared with the bot. The media itself is
// fetched separately through the views it lists.
type Attachment struct {
	Base

	ID    *string               `json:"id,omitempty"`
	Type  *AttachmentType       `json:"type,omitempty"`
	Name  *string               `json:"name,omitempty"`
	Views []*AttachmentViewInfo `json:"views,omitempty"`
}

// NewAttachment builds an Attachment from an untyped JSON object.
func NewAttachment(src map[string]any) (*Attachment, error) {
	a := &Attachment{Base: Base{Kind: KindAttachment}}
	f := rules.Read(src)
	a.read(f)
	f.String("id", &a.ID)
	rules.ReadEnum(f, "type", &a.Type)
	f.String("name", &a.Name)
	rules.NestedList(f, "views", &a.Views, NewAttachmentViewInfo)
	a.SetDecodeProblems(f.Problems())
	return a, f.Err()
}

// Validate implements rules.Validator.
func (a *Attachment) Validate() []string {
	errs := a.Base.Validate()
	errs = append(errs, rules.String("id", a.ID, rules.StringOpts{})...)
	errs = append(errs, rules.Enum("type", a.Type, AttachmentTypes)...)
	errs = append(errs, rules.OptionalString("name", a.Name, rules.StringOpts{})...)
	errs = append(errs, rules.ObjectArray("views", a.Views, rules.ArrayOpts{})...)
	errs = append(errs, a.checkKind(KindAttachment)...)
	return errs
}

// View returns the rendition with the given id, or nil.
func (a *Attachment) View(id ViewID) *AttachmentViewInfo {
	for _, v := range a.Views {
		if v != nil && v.ViewID != nil && *v.ViewID == id {
			return v
		}
	}
	return nil
}
