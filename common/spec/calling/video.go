package calling

import (
	"github.com/bdobrica/Kaiwa/common/spec/rules"
)

// VideoSubscription asks the service to stream a participant's video to the
// bot's media socket.
type VideoSubscription struct {
	ActionBase

	ParticipantIdentity   *string                `json:"participantIdentity,omitempty"`
	VideoModality         *Modality              `json:"videoModality,omitempty"`
	VideoSubscriptionMode *VideoSubscriptionMode `json:"videoSubscriptionMode,omitempty"`
	SocketID              *int                   `json:"socketId,omitempty"`
	VideoResolution       *VideoResolution       `json:"videoResolution,omitempty"`
}

// NewVideoSubscription builds a VideoSubscription from an untyped JSON object.
func NewVideoSubscription(src map[string]any) (*VideoSubscription, error) {
	v := &VideoSubscription{ActionBase: newActionBase(ActionVideoSubscription)}
	f := rules.Read(src)
	v.read(f)
	f.String("participantIdentity", &v.ParticipantIdentity)
	rules.ReadEnum(f, "videoModality", &v.VideoModality)
	rules.ReadEnum(f, "videoSubscriptionMode", &v.VideoSubscriptionMode)
	f.Int("socketId", &v.SocketID)
	rules.ReadEnum(f, "videoResolution", &v.VideoResolution)
	v.SetDecodeProblems(f.Problems())
	return v, f.Err()
}

// Validate implements rules.Validator.
func (v *VideoSubscription) Validate() []string {
	errs := v.ActionBase.Validate()
	errs = append(errs, rules.OptionalString("participantIdentity", v.ParticipantIdentity, rules.StringOpts{})...)
	errs = append(errs, rules.OptionalEnum("videoModality", v.VideoModality, Modalities)...)
	errs = append(errs, rules.Enum("videoSubscriptionMode", v.VideoSubscriptionMode, VideoSubscriptionModes)...)
	errs = append(errs, rules.OptionalNumber("socketId", v.SocketID, 0, 1<<16)...)
	errs = append(errs, rules.OptionalEnum("videoResolution", v.VideoResolution, VideoResolutions)...)

	hasModality := v.VideoModality != nil && *v.VideoModality != ModalityUnknown
	if v.VideoSubscriptionMode != nil {
		switch *v.VideoSubscriptionMode {
		case VideoManual:
			if v.ParticipantIdentity == nil {
				errs = append(errs, "participantIdentity must be set when videoSubscriptionMode is manual")
			}
			if !hasModality {
				errs = append(errs, "videoModality must be set and not unknown when videoSubscriptionMode is manual")
			}
		case VideoAuto:
			if v.ParticipantIdentity != nil {
				errs = append(errs, "participantIdentity must not be set when videoSubscriptionMode is auto")
			}
			if hasModality {
				errs = append(errs, "videoModality must not be set when videoSubscriptionMode is auto")
			}
		}
	}
	errs = append(errs, v.checkKind(ActionVideoSubscription)...)
	return errs
}
