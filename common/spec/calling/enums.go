package calling

// Modality is a media type of a call.
type Modality string

const (
	ModalityUnknown                 Modality = "unknown"
	ModalityAudio                   Modality = "audio"
	ModalityVideo                   Modality = "video"
	ModalityVideoBasedScreenSharing Modality = "videoBasedScreenSharing"
)

// Modalities lists every modality value.
var Modalities = []Modality{ModalityUnknown, ModalityAudio, ModalityVideo, ModalityVideoBasedScreenSharing}

// CallState is the lifecycle state of a call.
type CallState string

const (
	CallIdle         CallState = "idle"
	CallIncoming     CallState = "incoming"
	CallEstablishing CallState = "establishing"
	CallEstablished  CallState = "established"
	CallHold         CallState = "hold"
	CallUnhold       CallState = "unhold"
	CallTransferring CallState = "transferring"
	CallRedirecting  CallState = "redirecting"
	CallTerminating  CallState = "terminating"
	CallTerminated   CallState = "terminated"
)

// CallStates lists every call state.
var CallStates = []CallState{
	CallIdle, CallIncoming, CallEstablishing, CallEstablished, CallHold,
	CallUnhold, CallTransferring, CallRedirecting, CallTerminating, CallTerminated,
}

// Result is the outcome of an operation.
type Result string

const (
	Success Result = "success"
	Failure Result = "failure"
)

// Results lists both operation results.
var Results = []Result{Success, Failure}

// VoiceGender selects the text-to-speech voice.
type VoiceGender string

const (
	VoiceMale   VoiceGender = "male"
	VoiceFemale VoiceGender = "female"
)

// VoiceGenders lists the available voices.
var VoiceGenders = []VoiceGender{VoiceMale, VoiceFemale}

// Culture is the locale used for speech synthesis and recognition.
type Culture string

// CultureEnUS is the only culture the service currently supports.
const CultureEnUS Culture = "en-US"

// Cultures lists the supported cultures.
var Cultures = []Culture{CultureEnUS}

// SayAs tells the speech engine how to read a prompt value.
type SayAs string

const (
	SayAsYearMonthDay    SayAs = "yearMonthDay"
	SayAsMonthDayYear    SayAs = "monthDayYear"
	SayAsDayMonthYear    SayAs = "dayMonthYear"
	SayAsYearMonth       SayAs = "yearMonth"
	SayAsMonthYear       SayAs = "monthYear"
	SayAsMonthDay        SayAs = "monthDay"
	SayAsDayMonth        SayAs = "dayMonth"
	SayAsTime            SayAs = "time"
	SayAsTelephoneNumber SayAs = "telephoneNumber"
	SayAsCardinal        SayAs = "cardinal"
	SayAsOrdinal         SayAs = "ordinal"
)

// SayAsValues lists every SayAs hint.
var SayAsValues = []SayAs{
	SayAsYearMonthDay, SayAsMonthDayYear, SayAsDayMonthYear, SayAsYearMonth,
	SayAsMonthYear, SayAsMonthDay, SayAsDayMonth, SayAsTime,
	SayAsTelephoneNumber, SayAsCardinal, SayAsOrdinal,
}

// RecordingFormat is the container of a recording.
type RecordingFormat string

const (
	FormatWMA RecordingFormat = "wma"
	FormatWAV RecordingFormat = "wav"
	FormatMP3 RecordingFormat = "mp3"
)

// RecordingFormats lists the supported recording formats.
var RecordingFormats = []RecordingFormat{FormatWMA, FormatWAV, FormatMP3}

// RecognitionCompletionReason explains why a recognize operation ended.
type RecognitionCompletionReason string

const (
	RecognitionUnknown                RecognitionCompletionReason = "unknown"
	RecognitionInitialSilenceTimeout  RecognitionCompletionReason = "initialSilenceTimeout"
	RecognitionIncorrectDtmf          RecognitionCompletionReason = "incorrectDtmf"
	RecognitionInterdigitTimeout      RecognitionCompletionReason = "interdigitTimeout"
	RecognitionSpeechOptionMatched    RecognitionCompletionReason = "speechOptionMatched"
	RecognitionDtmfOptionMatched      RecognitionCompletionReason = "dtmfOptionMatched"
	RecognitionCallTerminated         RecognitionCompletionReason = "callTerminated"
	RecognitionTemporarySystemFailure RecognitionCompletionReason = "temporarySystemFailure"
)

// RecognitionCompletionReasons lists every choice completion reason.
var RecognitionCompletionReasons = []RecognitionCompletionReason{
	RecognitionUnknown, RecognitionInitialSilenceTimeout, RecognitionIncorrectDtmf,
	RecognitionInterdigitTimeout, RecognitionSpeechOptionMatched, RecognitionDtmfOptionMatched,
	RecognitionCallTerminated, RecognitionTemporarySystemFailure,
}

// DigitCollectionCompletionReason explains why digit collection ended.
type DigitCollectionCompletionReason string

const (
	DigitsInitialSilenceTimeout  DigitCollectionCompletionReason = "initialSilenceTimeout"
	DigitsInterdigitTimeout      DigitCollectionCompletionReason = "interdigitTimeout"
	DigitsCompletedStopTone      DigitCollectionCompletionReason = "completedStopToneDetected"
	DigitsCallTerminated         DigitCollectionCompletionReason = "callTerminated"
	DigitsTemporarySystemFailure DigitCollectionCompletionReason = "temporarySystemFailure"
)

// DigitCollectionCompletionReasons lists every digit collection completion reason.
var DigitCollectionCompletionReasons = []DigitCollectionCompletionReason{
	DigitsInitialSilenceTimeout, DigitsInterdigitTimeout, DigitsCompletedStopTone,
	DigitsCallTerminated, DigitsTemporarySystemFailure,
}

// RecordingCompletionReason explains why a record operation ended.
type RecordingCompletionReason string

const (
	RecordingInitialSilenceTimeout  RecordingCompletionReason = "initialSilenceTimeout"
	RecordingMaxRecordingTimeout    RecordingCompletionReason = "maxRecordingTimeout"
	RecordingCompletedSilence       RecordingCompletionReason = "completedSilenceDetected"
	RecordingCompletedStopTone      RecordingCompletionReason = "completedStopToneDetected"
	RecordingCallTerminated         RecordingCompletionReason = "callTerminated"
	RecordingTemporarySystemFailure RecordingCompletionReason = "temporarySystemFailure"
)

// RecordingCompletionReasons lists every recording completion reason.
var RecordingCompletionReasons = []RecordingCompletionReason{
	RecordingInitialSilenceTimeout, RecordingMaxRecordingTimeout, RecordingCompletedSilence,
	RecordingCompletedStopTone, RecordingCallTerminated, RecordingTemporarySystemFailure,
}

// VideoSubscriptionMode selects how the video source of a subscription is chosen.
type VideoSubscriptionMode string

const (
	VideoAuto   VideoSubscriptionMode = "auto"
	VideoManual VideoSubscriptionMode = "manual"
)

// VideoSubscriptionModes lists both subscription modes.
var VideoSubscriptionModes = []VideoSubscriptionMode{VideoAuto, VideoManual}

// VideoResolution is a requested video resolution.
type VideoResolution string

const (
	ResolutionSD180  VideoResolution = "sd180p"
	ResolutionSD240  VideoResolution = "sd240p"
	ResolutionSD360  VideoResolution = "sd360p"
	ResolutionSD540  VideoResolution = "sd540p"
	ResolutionHD720  VideoResolution = "hd720p"
	ResolutionHD1080 VideoResolution = "hd1080p"
)

// VideoResolutions lists every resolution.
var VideoResolutions = []VideoResolution{
	ResolutionSD180, ResolutionSD240, ResolutionSD360, ResolutionSD540, ResolutionHD720, ResolutionHD1080,
}

// MediaStreamDirection is the direction of a participant's media stream.
type MediaStreamDirection string

const (
	StreamInactive    MediaStreamDirection = "inactive"
	StreamSendOnly    MediaStreamDirection = "sendOnly"
	StreamReceiveOnly MediaStreamDirection = "receiveOnly"
	StreamSendReceive MediaStreamDirection = "sendReceive"
)

// MediaStreamDirections lists every stream direction.
var MediaStreamDirections = []MediaStreamDirection{StreamInactive, StreamSendOnly, StreamReceiveOnly, StreamSendReceive}

// DTMFTones is the touch-tone alphabet.
var DTMFTones = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "*", "#", "A", "B", "C", "D"}

func isDTMF(s string) bool {
	for _, t := range DTMFTones {
		if s == t {
			return true
		}
	}
	return false
}
