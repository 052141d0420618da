package rtm

import "github.com/flatclass/classroom/internal/domain"

type Kind string

const (
	KindDeviceState          Kind = "DeviceState"
	KindChannelStatus        Kind = "ChannelStatus"
	KindRequestChannelStatus Kind = "RequestChannelStatus"
	KindAcceptRaiseHand      Kind = "AcceptRaiseHand"
	KindCancelAllHandRaising Kind = "CancelAllHandRaising"
	KindClassMode            Kind = "ClassMode"
	KindRaiseHand            Kind = "RaiseHand"
	KindSpeak                Kind = "Speak"
	KindRoomStatus           Kind = "RoomStatus"
	KindBanText              Kind = "BanText"
	KindNotice               Kind = "Notice"
	KindChannelMessage       Kind = "ChannelMessage"
)

// Event is one message exchanged between classroom peers. The set of
// implementations is closed, see the types below.
type Event interface {
	Kind() Kind
	payload() any
}

type DeviceState struct {
	UserID string `json:"userUUID" validate:"required"`
	Camera bool   `json:"camera"`
	Mic    bool   `json:"mic"`
}

// ChannelStatus is a full room snapshot sent in reply to RequestChannelStatus.
type ChannelStatus struct {
	Ban        bool              `json:"ban"`
	RoomStatus domain.RoomStatus `json:"rStatus" validate:"oneof=Idle Started Paused"`
	ClassMode  domain.ClassMode  `json:"rMode" validate:"oneof=Lecture Interaction"`
	UserStates map[string]string `json:"uStates"`
}

// UserState is what a peer reports about itself when it asks for the
// channel status.
type UserState struct {
	Name    string `json:"name"`
	Camera  bool   `json:"camera"`
	Mic     bool   `json:"mic"`
	IsSpeak bool   `json:"isSpeak"`
}

type RequestChannelStatus struct {
	RoomID  string    `json:"roomUUID" validate:"required"`
	UserIDs []string  `json:"userUUIDs" validate:"required,min=1,dive,required"`
	User    UserState `json:"user"`
}

type AcceptRaiseHand struct {
	UserID string `json:"userUUID" validate:"required"`
	Accept bool   `json:"accept"`
}

type CancelAllHandRaising struct{}

type ClassModeChange struct {
	Mode domain.ClassMode
}

type RaiseHand struct {
	Value bool
}

type Speak struct {
	Value bool
}

type RoomStatusChange struct {
	Status domain.RoomStatus
}

type BanText struct {
	Value bool
}

// Notice and ChannelMessage are carried by the channel but do not change
// room state.
type Notice struct {
	Text string
}

type ChannelMessage struct {
	Text string
}

// Unknown holds a message of a kind this build does not understand.
type Unknown struct {
	Type string
	Raw  []byte
}

func (DeviceState) Kind() Kind          { return KindDeviceState }
func (ChannelStatus) Kind() Kind        { return KindChannelStatus }
func (RequestChannelStatus) Kind() Kind { return KindRequestChannelStatus }
func (AcceptRaiseHand) Kind() Kind      { return KindAcceptRaiseHand }
func (CancelAllHandRaising) Kind() Kind { return KindCancelAllHandRaising }
func (ClassModeChange) Kind() Kind      { return KindClassMode }
func (RaiseHand) Kind() Kind            { return KindRaiseHand }
func (Speak) Kind() Kind                { return KindSpeak }
func (RoomStatusChange) Kind() Kind     { return KindRoomStatus }
func (BanText) Kind() Kind              { return KindBanText }
func (Notice) Kind() Kind               { return KindNotice }
func (ChannelMessage) Kind() Kind       { return KindChannelMessage }
func (e Unknown) Kind() Kind            { return Kind(e.Type) }

func (e DeviceState) payload() any          { return e }
func (e ChannelStatus) payload() any        { return e }
func (e RequestChannelStatus) payload() any { return e }
func (e AcceptRaiseHand) payload() any      { return e }
func (CancelAllHandRaising) payload() any   { return true }
func (e ClassModeChange) payload() any      { return e.Mode }
func (e RaiseHand) payload() any            { return e.Value }
func (e Speak) payload() any                { return e.Value }
func (e RoomStatusChange) payload() any     { return e.Status }
func (e BanText) payload() any              { return e.Value }
func (e Notice) payload() any               { return e.Text }
func (e ChannelMessage) payload() any       { return e.Text }
func (e Unknown) payload() any              { return rawPayload(e.Raw) }
