package rtm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/pkg/validator"
)

var ErrMalformed = errors.New("malformed event")

type envelope struct {
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v,omitempty"`
}

type rawPayload []byte

func (p rawPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

var validate = validator.NewValidator()

type decodeFunc func(json.RawMessage) (Event, error)

var decoders = map[Kind]decodeFunc{
	KindDeviceState:          decodeStruct[DeviceState],
	KindChannelStatus:        decodeStruct[ChannelStatus],
	KindRequestChannelStatus: decodeStruct[RequestChannelStatus],
	KindAcceptRaiseHand:      decodeStruct[AcceptRaiseHand],
	KindCancelAllHandRaising: func(json.RawMessage) (Event, error) {
		return CancelAllHandRaising{}, nil
	},
	KindClassMode: decodeValue(func(m domain.ClassMode) (Event, error) {
		if !m.Valid() {
			return nil, fmt.Errorf("invalid class mode %q", m)
		}
		return ClassModeChange{Mode: m}, nil
	}),
	KindRoomStatus: decodeValue(func(s domain.RoomStatus) (Event, error) {
		if !s.Valid() {
			return nil, fmt.Errorf("invalid room status %q", s)
		}
		return RoomStatusChange{Status: s}, nil
	}),
	KindRaiseHand: decodeValue(func(v bool) (Event, error) {
		return RaiseHand{Value: v}, nil
	}),
	KindSpeak: decodeValue(func(v bool) (Event, error) {
		return Speak{Value: v}, nil
	}),
	KindBanText: decodeValue(func(v bool) (Event, error) {
		return BanText{Value: v}, nil
	}),
	KindNotice: decodeValue(func(v string) (Event, error) {
		return Notice{Text: v}, nil
	}),
	KindChannelMessage: decodeValue(func(v string) (Event, error) {
		return ChannelMessage{Text: v}, nil
	}),
}

func decodeStruct[T Event](raw json.RawMessage) (Event, error) {
	var e T
	if len(raw) == 0 {
		return nil, errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	if err := validate.Check(e); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeValue[T any](build func(T) (Event, error)) decodeFunc {
	return func(raw json.RawMessage) (Event, error) {
		var v T
		if len(raw) == 0 {
			return nil, errors.New("missing payload")
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return build(v)
	}
}

// Encode serializes e as {"t": kind, "v": payload}.
func Encode(e Event) ([]byte, error) {
	if e == nil {
		return nil, errors.New("nil event")
	}

	value, err := json.Marshal(e.payload())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", e.Kind(), err)
	}

	return json.Marshal(envelope{Type: string(e.Kind()), Value: value})
}

// Decode parses data produced by Encode. Kinds it does not know come back
// as Unknown without an error; broken envelopes and payloads that fail
// validation are ErrMalformed.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	decode, ok := decoders[Kind(env.Type)]
	if !ok {
		return Unknown{Type: env.Type, Raw: env.Value}, nil
	}

	e, err := decode(env.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, env.Type, err)
	}

	return e, nil
}
