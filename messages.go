package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"signal-directory/directory"
)

type SuccessMessage struct {
	Type           string                 `json:"type"`
	ConnectionID   directory.ConnectionID `json:"connectionId"`
	AdmissionToken string                 `json:"admissionToken,omitempty"`
}

type CreateRoomMessage struct{}

type JoinRoomMessage struct {
	Code       string          `json:"code"`
	UserToCall string          `json:"userToCall"`
	SignalData json.RawMessage `json:"signalData"`
	Name       string          `json:"name"`
}

// RoomCode accepts both the current and the legacy field name.
func (m JoinRoomMessage) RoomCode() string {
	if m.Code != "" {
		return m.Code
	}
	return m.UserToCall
}

type AnswerJoinRequestMessage struct {
	To     directory.ConnectionID `json:"to"`
	Signal json.RawMessage        `json:"signal"`
}

type MemberJoinMessage struct {
	From directory.ConnectionID `json:"from"`
}

type JoinTrySuccessfulMessage struct {
	Code string `json:"code"`
}

type MemberLeaveMessage struct {
	From directory.ConnectionID `json:"from"`
}

type DisbandRoomMessage struct{}

var (
	ErrUndefinedType    = errors.New("incorrect type")
	ErrMalformedMessage = errors.New("malformed message")
)

func UnmarshalJSON[T any](data []byte) (T, error) {
	var parsed T
	err := json.Unmarshal(data, &parsed)
	return parsed, err
}

func decode[T any](data []byte) (any, error) {
	parsed, err := UnmarshalJSON[T](data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return parsed, nil
}

// ParseMessage returns one of the inbound message structs.
func ParseMessage(data []byte) (any, error) {
	envelope, err := UnmarshalJSON[struct {
		Type string `json:"type"`
	}](data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch envelope.Type {
	case "createroom":
		return CreateRoomMessage{}, nil
	case "joinroom":
		return decode[JoinRoomMessage](data)
	case "answerJoinRequest":
		return decode[AnswerJoinRequestMessage](data)
	case "memberJoin":
		return decode[MemberJoinMessage](data)
	case "joinTrySuccessful":
		return decode[JoinTrySuccessfulMessage](data)
	case "memberLeave":
		return decode[MemberLeaveMessage](data)
	case "disbandRoom":
		return DisbandRoomMessage{}, nil
	default:
		return nil, ErrUndefinedType
	}
}
