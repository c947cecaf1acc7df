package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/grovetools/elementipelago/errors"
)

// Encode serializes client messages into a single text frame.
// The result is always a JSON array, even for one message.
func Encode(msgs ...ClientMessage) ([]byte, error) {
	batch := make([]json.RawMessage, 0, len(msgs))
	for _, msg := range msgs {
		body, err := json.Marshal(msg)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeEncodeFailed, "failed to encode "+msg.Command())
		}
		tagged, err := withCommand(msg.Command(), body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeEncodeFailed, "failed to encode "+msg.Command())
		}
		batch = append(batch, tagged)
	}
	return json.Marshal(batch)
}

// Decode parses a server text frame into its messages, in order.
// A frame holding a single bare object is treated as a batch of one.
func Decode(frame []byte) ([]ServerMessage, error) {
	trimmed := bytes.TrimSpace(frame)

	var raws []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '{' {
		raws = []json.RawMessage{trimmed}
	} else if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, errors.DecodeFailed(err)
	}

	msgs := make([]ServerMessage, 0, len(raws))
	for i, raw := range raws {
		msg, err := decodeMessage(raw)
		if err != nil {
			return nil, errors.DecodeFailed(err).WithDetail("index", i)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func decodeMessage(raw json.RawMessage) (ServerMessage, error) {
	var head struct {
		Cmd *string `json:"cmd"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	if head.Cmd == nil {
		return nil, fmt.Errorf("message has no cmd tag")
	}

	var msg ServerMessage
	switch *head.Cmd {
	case CmdRoomInfo:
		msg = &RoomInfo{}
	case CmdConnectionRefused:
		msg = &ConnectionRefused{}
	case CmdConnected:
		msg = &Connected{}
	case CmdReceivedItems:
		msg = &ReceivedItems{}
	case CmdLocationInfo:
		msg = &LocationInfo{}
	case CmdRoomUpdate:
		msg = &RoomUpdate{}
	case CmdPrintJSON:
		msg = &PrintJSON{}
	case CmdDataPackage:
		return decodeDataPackage(raw)
	case CmdBounced:
		msg = &Bounced{}
	case CmdInvalidPacket:
		msg = &InvalidPacket{}
	case CmdRetrieved:
		msg = &Retrieved{}
	case CmdSetReply:
		msg = &SetReply{}
	default:
		return &Unrecognized{Cmd: *head.Cmd, Raw: append(json.RawMessage(nil), raw...)}, nil
	}

	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("%s: %w", *head.Cmd, err)
	}

	switch m := msg.(type) {
	case *RoomInfo, *ConnectionRefused:
		if err := rejectUnknownFields(raw, m); err != nil {
			return nil, fmt.Errorf("%s: %w", *head.Cmd, err)
		}
	case *Connected:
		if err := rejectUnknownFields(raw, m); err != nil {
			return nil, fmt.Errorf("%s: %w", *head.Cmd, err)
		}
		if _, err := ParseSlotData(m.SlotData); err != nil {
			return nil, fmt.Errorf("%s: %w", *head.Cmd, err)
		}
	}
	return msg, nil
}

// rejectUnknownFields fails when raw has a top-level key that v does not
// declare. Nested objects are not checked.
func rejectUnknownFields(raw json.RawMessage, v any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	known := jsonFieldNames(reflect.TypeOf(v).Elem())
	var unknown []string
	for k := range fields {
		if k != "cmd" && !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown fields: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func jsonFieldNames(t reflect.Type) map[string]bool {
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			names[name] = true
		}
	}
	return names
}

// decodeDataPackage decodes each game's catalog strictly. A catalog with a
// field this client does not know is rejected rather than partially trusted.
func decodeDataPackage(raw json.RawMessage) (ServerMessage, error) {
	var envelope struct {
		Data struct {
			Games map[string]json.RawMessage `json:"games"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%s: %w", CmdDataPackage, err)
	}

	pkg := &DataPackage{Data: DataPackageData{Games: make(map[string]GameData, len(envelope.Data.Games))}}
	for game, body := range envelope.Data.Games {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		var data GameData
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("%s: game %q: %w", CmdDataPackage, game, err)
		}
		pkg.Data.Games[game] = data
	}
	return pkg, nil
}

// withCommand splices the "cmd" tag into an encoded object.
func withCommand(cmd string, body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' || body[len(body)-1] != '}' {
		return nil, fmt.Errorf("%s does not encode to a JSON object", cmd)
	}
	tag, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString(`{"cmd":`)
	b.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		b.WriteByte(',')
		b.Write(inner)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func marshalFields(fields map[string]any) ([]byte, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "cmd" {
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}
