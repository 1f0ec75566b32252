package interaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ErrMalformed is returned by Decode when the body is not valid JSON.
var ErrMalformed = errors.New("malformed interaction payload")

// Decode parses an authenticated request body into an Interaction.
//
// Decoding is lenient: any valid JSON document yields an Interaction. Values
// of unexpected types never fail the decode; they are treated as absent, so a
// mistyped option surfaces later as a missing argument.
func Decode(body []byte) (Interaction, error) {
	if !json.Valid(body) {
		return nil, ErrMalformed
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		// Valid JSON but not an object.
		return Unsupported{}, nil
	}

	id := scalarString(fields["id"])

	code, isNumber := number(fields["type"])
	switch {
	case isNumber && code == typePing:
		return Ping{InteractionID: id}, nil
	case isNumber && code == typeApplicationCommand:
		return decodeCommand(id, fields), nil
	case isNumber:
		return Unsupported{InteractionID: id, Type: int(code)}, nil
	default:
		return Unsupported{InteractionID: id}, nil
	}
}

func decodeCommand(id string, fields map[string]json.RawMessage) Command {
	cmd := Command{
		InteractionID: id,
		CallerID:      callerID(fields),
	}

	if guild := fields["guild_id"]; truthy(guild) {
		cmd.GuildID = scalarString(guild)
		if cmd.GuildID == "" {
			// Present but not a scalar; keep it non-empty so the command
			// is still treated as a guild invocation.
			cmd.GuildID = string(bytes.TrimSpace(guild))
		}
	}

	data := object(fields["data"])
	cmd.Name = stringValue(data["name"])

	var rawOptions []json.RawMessage
	if err := json.Unmarshal(data["options"], &rawOptions); err == nil {
		cmd.Options = make([]Option, 0, len(rawOptions))
		for _, raw := range rawOptions {
			opt := object(raw)
			cmd.Options = append(cmd.Options, Option{
				Name:  stringValue(opt["name"]),
				Value: scalarString(opt["value"]),
			})
		}
	}

	return cmd
}

// callerID reads user.id, falling back to member.user.id when user.id is
// absent. Direct messages carry user; guild invocations carry member.
func callerID(fields map[string]json.RawMessage) string {
	if raw, ok := present(object(fields["user"])["id"]); ok {
		return scalarString(raw)
	}
	member := object(fields["member"])
	if raw, ok := present(object(member["user"])["id"]); ok {
		return scalarString(raw)
	}
	return ""
}

func present(raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	return trimmed, true
}

func object(raw json.RawMessage) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}

func number(raw json.RawMessage) (float64, bool) {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return 0, false
	}
	return f, true
}

func stringValue(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// scalarString coerces a JSON scalar to its string form. Null, objects and
// arrays coerce to "".
func scalarString(raw json.RawMessage) string {
	raw, ok := present(raw)
	if !ok {
		return ""
	}
	switch raw[0] {
	case '"':
		return stringValue(raw)
	case 't', 'f':
		var b bool
		if json.Unmarshal(raw, &b) != nil {
			return ""
		}
		return strconv.FormatBool(b)
	case '{', '[':
		return ""
	default:
		// Integer literals keep their exact digits; snowflake ids exceed
		// float64 precision.
		if _, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return string(raw)
		}
		f, ok := number(raw)
		if !ok {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

func truthy(raw json.RawMessage) bool {
	raw, ok := present(raw)
	if !ok {
		return false
	}
	switch raw[0] {
	case '"':
		return stringValue(raw) != ""
	case 't':
		return true
	case 'f':
		return false
	case '{', '[':
		return true
	default:
		f, _ := number(raw)
		return f != 0
	}
}
