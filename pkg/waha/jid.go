package waha

import (
	"encoding/json"
	"strings"
)

// JID identifies a WhatsApp participant. Depending on the gateway version it
// arrives either as a bare string ("628xx@c.us") or as an object carrying
// user and _serialized fields, so decoding accepts both.
type JID struct {
	User       string `json:"user"`
	Serialized string `json:"_serialized"`
}

func (j *JID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		j.Serialized = s
		j.User, _, _ = strings.Cut(s, "@")
		return nil
	}

	type plain JID
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*j = JID(p)
	if j.User == "" && j.Serialized != "" {
		j.User, _, _ = strings.Cut(j.Serialized, "@")
	}
	return nil
}

// UserID returns the bare participant identifier without the server suffix.
func (j JID) UserID() string {
	if j.User != "" {
		return j.User
	}
	user, _, _ := strings.Cut(j.Serialized, "@")
	return user
}

func (j JID) IsZero() bool {
	return j.User == "" && j.Serialized == ""
}

func (j JID) String() string {
	if j.Serialized != "" {
		return j.Serialized
	}
	return j.User
}
