package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string or number, so {"numero": 31976290680} and
// {"numero": "31976290680"} both decode.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// FlexBool accepts true/false as JSON booleans or strings.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if raw == "" || raw == "null" {
		*f = false
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return err
	}
	*f = FlexBool(b)
	return nil
}

type RequestValidateNumber struct {
	Numero FlexString `json:"numero" form:"numero"`
}

type RequestSendMessage struct {
	Numero   FlexString `json:"numero" form:"numero"`
	Mensagem string     `json:"mensagem" form:"mensagem"`
	Validar  FlexBool   `json:"validar" form:"validar"`
}
