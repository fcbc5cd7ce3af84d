// FILE: internal/dto/base_response.go
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// BaseResponse is the envelope the backend wraps most payloads in.
type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// FlexibleId accepts ids the backend sends either as numbers or strings and
// writes them back the same way: digits become a JSON number, anything else
// a JSON string, and the zero value is null.
type FlexibleId string

func (f FlexibleId) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(f))
}

func (f *FlexibleId) UnmarshalJSON(data []byte) error {
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
		*f = FlexibleId(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexibleId(n.String())
	return nil
}

func (f FlexibleId) String() string {
	return string(f)
}
