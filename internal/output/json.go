package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

var Writer io.Writer = os.Stdout

func JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	_, err = fmt.Fprintln(Writer, string(data))
	return err
}

func JSONCompact(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	_, err = fmt.Fprintln(Writer, string(data))
	return err
}

type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeEngineError  Code = "engine_error"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    Code   `json:"code"`
	Details string `json:"details,omitempty"`
}

func JSONError(msg string, code Code, details string) {
	_ = JSON(ErrorResponse{Error: msg, Code: code, Details: details})
}
