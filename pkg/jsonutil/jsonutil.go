package jsonutil

import (
	"io"

	"github.com/bytedance/sonic"
)

// WritePretty renders v as indented JSON, for the CLI's --json output.
func WritePretty(w io.Writer, v any) error {
	data, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func Marshal(v any) ([]byte, error) {
	return sonic.ConfigDefault.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return sonic.ConfigDefault.Unmarshal(data, v)
}
