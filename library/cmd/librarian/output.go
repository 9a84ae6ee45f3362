package main

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/library/shared/shell"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w io.Writer, v any) error {
	buf, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(append(buf, '\n'))

	return err
}

func writeErrorResponse(w io.Writer, err error) error {
	return writeJSON(w, shell.NewErrorResponse(err))
}
