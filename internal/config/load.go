package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Load reads a JSON options file on top of Default. Unknown fields and
// trailing data are rejected.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "reading options file %q", path)
	}
	opts, err := Decode(data)
	if err != nil {
		return Options{}, errors.Wrapf(err, "options file %q", path)
	}
	return opts, nil
}

// Decode parses JSON options on top of Default.
func Decode(data []byte) (Options, error) {
	opts := Default()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return Options{}, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Options{}, errors.Wrap(ErrInvalidConfig, "unexpected trailing data")
	}
	return opts, nil
}
