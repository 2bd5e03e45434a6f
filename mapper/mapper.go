package mapper

import (
	"pagekit/vars"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Decode decodes the input into the output using the `paging` struct tag.
// Input is weakly typed, so query-string values such as "2" or "true" decode into ints and bools.
func Decode(input interface{}, output interface{}) error {

	return DecodeTag(input, output, vars.ParamTagKey)

}

// DecodeTag is Decode with a custom struct tag.
func DecodeTag(input interface{}, output interface{}, tagName string) error {

	cfg := &mapstructure.DecoderConfig{
		TagName:          tagName,
		WeaklyTypedInput: true,
		Result:           output,
	}

	// init decoder
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return errors.Wrap(err, "cannot init decoder")
	}

	// decode
	err = dec.Decode(input)
	if err != nil {
		return errors.Wrap(err, "cannot decode dest")
	}

	return nil

}
