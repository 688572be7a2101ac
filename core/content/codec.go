package content

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrUnknownType = errors.New("unknown content type")

// codec pairs the encode/decode functions for one content variant.
// The registry is resolved once at package init; no runtime type lookups.
type codec struct {
	encode func(SectionContent) ([]byte, error)
	decode func([]byte) (SectionContent, error)
}

var codecs map[Type]codec

func init() {
	codecs = map[Type]codec{
		TypeVideo: {
			encode: encodeTagged,
			decode: func(b []byte) (SectionContent, error) {
				var v Video
				return &v, json.Unmarshal(b, &v)
			},
		},
		TypeDocument: {
			encode: encodeTagged,
			decode: func(b []byte) (SectionContent, error) {
				var d Document
				return &d, json.Unmarshal(b, &d)
			},
		},
		TypeImage: {
			encode: encodeTagged,
			decode: func(b []byte) (SectionContent, error) {
				var i Image
				return &i, json.Unmarshal(b, &i)
			},
		},
		TypeExam: {
			encode: encodeTagged,
			decode: func(b []byte) (SectionContent, error) {
				var e Exam
				return &e, json.Unmarshal(b, &e)
			},
		},
	}
}

func encodeTagged(c SectionContent) ([]byte, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(c.Kind())
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// Marshal encodes content with its `type` discriminator.
func Marshal(c SectionContent) ([]byte, error) {
	cdc, ok := codecs[c.Kind()]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%q", c.Kind())
	}
	return cdc.encode(c)
}

// Unmarshal decodes tagged content into its concrete variant.
func Unmarshal(b []byte) (SectionContent, error) {
	var probe struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, errors.Wrap(err, "probing content type")
	}
	cdc, ok := codecs[probe.Type]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%q", probe.Type)
	}
	return cdc.decode(b)
}
