// Package codecs provides the concrete JSON and XML codec implementations
// for the restbridge format registry. Codecs are deterministic and carry no
// state; Register wires both onto a registry under their canonical tags.
package codecs

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"

	restbridge "github.com/opengovern/restbridge"
)

// JSON returns the JSON codec.
func JSON() restbridge.Codec { return jsonCodec{} }

// XML returns the XML codec.
func XML() restbridge.Codec { return xmlCodec{} }

// Register binds the JSON and XML codecs to their format tags on r.
func Register(r *restbridge.Registry) {
	r.RegisterCodec(restbridge.FormatJSON, JSON())
	r.RegisterCodec(restbridge.FormatXML, XML())
}

type jsonCodec struct{}

func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Encode(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (jsonCodec) Decode(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

type xmlCodec struct{}

func (xmlCodec) ContentType() string { return "application/xml" }

func (xmlCodec) Encode(w io.Writer, v interface{}) error {
	return xml.NewEncoder(w).Encode(v)
}

func (xmlCodec) Decode(data []byte, v interface{}) error {
	return xml.Unmarshal(data, v)
}
