// Package obfuscate hides answer text from casual inspection of item
// records and client payloads. It is a reversible encoding, not a
// security boundary.
package obfuscate

import "encoding/base64"

// Codec encodes and decodes answer text. Decode(Encode(x)) == x for any x.
type Codec interface {
	Encode(text string) string
	Decode(token string) (string, error)
}

// Base64 is the default codec: standard base64 over the UTF-8 bytes,
// matching the btoa-style obfuscation of the browser client.
type Base64 struct{}

func NewBase64() Base64 { return Base64{} }

func (Base64) Encode(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

func (Base64) Decode(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
