package wire

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBufferedResponse_PlainText(t *testing.T) {
	payload := []byte(`{"statusCode":200,"headers":{"content-type":"text/plain"},"body":"hello"}`)

	resp, err := DecodeBufferedResponse(payload)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Headers["content-type"])
	assert.Equal(t, []byte("hello"), resp.Body)
}

func TestDecodeBufferedResponse_Base64Body(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	payload := []byte(`{"statusCode":200,"isBase64Encoded":true,"body":"` + base64.StdEncoding.EncodeToString(raw) + `"}`)

	resp, err := DecodeBufferedResponse(payload)
	require.NoError(t, err)
	assert.Equal(t, raw, resp.Body)
}

func TestDecodeBufferedResponse_InvalidJSON(t *testing.T) {
	_, err := DecodeBufferedResponse([]byte(`not json`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadUpstreamResponse)
}

func TestDecodeBufferedResponse_InvalidStatusCode(t *testing.T) {
	_, err := DecodeBufferedResponse([]byte(`{"statusCode":999,"body":""}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadUpstreamResponse)
}

func TestDecodeBufferedResponse_InvalidBase64(t *testing.T) {
	_, err := DecodeBufferedResponse([]byte(`{"statusCode":200,"isBase64Encoded":true,"body":"not-base64!!"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadUpstreamResponse)
}

func TestDecodeBufferedResponse_MissingStatusCodeIsInvalid(t *testing.T) {
	_, err := DecodeBufferedResponse([]byte(`{"body":"hi"}`))
	require.Error(t, err)
}
