package request

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Valid(t *testing.T) {
	body := `{"url": "https://example.com/login"}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))

	var req ScanURL
	require.NoError(t, Decode(r, &req))
	assert.Equal(t, "https://example.com/login", req.URL)
}

func TestDecode_InvalidJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))

	var req ScanURL
	err := Decode(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestDecode_ValidationError(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"url": ""}`))

	var req ScanURL
	err := Decode(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestDecode_SeverityEnum(t *testing.T) {
	body := `{"attack_type": "ddos", "severity": "extreme", "source_ip": "198.51.100.1", "target": "web"}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))

	var req CreateLiveAttack
	err := Decode(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestDecode_BadIP(t *testing.T) {
	body := `{"attack_type": "ddos", "severity": "high", "source_ip": "not-an-ip", "target": "web"}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))

	var req CreateLiveAttack
	require.Error(t, Decode(r, &req))
}
