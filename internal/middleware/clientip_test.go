package middleware

import (
	"net"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.5:4444"
	assert.Equal(t, "192.168.1.5", clientIP(req).String())

	req.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", clientIP(req).String())

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req).String())

	assert.Nil(t, clientIP(nil))
}

func TestClientSource(t *testing.T) {
	assert.Equal(t, "unknown", clientSource(nil))
	assert.Equal(t, "loopback", clientSource(net.ParseIP("127.0.0.1")))
	assert.Equal(t, "docker_bridge", clientSource(net.ParseIP("172.17.0.3")))
	assert.Equal(t, "private", clientSource(net.ParseIP("10.2.3.4")))
	assert.Equal(t, "public", clientSource(net.ParseIP("8.8.8.8")))
}
