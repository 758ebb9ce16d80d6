package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLoopbackOrigin(t *testing.T) {
	t.Run("accepts loopback literals", func(t *testing.T) {
		for _, origin := range []string{
			"http://localhost",
			"http://localhost:8080",
			"https://localhost:64120",
			"HTTP://LOCALHOST:9000",
			"http://127.0.0.1",
			"https://127.0.0.1:443",
			"http://[::1]",
			"http://[::1]:64121",
			"HTTPS://[::1]:8443",
		} {
			assert.True(t, IsLoopbackOrigin(origin), origin)
		}
	})

	t.Run("rejects everything else", func(t *testing.T) {
		for _, origin := range []string{
			"",
			"http://evil.com",
			"http://192.168.1.1:8080",
			"https://localhost.com",
			"https://localhost.evil.com",
			"ftp://localhost",
			"file://localhost",
			"localhost:8080",
			"http://",
			"://broken",
			"http://[::1:8080",
			"not a url at all",
		} {
			assert.False(t, IsLoopbackOrigin(origin), origin)
		}
	})
}

func TestIsLoopbackHost(t *testing.T) {
	t.Run("accepts loopback hosts", func(t *testing.T) {
		for _, host := range []string{
			"localhost",
			"localhost:64120",
			"LOCALHOST:80",
			"127.0.0.1",
			"127.0.0.1:9000",
			"::1",
			"[::1]",
			"[::1]:64121",
		} {
			assert.True(t, IsLoopbackHost(host), host)
		}
	})

	t.Run("rejects everything else", func(t *testing.T) {
		for _, host := range []string{
			"",
			"evil.com",
			"evil.com:80",
			"localhost.com:80",
			"192.168.1.1:8080",
			"127.0.0.2",
			"http://localhost",
		} {
			assert.False(t, IsLoopbackHost(host), host)
		}
	})
}
