package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DeviceSuite struct {
	suite.Suite
}

func TestDeviceSuite(t *testing.T) {
	suite.Run(t, new(DeviceSuite))
}

const (
	chromeMac   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	firefoxLinx = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

func (s *DeviceSuite) TestParseUserAgent() {
	s.Run("empty header", func() {
		s.Equal("Unknown Device", ParseUserAgent("  "))
	})

	s.Run("desktop chrome names browser and os", func() {
		got := ParseUserAgent(chromeMac)
		s.Contains(got, "Chrome")
		s.Contains(got, " on ")
		s.Equal(got, strings.TrimSpace(got))
	})

	s.Run("firefox", func() {
		s.Contains(ParseUserAgent(firefoxLinx), "Firefox")
	})

	s.Run("unrecognised agent still formats", func() {
		got := ParseUserAgent("rentmeroom-cli/1.0")
		s.Contains(got, " on ")
	})
}

func (s *DeviceSuite) TestFingerprint() {
	s.Run("empty header has no fingerprint", func() {
		s.Empty(Fingerprint(""))
	})

	s.Run("stable across patch releases", func() {
		a := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.109 Safari/537.36"
		b := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.224 Safari/537.36"
		s.Equal(Fingerprint(a), Fingerprint(b))
		s.Len(Fingerprint(a), 64)
	})

	s.Run("changes with major version", func() {
		a := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		b := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
		s.NotEqual(Fingerprint(a), Fingerprint(b))
	})
}
