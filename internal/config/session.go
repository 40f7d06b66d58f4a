package config

import (
	"fmt"
	"os"
)

// ScreenerSessionEnv overrides data.screener_session.
const ScreenerSessionEnv = "RATIOLENS_DATA_SCREENER_SESSION"

// ScreenerSession describes the Screener.in sessionid cookie the screener
// source will send, without exposing it.
type ScreenerSession struct {
	Set     bool   `json:"set"`
	FromEnv bool   `json:"from_env"`
	Suffix  string `json:"suffix,omitempty"` // last four characters
}

// Session reports the configured Screener.in session. Cookies of eight
// characters or fewer get no suffix.
func (c *Config) Session() ScreenerSession {
	v := c.Data.ScreenerSession
	if v == "" {
		return ScreenerSession{}
	}
	s := ScreenerSession{Set: true, FromEnv: os.Getenv(ScreenerSessionEnv) == v}
	if len(v) > 8 {
		s.Suffix = v[len(v)-4:]
	}
	return s
}

func (s ScreenerSession) String() string {
	if !s.Set {
		return "not set (public pages only)"
	}
	from := "config"
	if s.FromEnv {
		from = "env"
	}
	if s.Suffix == "" {
		return fmt.Sprintf("set (%s)", from)
	}
	return fmt.Sprintf("set (%s, ...%s)", from, s.Suffix)
}
