// Package config reads service settings from environment variables grouped under prefixes
// such as CORE_ANALYSIS_ or SERVICE_PGSQL_
package config

import (
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"satyanetra/internal/platform/logger"
)

// Conf is a prefixed view of the environment. New() is the root; Prefix narrows it for a module
type Conf struct{ prefix string }

// New returns the root view
func New() Conf { return Conf{} }

// Prefix appends p to the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

// lookup returns the trimmed value and the full variable name; blank counts as unset
func (c Conf) lookup(k string) (name, val string, ok bool) {
	name = c.key(k)
	val = strings.TrimSpace(os.Getenv(name))
	return name, val, val != ""
}

// required fetches k or panics naming the variable
func (c Conf) required(k string) (string, string) {
	name, val, ok := c.lookup(k)
	if !ok {
		logger.Get().Panic().Str("key", name).Msg("required setting is not set")
	}
	return name, val
}

func invalid(name, val, want string) {
	logger.Get().Panic().Str("key", name).Str("value", val).Msg("setting is not a valid " + want)
}

func ignored(name, val, want string) {
	logger.Get().Warn().Str("key", name).Str("value", val).Msg("setting is not a valid " + want + "; using default")
}

// parseBool accepts the strconv forms plus yes/no and on/off
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// MustString returns k or panics when it is unset
func (c Conf) MustString(k string) string {
	_, v := c.required(k)
	return v
}

// MustInt returns k as an int or panics
func (c Conf) MustInt(k string) int {
	name, s := c.required(k)
	v, err := strconv.Atoi(s)
	if err != nil {
		invalid(name, s, "integer")
	}
	return v
}

// MustBool returns k as a bool or panics
func (c Conf) MustBool(k string) bool {
	name, s := c.required(k)
	v, err := parseBool(s)
	if err != nil {
		invalid(name, s, "boolean")
	}
	return v
}

// MustDuration returns k as a time.Duration (250ms, 2s, 1h) or panics
func (c Conf) MustDuration(k string) time.Duration {
	name, s := c.required(k)
	d, err := time.ParseDuration(s)
	if err != nil {
		invalid(name, s, "duration")
	}
	return d
}

// MustURL returns k as an absolute URL or panics
func (c Conf) MustURL(k string) *url.URL {
	name, s := c.required(k)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		invalid(name, s, "absolute URL")
	}
	return u
}

// MustPort validates a TCP port and returns it as a listen address (":8000")
func (c Conf) MustPort(k string) string {
	name, s := c.required(k)
	if p, err := strconv.Atoi(s); err != nil || p < 1 || p > 65535 {
		invalid(name, s, "TCP port (1..65535)")
	}
	return ":" + s
}

// Require panics on the first unset key
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		c.required(k)
	}
}

// MayString returns k, or def when unset
func (c Conf) MayString(k, def string) string {
	if _, v, ok := c.lookup(k); ok {
		return v
	}
	return def
}

// MayURL returns k as an absolute URL, or nil when unset or malformed
func (c Conf) MayURL(k string) *url.URL {
	name, s, ok := c.lookup(k)
	if !ok {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		ignored(name, s, "absolute URL")
		return nil
	}
	return u
}

// may parses k with parse, falling back to def when unset or unparsable
func may[T any](c Conf, k string, def T, want string, parse func(string) (T, error)) T {
	name, s, ok := c.lookup(k)
	if !ok {
		return def
	}
	v, err := parse(s)
	if err != nil {
		ignored(name, s, want)
		return def
	}
	return v
}

// MayInt returns k as an int, or def
func (c Conf) MayInt(k string, def int) int {
	return may(c, k, def, "integer", strconv.Atoi)
}

// MayFloat64 returns k as a float64, or def
func (c Conf) MayFloat64(k string, def float64) float64 {
	return may(c, k, def, "number", func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool returns k as a bool, or def
func (c Conf) MayBool(k string, def bool) bool {
	return may(c, k, def, "boolean", parseBool)
}

// MayDuration returns k as a time.Duration, or def
func (c Conf) MayDuration(k string, def time.Duration) time.Duration {
	return may(c, k, def, "duration", time.ParseDuration)
}

// MayCSV splits k on commas, dropping blanks. def is returned when nothing is left
func (c Conf) MayCSV(k string, def []string) []string {
	_, s, ok := c.lookup(k)
	if !ok {
		return def
	}
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns k (or def) and panics when it is not one of allowed, compared case-insensitively
func (c Conf) MayEnum(k, def string, allowed ...string) string {
	v := c.MayString(k, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", c.key(k)).Str("value", v).Strs("allowed", allowed).Msg("setting is not an allowed value")
	return ""
}

// MayJSON decodes k into dst and reports whether it did. dst is untouched otherwise
func (c Conf) MayJSON(k string, dst any) bool {
	name, s, ok := c.lookup(k)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		logger.Get().Warn().Err(err).Str("key", name).Msg("setting is not valid json; using default")
		return false
	}
	return true
}

// MayFraction returns k in [0,1], or def when out of range
func (c Conf) MayFraction(k string, def float64) float64 {
	v := c.MayFloat64(k, def)
	if v < 0 || v > 1 {
		logger.Get().Warn().Str("key", c.key(k)).Float64("value", v).Float64("default", def).
			Msg("fraction out of range; using default")
		return def
	}
	return v
}
