// Package config resolves the dashboard parameters from query-string-like sources.
package config

import (
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/spf13/pflag"
)

// Parameter names, as they appear in the dashboard's query string.
const (
	ParamRepo                = "repo"
	ParamUsername            = "username"
	ParamSince               = "since"
	ParamUntil               = "until"
	ParamShowAvatarsAsPoints = "showAvatarsAsPoints"
)

// DefaultWindowDays is how far back Since defaults to.
const DefaultWindowDays = 14

// Source looks up a named parameter.
// The boolean reports whether the parameter was present at all.
type Source interface {
	Lookup(name string) (string, bool)
}

// QuerySource reads parameters from parsed query values.
type QuerySource url.Values

// ParseQuery builds a QuerySource from a raw query string such as "repo=a/b&username=c".
// A leading "?" is accepted.
func ParseQuery(raw string) (QuerySource, error) {
	if len(raw) > 0 && raw[0] == '?' {
		raw = raw[1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	return QuerySource(values), nil
}

func (q QuerySource) Lookup(name string) (string, bool) {
	values, ok := q[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// FlagSource reads parameters from a flag set. Flags that were not set
// explicitly are treated as absent so their defaults never shadow another source.
type FlagSource struct {
	Flags *pflag.FlagSet
	// Names maps a parameter name to a flag name. Parameters without an entry use their own name.
	Names map[string]string
}

func (f FlagSource) Lookup(name string) (string, bool) {
	if f.Flags == nil {
		return "", false
	}
	flagName := name
	if mapped, ok := f.Names[name]; ok {
		flagName = mapped
	}
	flag := f.Flags.Lookup(flagName)
	if flag == nil || !flag.Changed {
		return "", false
	}
	return flag.Value.String(), true
}

// Sources consults each source in order and returns the first hit.
type Sources []Source

func (s Sources) Lookup(name string) (string, bool) {
	for _, src := range s {
		if v, ok := src.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// Resolve reads the five dashboard parameters from src, applying defaults.
// A fresh Config is returned on every call.
func Resolve(src Source, clock clockwork.Clock) domain.Config {
	now := clock.Now()
	return domain.Config{
		Repo:                stringParam(src, ParamRepo, ""),
		Username:            stringParam(src, ParamUsername, ""),
		Since:               stringParam(src, ParamSince, formatEndOfDay(now.AddDate(0, 0, -DefaultWindowDays))),
		Until:               stringParam(src, ParamUntil, formatEndOfDay(now)),
		ShowAvatarsAsPoints: boolParam(src, ParamShowAvatarsAsPoints),
	}
}

// formatEndOfDay moves t to the last instant of its day in t's location
// and returns the UTC calendar date of that instant.
func formatEndOfDay(t time.Time) string {
	y, m, d := t.Date()
	end := time.Date(y, m, d, 23, 59, 59, int(time.Millisecond*999), t.Location())
	return end.UTC().Format(domain.DateLayout)
}

func stringParam(src Source, name, fallback string) string {
	if v, ok := src.Lookup(name); ok {
		return v
	}
	return fallback
}

func boolParam(src Source, name string) bool {
	v, ok := src.Lookup(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
