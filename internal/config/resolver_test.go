package config

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC))

	testCases := []struct {
		name     string
		query    string
		expected domain.Config
	}{
		{
			name:  "empty query - all defaults",
			query: "",
			expected: domain.Config{
				Since: "2026-09-30",
				Until: "2026-10-14",
			},
		},
		{
			name:  "all parameters set",
			query: "repo=octo/hello&username=octocat&since=2026-01-01&until=2026-02-01&showAvatarsAsPoints=1",
			expected: domain.Config{
				Repo:                "octo/hello",
				Username:            "octocat",
				Since:               "2026-01-01",
				Until:               "2026-02-01",
				ShowAvatarsAsPoints: true,
			},
		},
		{
			name:  "leading question mark and partial parameters",
			query: "?repo=octo/hello&until=2026-03-01",
			expected: domain.Config{
				Repo:  "octo/hello",
				Since: "2026-09-30",
				Until: "2026-03-01",
			},
		},
		{
			name:  "unparseable bool falls back to false",
			query: "showAvatarsAsPoints=maybe",
			expected: domain.Config{
				Since: "2026-09-30",
				Until: "2026-10-14",
			},
		},
		{
			name:  "explicit false",
			query: "showAvatarsAsPoints=0&username=octocat",
			expected: domain.Config{
				Username: "octocat",
				Since:    "2026-09-30",
				Until:    "2026-10-14",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src, err := ParseQuery(tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, Resolve(src, clock))
		})
	}
}

func TestResolve_DefaultWindowIsFourteenDays(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 10, 23, 59, 0, 0, time.UTC),
	} {
		cfg := Resolve(QuerySource{}, clockwork.NewFakeClockAt(now))

		until, err := time.Parse(domain.DateLayout, cfg.Until)
		require.NoError(t, err)
		since, err := time.Parse(domain.DateLayout, cfg.Since)
		require.NoError(t, err)

		assert.Equal(t, now.Format(domain.DateLayout), cfg.Until)
		assert.Equal(t, until.AddDate(0, 0, -DefaultWindowDays), since)
	}
}

func TestResolve_EndOfDayIsRenderedInUTC(t *testing.T) {
	// 23:59 local in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 8, 0, 0, 0, loc))

	cfg := Resolve(QuerySource{}, clock)

	assert.Equal(t, "2026-10-15", cfg.Until)
	assert.Equal(t, "2026-10-01", cfg.Since)
}

func TestSources_FlagsOverrideQuery(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("repo", "", "")
	flags.String("username", "", "")
	flags.Bool("show-avatars-as-points", false, "")
	require.NoError(t, flags.Parse([]string{"--username", "from-flag", "--show-avatars-as-points"}))

	query, err := ParseQuery("repo=octo/hello&username=from-query")
	require.NoError(t, err)

	src := Sources{
		FlagSource{Flags: flags, Names: map[string]string{ParamShowAvatarsAsPoints: "show-avatars-as-points"}},
		query,
	}
	cfg := Resolve(src, clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "octo/hello", cfg.Repo, "unset flag must not shadow the query")
	assert.Equal(t, "from-flag", cfg.Username)
	assert.True(t, cfg.ShowAvatarsAsPoints)
}

func TestFlagSource_NilFlags(t *testing.T) {
	_, ok := FlagSource{}.Lookup(ParamRepo)
	assert.False(t, ok)
}
