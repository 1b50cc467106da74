package domain

// DateLayout is the format of Config.Since and Config.Until.
const DateLayout = "2006-01-02"

// Config holds the dashboard parameters resolved from a query string.
type Config struct {
	Username            string `json:"username"`
	Repo                string `json:"repo"`
	Since               string `json:"since"`
	Until               string `json:"until"`
	ShowAvatarsAsPoints bool   `json:"showAvatarsAsPoints"`
}

// ConfigKey is the part of a Config that identifies a fetch cycle.
// ShowAvatarsAsPoints is presentation only and does not trigger a refetch.
type ConfigKey struct {
	Username string
	Repo     string
	Since    string
	Until    string
}

// Key returns the identifying parameters of c.
func (c Config) Key() ConfigKey {
	return ConfigKey{Username: c.Username, Repo: c.Repo, Since: c.Since, Until: c.Until}
}
