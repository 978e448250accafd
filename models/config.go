package models

// DefaultTargetUser is audited when no username is given on the command line
// or in the config file.
const DefaultTargetUser = "octocat"

// DefaultReportPath is the report artifact written to the working directory.
const DefaultReportPath = "scan-report.json"

type Config struct {
	DefaultUser string   `json:"default_user" mapstructure:"default_user"`
	ReportPath  string   `json:"report_path" mapstructure:"report_path"`
	Blocklists  []string `json:"blocklists" mapstructure:"blocklists"`
}

func DefaultConfig() *Config {
	return &Config{
		DefaultUser: DefaultTargetUser,
		ReportPath:  DefaultReportPath,
	}
}

// ApplyDefaults fills zero-valued fields after a partial config file load.
func (c *Config) ApplyDefaults() {
	if c.DefaultUser == "" {
		c.DefaultUser = DefaultTargetUser
	}
	if c.ReportPath == "" {
		c.ReportPath = DefaultReportPath
	}
}
