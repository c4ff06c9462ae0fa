package email

import "errors"

var ErrNotConfigured = errors.New("smtp server not configured")

type SMTPConfig struct {
	Identity string
	Host     string
	Port     int
	UserName string
	Password string
}

type Config struct {
	SMTP SMTPConfig
}

var globalConfig = Config{}

func Init(config *Config) {
	globalConfig = *config
}

// Enabled reports whether an SMTP host has been configured.
func Enabled() bool {
	return len(globalConfig.SMTP.Host) != 0
}

func GenerateTestConfig() *Config {
	return &Config{SMTP: SMTPConfig{
		Identity: "sca_sender@example.com",
		Host:     "localhost",
		Port:     2525,
		UserName: "sca_sender@example.com",
		Password: "placeholder",
	}}
}
