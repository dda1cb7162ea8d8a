package config

const redacted = "***"

// Redacted returns a deep copy of the Config with credential fields replaced
// by "***". Intended for logging the effective configuration at startup.
func (c *Config) Redacted() Config {
	out := *c

	if out.Database.DSN != "" {
		out.Database.DSN = redacted
	}
	if out.Database.Password != "" {
		out.Database.Password = redacted
	}
	if out.Redis.Password != "" {
		out.Redis.Password = redacted
	}
	if out.S3.AccessKey != "" {
		out.S3.AccessKey = redacted
	}
	if out.S3.SecretKey != "" {
		out.S3.SecretKey = redacted
	}
	if out.Notify.TelegramToken != "" {
		out.Notify.TelegramToken = redacted
	}
	if out.Notify.DiscordWebhookURL != "" {
		out.Notify.DiscordWebhookURL = redacted
	}

	// Copy slices so callers cannot mutate the original through the copy.
	out.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	out.Server.APIKeys = make([]string, len(c.Server.APIKeys))
	for i := range c.Server.APIKeys {
		out.Server.APIKeys[i] = redacted
	}
	out.Notify.Events = append([]string(nil), c.Notify.Events...)

	return out
}
