package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "Landlordy <no-reply@example.com>",
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"host", func(c *Config) { c.Host = "" }, "SMTP_HOST"},
		{"port", func(c *Config) { c.Port = 0 }, "SMTP_PORT"},
		{"username", func(c *Config) { c.Username = "" }, "SMTP_USERNAME"},
		{"password", func(c *Config) { c.Password = "" }, "SMTP_PASSWORD"},
		{"from", func(c *Config) { c.From = "" }, "SMTP_FROM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	m, err := NewMailer(validConfig())
	require.NoError(t, err)

	msg, err := m.buildMessage(Email{
		To:       []string{"a@x.com"},
		Subject:  "Hello",
		Body:     "plain body",
		HTMLBody: "<p>html body</p>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Subject: Hello")
	assert.Contains(t, out, "To: a@x.com")
	assert.Contains(t, out, "plain body")
	assert.Contains(t, out, "<p>html body</p>")
}

func TestSend_NoRecipients(t *testing.T) {
	t.Parallel()

	m, err := NewMailer(validConfig())
	require.NoError(t, err)

	err = m.Send(Email{Subject: "x"})
	require.EqualError(t, err, "no recipients specified")
}
