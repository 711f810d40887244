// Package server reads the configuration file shared by the libris server, daemons and CLI.
//
// To get a ServerConfig, use Load or Unmarshal. Both seal a ServerConfigMarshall,
// which panics on misconfiguration.
package server

import (
	"time"

	kcirc "github.com/opst/libris/pkg/circulation"
)

type ServerConfig struct {
	port             string
	database         string
	schemaRepository string
	auth             *AuthConfig
	circulation      kcirc.Rules
	sweep            *SweepConfig
	assistant        *AssistantConfig
	isbn             *ISBNConfig
}

// Port where the server listens.
func (c *ServerConfig) Port() string {
	return c.port
}

// Connection string for database.
func (c *ServerConfig) Database() string {
	return c.database
}

// Directory of versioned schema. Empty when not configured.
func (c *ServerConfig) SchemaRepository() string {
	return c.schemaRepository
}

func (c *ServerConfig) Auth() *AuthConfig {
	return c.auth
}

// Circulation rules; loan policies and fees.
func (c *ServerConfig) Circulation() kcirc.Rules {
	return c.circulation
}

func (c *ServerConfig) Sweep() *SweepConfig {
	return c.sweep
}

func (c *ServerConfig) Assistant() *AssistantConfig {
	return c.assistant
}

func (c *ServerConfig) ISBN() *ISBNConfig {
	return c.isbn
}

type AuthConfig struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

// Secret to sign tokens. Empty when not configured.
func (a *AuthConfig) Secret() []byte {
	return a.secret
}

func (a *AuthConfig) Issuer() string {
	return a.issuer
}

func (a *AuthConfig) TokenTTL() time.Duration {
	return a.tokenTTL
}

type SweepConfig struct {
	interval        time.Duration
	overdueInterval time.Duration
	timeout         time.Duration
}

// Interval of the hold expiry sweep.
func (s *SweepConfig) Interval() time.Duration {
	return s.interval
}

// Interval of the overdue report.
func (s *SweepConfig) OverdueInterval() time.Duration {
	return s.overdueInterval
}

// Timeout of an iteration of sweeps.
func (s *SweepConfig) Timeout() time.Duration {
	return s.timeout
}

type AssistantConfig struct {
	apiKey         string
	chatModel      string
	embeddingModel string
}

func (a *AssistantConfig) APIKey() string {
	return a.apiKey
}

// Enabled is true when an API key is configured.
func (a *AssistantConfig) Enabled() bool {
	return a.apiKey != ""
}

func (a *AssistantConfig) ChatModel() string {
	return a.chatModel
}

func (a *AssistantConfig) EmbeddingModel() string {
	return a.embeddingModel
}

type ISBNConfig struct {
	endpoint string
	timeout  time.Duration
}

func (i *ISBNConfig) Endpoint() string {
	return i.endpoint
}

func (i *ISBNConfig) Timeout() time.Duration {
	return i.timeout
}
