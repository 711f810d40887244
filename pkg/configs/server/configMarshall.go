package server

import (
	"encoding/base64"
	"fmt"
	"time"

	kcirc "github.com/opst/libris/pkg/circulation"
	kdb "github.com/opst/libris/pkg/db"
)

const (
	EnvAuthSecret      = "LIBRIS_AUTH_SECRET"
	EnvAssistantAPIKey = "GEMINI_API_KEY"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type ServerConfigMarshall struct {
	Port             string                     `yaml:"port,omitempty"`
	Database         string                     `yaml:"database"`
	SchemaRepository string                     `yaml:"schemaRepository,omitempty"`
	Auth             *AuthConfigMarshall        `yaml:"auth,omitempty"`
	Circulation      *CirculationConfigMarshall `yaml:"circulation,omitempty"`
	Sweep            *SweepConfigMarshall       `yaml:"sweep,omitempty"`
	Assistant        *AssistantConfigMarshall   `yaml:"assistant,omitempty"`
	ISBN             *ISBNConfigMarshall        `yaml:"isbn,omitempty"`
}

var _ Marshalled[*ServerConfig] = &ServerConfigMarshall{}

// applyEnv overwrites secrets with environment variables, if set.
func (s *ServerConfigMarshall) applyEnv(getenv func(string) string) {
	if v := getenv(EnvAuthSecret); v != "" {
		if s.Auth == nil {
			s.Auth = &AuthConfigMarshall{}
		}
		s.Auth.Secret = v
	}
	if v := getenv(EnvAssistantAPIKey); v != "" {
		if s.Assistant == nil {
			s.Assistant = &AssistantConfigMarshall{}
		}
		s.Assistant.APIKey = v
	}
}

func (s *ServerConfigMarshall) trySeal(path string) *ServerConfig {
	return &ServerConfig{
		port:             orDefault(s.Port, "8080"),
		database:         required(s.Database, path+".database"),
		schemaRepository: s.SchemaRepository,
		auth:             orZero(s.Auth).trySeal(path + ".auth"),
		circulation:      orZero(s.Circulation).trySeal(path + ".circulation"),
		sweep:            orZero(s.Sweep).trySeal(path + ".sweep"),
		assistant:        orZero(s.Assistant).trySeal(path + ".assistant"),
		isbn:             orZero(s.ISBN).trySeal(path + ".isbn"),
	}
}

type AuthConfigMarshall struct {
	// Secret is base64 encoded.
	Secret   string `yaml:"secret,omitempty"`
	Issuer   string `yaml:"issuer,omitempty"`
	TokenTTL string `yaml:"tokenTTL,omitempty"`
}

func (a *AuthConfigMarshall) trySeal(path string) *AuthConfig {
	var secret []byte
	if a.Secret != "" {
		s, err := base64.StdEncoding.DecodeString(a.Secret)
		if err != nil {
			panic(fmt.Errorf("%s.secret is not base64: %w", path, err))
		}
		secret = s
	}
	return &AuthConfig{
		secret:   secret,
		issuer:   orDefault(a.Issuer, "libris"),
		tokenTTL: duration(a.TokenTTL, 12*time.Hour, path+".tokenTTL"),
	}
}

type PolicyMarshall struct {
	LoanDays    int `yaml:"loanDays"`
	MaxLoans    int `yaml:"maxLoans"`
	MaxRenewals int `yaml:"maxRenewals"`
}

func (p *PolicyMarshall) trySeal(path string) kcirc.Policy {
	return kcirc.Policy{
		LoanPeriod:  time.Duration(positive(p.LoanDays, path+".loanDays")) * 24 * time.Hour,
		MaxLoans:    positive(p.MaxLoans, path+".maxLoans"),
		MaxRenewals: nonnegative(p.MaxRenewals, path+".maxRenewals"),
	}
}

type CirculationConfigMarshall struct {
	// Policies by member kind (student, professor, staff).
	Policies          map[string]*PolicyMarshall `yaml:"policies,omitempty"`
	DailyFine         *int64                     `yaml:"dailyFine,omitempty"`
	MaxFinePerLoan    *int64                     `yaml:"maxFinePerLoan,omitempty"`
	LostBookFee       *int64                     `yaml:"lostBookFee,omitempty"`
	BlockingFineTotal *int64                     `yaml:"blockingFineTotal,omitempty"`
	HoldHours         *int                       `yaml:"holdHours,omitempty"`
}

// trySeal starts from the default rules and overwrites items set.
func (c *CirculationConfigMarshall) trySeal(path string) kcirc.Rules {
	r := kcirc.Default()

	for name, p := range c.Policies {
		kind, err := kdb.AsMemberKind(name)
		if err != nil {
			panic(fmt.Errorf("%s.policies.%s: %w", path, name, err))
		}
		r.Policies[kind] = nonnil(p, path+".policies."+name).trySeal(path + ".policies." + name)
	}
	if c.DailyFine != nil {
		r.DailyFine = nonnegative(*c.DailyFine, path+".dailyFine")
	}
	if c.MaxFinePerLoan != nil {
		r.MaxFinePerLoan = nonnegative(*c.MaxFinePerLoan, path+".maxFinePerLoan")
	}
	if c.LostBookFee != nil {
		r.LostBookFee = nonnegative(*c.LostBookFee, path+".lostBookFee")
	}
	if c.BlockingFineTotal != nil {
		r.BlockingFineTotal = nonnegative(*c.BlockingFineTotal, path+".blockingFineTotal")
	}
	if c.HoldHours != nil {
		r.HoldPeriod = time.Duration(positive(*c.HoldHours, path+".holdHours")) * time.Hour
	}
	return r
}

type SweepConfigMarshall struct {
	Interval        string `yaml:"interval,omitempty"`
	OverdueInterval string `yaml:"overdueInterval,omitempty"`
	Timeout         string `yaml:"timeout,omitempty"`
}

func (s *SweepConfigMarshall) trySeal(path string) *SweepConfig {
	return &SweepConfig{
		interval:        duration(s.Interval, 10*time.Minute, path+".interval"),
		overdueInterval: duration(s.OverdueInterval, time.Hour, path+".overdueInterval"),
		timeout:         duration(s.Timeout, time.Minute, path+".timeout"),
	}
}

type AssistantConfigMarshall struct {
	APIKey         string `yaml:"apiKey,omitempty"`
	ChatModel      string `yaml:"chatModel,omitempty"`
	EmbeddingModel string `yaml:"embeddingModel,omitempty"`
}

func (a *AssistantConfigMarshall) trySeal(string) *AssistantConfig {
	return &AssistantConfig{
		apiKey:         a.APIKey,
		chatModel:      orDefault(a.ChatModel, "gemini-2.5-flash"),
		embeddingModel: orDefault(a.EmbeddingModel, "gemini-embedding-001"),
	}
}

type ISBNConfigMarshall struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
}

func (i *ISBNConfigMarshall) trySeal(path string) *ISBNConfig {
	return &ISBNConfig{
		endpoint: orDefault(i.Endpoint, "https://openlibrary.org"),
		timeout:  duration(i.Timeout, 10*time.Second, path+".timeout"),
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func orZero[T any](v *T) *T {
	if v == nil {
		return new(T)
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}

func orDefault[T comparable](v T, d T) T {
	if v == *new(T) {
		return d
	}
	return v
}

func positive[T int | int64](v T, path string) T {
	if v <= 0 {
		panic(fmt.Sprintf("%s should be positive, but %d", path, v))
	}
	return v
}

func nonnegative[T int | int64](v T, path string) T {
	if v < 0 {
		panic(fmt.Sprintf("%s should not be negative, but %d", path, v))
	}
	return v
}

func duration(v string, d time.Duration, path string) time.Duration {
	if v == "" {
		return d
	}
	p, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s can not be parsed: %w", path, err))
	}
	if p <= 0 {
		panic(fmt.Sprintf("%s should be positive, but %s", path, v))
	}
	return p
}
