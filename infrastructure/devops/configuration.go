package devops

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// DBEntry holds the connection parameters of one logical store.
type DBEntry struct {
	Name     string `yaml:"name" json:"name"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	Database string `yaml:"database" json:"database"`
	Dialect  string `yaml:"dialect" json:"dialect"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}

func (db DBEntry) database() string {
	if db.Database != "" {
		return db.Database
	}
	return db.Name
}

func (db DBEntry) port() int {
	if db.Port != 0 {
		return db.Port
	}
	if db.Dialect == "mysql" {
		return 3306
	}
	return 5432
}

// DSN renders a postgres keyword DSN or a mysql DSN depending on Dialect.
func (db DBEntry) DSN() string {
	host := db.Host
	port := db.port()
	// host may already carry a port, e.g. "db.internal:6432"
	if h, p, err := net.SplitHostPort(db.Host); err == nil {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	if db.Dialect == "mysql" {
		cfg := mysql.NewConfig()
		cfg.User = db.Username
		cfg.Passwd = db.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
		cfg.DBName = db.database()
		cfg.ParseTime = true
		return cfg.FormatDSN()
	}

	sslmode := db.SSLMode
	if sslmode == "" {
		sslmode = "prefer"
	}
	parts := []string{
		"host=" + quote(host),
		"port=" + strconv.Itoa(port),
		"user=" + quote(db.Username),
		"password=" + quote(db.Password),
		"dbname=" + quote(db.database()),
		"sslmode=" + quote(sslmode),
	}
	return strings.Join(parts, " ")
}

func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Provider yields connection parameters for a logical store name.
type Provider interface {
	Lookup(ctx context.Context, name string) (DBEntry, error)
}

// NewProvider returns the provider registered under kind ("env" or "ssm").
func NewProvider(kind string, dialect string) (Provider, error) {
	switch kind {
	case "", "env":
		return &EnvProvider{Dialect: dialect, Getenv: os.Getenv}, nil
	case "ssm":
		return &SSMProvider{ParameterName: "databases", Dialect: dialect}, nil
	}
	return nil, fmt.Errorf("unknown credential provider %q", kind)
}

// EnvProvider reads DB_HOST, DB_PORT, DB_USER and DB_PASSWORD. The logical
// name is the database name.
type EnvProvider struct {
	Dialect string
	Getenv  func(string) string
}

func (p *EnvProvider) Lookup(ctx context.Context, name string) (DBEntry, error) {
	if name == "" {
		return DBEntry{}, fmt.Errorf("database name is required")
	}

	entry := DBEntry{
		Name:     name,
		Host:     p.Getenv("DB_HOST"),
		Username: p.Getenv("DB_USER"),
		Password: p.Getenv("DB_PASSWORD"),
		Database: name,
		Dialect:  p.Dialect,
		SSLMode:  p.Getenv("DB_SSLMODE"),
	}
	if entry.Host == "" {
		return DBEntry{}, fmt.Errorf("DB_HOST is not set")
	}
	if port := p.Getenv("DB_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return DBEntry{}, fmt.Errorf("invalid DB_PORT %q: %w", port, err)
		}
		entry.Port = n
	}
	if d := p.Getenv("DB_DIALECT"); d != "" && entry.Dialect == "" {
		entry.Dialect = d
	}
	return entry, nil
}

// SSMProvider reads a YAML list of DBEntry from an SSM parameter.
type SSMProvider struct {
	ParameterName string
	Dialect       string
	Client        SSMClient

	once    sync.Once
	entries map[string]DBEntry
	loadErr error
}

type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func (p *SSMProvider) Lookup(ctx context.Context, name string) (DBEntry, error) {
	p.once.Do(func() {
		p.entries, p.loadErr = p.load(ctx)
	})
	if p.loadErr != nil {
		return DBEntry{}, p.loadErr
	}

	entry, ok := p.entries[strings.ToLower(name)]
	if !ok {
		return DBEntry{}, fmt.Errorf("database '%s' not found in parameter store", name)
	}
	if entry.Dialect == "" {
		entry.Dialect = p.Dialect
	}
	return entry, nil
}

func (p *SSMProvider) load(ctx context.Context) (map[string]DBEntry, error) {
	client := p.Client
	if client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client = ssm.NewFromConfig(cfg)
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(p.ParameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get parameter %s: %w", p.ParameterName, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s is empty", p.ParameterName)
	}

	return ParseDBEntries([]byte(*out.Parameter.Value))
}

// ParseDBEntries decodes the YAML list stored in the parameter, keyed by
// lower case name.
func ParseDBEntries(data []byte) (map[string]DBEntry, error) {
	var parsed []DBEntry
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	result := make(map[string]DBEntry, len(parsed))
	for _, entry := range parsed {
		result[strings.ToLower(entry.Name)] = entry
	}
	return result, nil
}
