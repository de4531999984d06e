package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type LogLevel int

const (
	LogLevelSilent LogLevel = iota + 1
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// ParseLogLevel maps an application log level to the gorm one. Only debug
// and trace make gorm print every statement.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return LogLevelInfo
	case "", "info", "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelSilent
	}
}

type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

func (d Dialect) driverName() (string, error) {
	switch d {
	case Postgres, "":
		return "pgx", nil
	case MySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("unsupported dialect %q", d)
}

type DatabaseManager struct {
	SqlDB    *sql.DB
	Dialect  Dialect
	LogLevel LogLevel
	ReadOnly bool
}

// New opens a pool for one store. dsn must already name the database.
func New(dialect Dialect, dsn string, maxConnection int) (*DatabaseManager, error) {
	driverName, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxConnection)
	sqlDB.SetMaxIdleConns(maxConnection)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, NewFatal("", fmt.Errorf("failed to ping pool: %w", err))
	}

	if dialect == "" {
		dialect = Postgres
	}
	return &DatabaseManager{SqlDB: sqlDB, Dialect: dialect}, nil
}

// GetDB gets a *gorm.DB bound to a single connection. When the manager is
// read only the session is switched to read only transactions.
func (dm *DatabaseManager) GetDB(ctx context.Context) (*gorm.DB, *sql.Conn, error) {
	// Get a dedicated connection from pool
	conn, err := dm.SqlDB.Conn(ctx)
	if err != nil {
		return nil, nil, NewFatal("", fmt.Errorf("failed to get conn: %w", err))
	}

	if dm.ReadOnly {
		stmt := "SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY"
		if dm.Dialect == MySQL {
			stmt = "SET SESSION TRANSACTION READ ONLY"
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to set read only session: %w", err)
		}
	}

	var dialector gorm.Dialector
	switch dm.Dialect {
	case MySQL:
		dialector = mysql.New(mysql.Config{Conn: conn})
	default:
		dialector = postgres.New(postgres.Config{Conn: conn})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(GormLogLevel(dm.LogLevel)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return db, conn, nil
}

// GormLogLevel maps local LogLevel to GORM LogLevel.
func GormLogLevel(level LogLevel) logger.LogLevel {
	switch level {
	case LogLevelError:
		return logger.Error
	case LogLevelWarn:
		return logger.Warn
	case LogLevelInfo:
		return logger.Info
	case LogLevelSilent:
		return logger.Silent
	default:
		return logger.Info
	}
}

// Close closes the pool
func (dm *DatabaseManager) Close() error {
	return dm.SqlDB.Close()
}

func (dm *DatabaseManager) Exec(ctx context.Context, fn func(db *gorm.DB) error) error {
	db, conn, err := dm.GetDB(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(db)
}

// Ping checks that the store answers on a pinned connection.
func (dm *DatabaseManager) Ping(ctx context.Context) error {
	return dm.Exec(ctx, func(db *gorm.DB) error {
		var one int
		return db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
	})
}

// Store is a pinned connection together with the pool it came from.
type Store struct {
	DB   *gorm.DB
	conn *sql.Conn
	dm   *DatabaseManager
}

// OpenStore opens a single connection store. The pool is sized to one
// connection since a run never needs more.
func OpenStore(ctx context.Context, dialect Dialect, dsn string, readOnly bool, level LogLevel) (*Store, error) {
	dm, err := New(dialect, dsn, 1)
	if err != nil {
		return nil, err
	}
	dm.ReadOnly = readOnly
	dm.LogLevel = level

	db, conn, err := dm.GetDB(ctx)
	if err != nil {
		dm.Close()
		return nil, err
	}
	return &Store{DB: db, conn: conn, dm: dm}, nil
}

// Close releases the connection and the pool.
func (s *Store) Close() error {
	connErr := s.conn.Close()
	if err := s.dm.Close(); err != nil {
		return err
	}
	return connErr
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}
