package sqldb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"pagekit/log"
	"pagekit/vars"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DBI is an interface that represents a database interface.
// It is implemented by sqlx.DB and sqlx.Tx.
type DBI interface {
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

// DB is a pooled SQL connection that pages queries.
type DB struct {
	conn *sqlx.DB
	log  log.Logger
}

type contextKey string

var (
	contextKeyTx = contextKey("tx") // contextKeyTx is a context key used to store the transaction in the context.
)

// ConnectParams holds the MariaDB / MySQL connection settings.
// Durations are in seconds.
type ConnectParams struct {
	Host            string
	Port            int
	Username        string
	Password        string
	DatabaseName    string
	Parameters      url.Values
	ConnMaxIdleTime int
	ConnMaxLifetime int
	MaxIdleConns    int
	MaxOpenConns    int
}

// Connect establishes a connection to a MariaDB or MySQL database.
// The DSN is built as "username:password@tcp(host:port)/dbname?param=value".
func Connect(params ConnectParams, log log.Logger) (*DB, error) {

	var (
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", params.Username, params.Password, params.Host, params.Port, params.DatabaseName, params.Parameters.Encode())
	)

	// connect to the database
	conn, err := sqlx.Connect(DriverMySQL, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mysql")
	}

	// set connection parameters
	conn.SetConnMaxIdleTime(time.Duration(params.ConnMaxIdleTime) * time.Second)
	conn.SetConnMaxLifetime(time.Duration(params.ConnMaxLifetime) * time.Second)
	conn.SetMaxIdleConns(params.MaxIdleConns)
	conn.SetMaxOpenConns(params.MaxOpenConns)

	return New(conn, log), nil

}

// Open connects with any registered driver, e.g. Open(DriverSQLite, ":memory:", logger).
// SQLite gets a single connection, so an in-memory database is shared by every query.
func Open(driverName, dsn string, log log.Logger) (*DB, error) {

	conn, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", driverName)
	}

	if driverName == DriverSQLite {
		conn.SetMaxOpenConns(1)
	}

	return New(conn, log), nil

}

// New wraps an open connection.
func New(conn *sqlx.DB, logger log.Logger) *DB {

	if logger == nil {
		logger = log.NewMock()
	}

	// set mapper to use standard tag key
	conn.Mapper = reflectx.NewMapperFunc(vars.TagKey, strings.ToLower)

	return &DB{
		conn: conn,
		log:  logger,
	}

}

// Conn returns the underlying connection pool.
func (d *DB) Conn() *sqlx.DB {
	return d.conn
}

// Ping checks that the database is still alive and responsive.
func (d *DB) Ping(ctx context.Context) error {

	if err := d.conn.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}

	return nil

}

// Close closes the connection pool.
func (d *DB) Close(_ context.Context) error {

	if err := d.conn.Close(); err != nil {
		return errors.Wrap(err, "failed to close connection")
	}

	return nil

}

// dbi returns the transaction carried by ctx, or the pool when there is none.
func (d *DB) dbi(ctx context.Context) DBI {

	if tx, ok := ctx.Value(contextKeyTx).(*sqlx.Tx); ok {
		return tx
	}

	return d.conn

}

// InTransaction reports whether ctx carries a transaction started by Begin.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(contextKeyTx).(*sqlx.Tx)
	return ok
}

// Begin starts a new transaction and returns a context carrying it.
// Queries run with that context, including page counts and slices, use the transaction.
func (d *DB) Begin(ctx context.Context) (context.Context, error) {

	if InTransaction(ctx) {
		return nil, errors.New("transaction already started")
	}

	tx, err := d.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	// create and return a new context with the transaction information
	ctx = context.WithValue(ctx, contextKeyTx, tx)
	return ctx, nil
}

// Commit commits the transaction carried by ctx.
func (d *DB) Commit(ctx context.Context) error {

	tx, ok := ctx.Value(contextKeyTx).(*sqlx.Tx)
	if !ok {
		return errors.New("failed to commit, transaction not found in context")
	}

	err := tx.Commit()
	if err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil

}

// Rollback rolls back the transaction carried by ctx.
func (d *DB) Rollback(ctx context.Context) error {

	tx, ok := ctx.Value(contextKeyTx).(*sqlx.Tx)
	if !ok {
		return errors.New("failed to rollback, transaction not found in context")
	}

	err := tx.Rollback()
	if err != nil {
		return errors.Wrap(err, "failed to rollback transaction")
	}

	return nil
}
