package pagekit

import (
	"context"
	"sync"

	"pagekit/log"
	"pagekit/source/sqldb"

	"github.com/pkg/errors"
)

// Transactioner is the contract of a datasource connection that can run transactions.
// It is implemented by *sqldb.DB.
type Transactioner interface {

	// Ping checks the connectivity of the connection.
	Ping(ctx context.Context) error

	// Close closes the connection.
	Close(ctx context.Context) error

	// Begin starts a new transaction and returns a new context.
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the current transaction.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	Rollback(ctx context.Context) error
}

var _ Transactioner = (*sqldb.DB)(nil)

// Conn is a struct that holds the connection to the data source.
type Conn struct {
	db    *sqldb.DB
	mutex sync.Mutex
	log   log.Logger
}

// newConn creates a new Conn instance.
func newConn(log log.Logger) *Conn {
	return &Conn{
		log: log,
	}
}

// initDataSource opens the connection described by ds.
func (c *Conn) initDataSource(ds *DataSource) error {

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.log.WithParams(log.Params{"name": ds.Name, "type": ds.Type}).Debug("initializing data source")

	var (
		db  *sqldb.DB
		err error
	)

	switch ds.Type {
	case DataSourceMariaDB, DataSourceMySQL:
		db, err = c.openMariaDB(ds.Config)
	case DataSourceSQLite:
		db, err = sqldb.Open(sqldb.DriverSQLite, ds.Config.Path, c.log)
	default:
		return errors.Errorf("data source type %s not yet implemented", ds.Type)
	}
	if err != nil {
		return err
	}

	c.db = db
	return nil

}

// useDB wraps an already open connection.
func (c *Conn) useDB(db *sqldb.DB) {

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.db = db

}

func (c *Conn) getConnection() *sqldb.DB {

	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.db

}

func (c *Conn) getTransactionerConnection() Transactioner {
	return c.getConnection()
}

// openMariaDB opens a new connection to a MariaDB or MySQL database.
func (c *Conn) openMariaDB(cfg ConfigDetails) (*sqldb.DB, error) {

	// connect to mariadb
	return sqldb.Connect(
		sqldb.ConnectParams{
			Host:            cfg.Host,
			Port:            cfg.Port,
			Username:        cfg.Username,
			Password:        cfg.Password,
			DatabaseName:    cfg.DatabaseName,
			Parameters:      cfg.Parameters,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			MaxIdleConns:    cfg.MaxIdleConns,
			MaxOpenConns:    cfg.MaxOpenConns,
		},
		c.log,
	)

}
