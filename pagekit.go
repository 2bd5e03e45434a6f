package pagekit

import (
	"context"
	stdLog "log"
	"os"
	"path/filepath"
	"strings"

	"pagekit/log"
	"pagekit/source/sqldb"
	"pagekit/trace"

	"github.com/pkg/errors"
)

// Client pages the SQL runners of one datasource.
// It is safe for concurrent use.
type Client struct {
	conn     *Conn
	log      log.Logger
	runners  map[string]string
	paging   PagingConfig
	observer Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger replaces the logger built from the configuration.
func WithClientLogger(logger log.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithMetrics reports every count and slice of the client's runners to observer.
func WithMetrics(observer Observer) ClientOption {
	return func(c *Client) {
		c.observer = observer
	}
}

// Init initializes the client for the given datasource from pagekit.yaml.
// It stops the process when the client cannot be built.
func Init(datasourceName string, opts ...ClientOption) *Client {

	client, err := Open(DefaultConfigPath, datasourceName, opts...)
	if err != nil {
		stdLog.Fatalf("error initializing pagekit: %v", err)
	}

	return client

}

// Open loads the configuration at configPath and builds a client for the given datasource.
func Open(configPath, datasourceName string, opts ...ClientOption) (*Client, error) {

	// load config
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "error loading yaml config")
	}

	return New(cfg, datasourceName, opts...)

}

// New builds a client for the given datasource of cfg.
func New(cfg *Config, datasourceName string, opts ...ClientOption) (*Client, error) {

	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// find datasource by name
	ds, err := cfg.FindByName(datasourceName)
	if err != nil {
		return nil, err
	}

	// init log
	client := &Client{
		log:    log.New("pagekit"),
		paging: cfg.Paging,
	}
	if err := log.SetLevelString(cfg.Log.Level); err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	for _, opt := range opts {
		opt(client)
	}

	// init runners
	client.runners, err = initRunners(cfg.Runner.Paths)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing runners")
	}

	// init conn
	client.conn = newConn(client.log)
	if err := client.conn.initDataSource(ds); err != nil {
		return nil, errors.Wrap(err, "error initializing data source")
	}

	return client, nil

}

// initRunners walks through directories, reads all files, and stores their content in a map.
// The map's key is the file name without the extension, and the value is the file's content.
func initRunners(paths []string) (map[string]string, error) {
	contentMap := make(map[string]string)

	for _, rootPath := range paths {
		// Walk through each directory
		err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			// Skip directories
			if info.IsDir() {
				return nil
			}

			// Get the file name without the extension
			fileName := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))

			// Read the file content
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			// Store the file name and content in the map
			contentMap[fileName] = strings.TrimSpace(string(content))
			return nil
		})

		if err != nil {
			return nil, err
		}
	}

	return contentMap, nil
}

// DB returns the connection of the client's datasource.
func (c *Client) DB() *sqldb.DB {
	return c.conn.getConnection()
}

// NewRequest returns a first-page request with the configured default size and cap.
func (c *Client) NewRequest() *Request {

	return NewRequestWithMax(c.paging.MaxPageSize).SetPageSize(c.paging.DefaultPageSize)

}

// Run starts a runner for the SQL file named runner.
func (c *Client) Run(runner string) *Runner {

	return newRunner(runnerParams{
		runnerCode:    runner,
		client:        c,
		log:           c.log,
		inTransaction: false,
	})
}

// WithTransaction initializes a new query with transaction.
// it takes a context and callback as input.
// callback takes a context and tx as input and is committed when it returns no error.
// tx runs its runners inside the transaction carried by the context.
func (c *Client) WithTransaction(ctx context.Context, callback TxFunc) (out any, err error) {

	// inject request id to context
	ctx = c.injectRequestID(ctx)

	// get transactioner connection
	c.log.With(ctx).Debug("getting connection")
	conn := c.conn.getTransactionerConnection()

	// begin transaction
	c.log.With(ctx).Debug("beginning transaction")
	ctx, err = conn.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	// defer rollback or commit transaction
	defer c.handleTransaction(ctx, conn, &err)

	// execute callback
	c.log.With(ctx).Debug("executing callback")
	out, err = callback(ctx, newTx(c, c.log))

	return
}

// handleTransaction rolls back the transaction if a panic occurs or if *errp is set,
// otherwise it commits. A failed commit is reported through errp.
func (c *Client) handleTransaction(ctx context.Context, conn Transactioner, errp *error) {

	if p := recover(); p != nil {

		c.log.With(ctx).Debug("panic occurred, rolling back transaction")

		if err := conn.Rollback(ctx); err != nil {
			c.log.With(ctx).WithStack(err).Error("failed to rollback transaction")
		}
		panic(p) // re-throw panic after Rollback

	} else if *errp != nil {

		c.log.With(ctx).Debug("error occurred, rolling back transaction")

		if err := conn.Rollback(ctx); err != nil {
			c.log.With(ctx).WithStack(err).Error("failed to rollback transaction")
		}

	} else {

		c.log.With(ctx).Debug("committing transaction")

		if err := conn.Commit(ctx); err != nil {
			*errp = errors.Wrap(err, "failed to commit transaction")
		}

	}
}

// Ping checks the datasource connection.
func (c *Client) Ping(ctx context.Context) error {

	ctx = c.injectRequestID(ctx)
	c.log.With(ctx).Debug("pinging data source")

	return c.conn.getTransactionerConnection().Ping(ctx)

}

// Close closes the datasource connection.
func (c *Client) Close(ctx context.Context) error {

	ctx = c.injectRequestID(ctx)
	c.log.With(ctx).Debug("closing data source")

	return c.conn.getTransactionerConnection().Close(ctx)

}

// injectRequestID injects request id to context.
func (c *Client) injectRequestID(ctx context.Context) context.Context {
	return trace.EnsureRequestID(ctx)
}
