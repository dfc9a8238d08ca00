// Package campesina is the entry point for the Conexion Campesina
// marketplace client. It wires configuration, persistence, the HTTP
// transport, and the domain stores into one Client so applications
// need a single import:
//
//	client, err := campesina.New(
//	    campesina.WithBaseURL("https://api.conexioncampesina.co"),
//	)
//
// Applications with narrower needs can import the submodules
// directly:
//   - github.com/dani-agudelo/conexion-campesina-go/core - transport, config, storage
//   - github.com/dani-agudelo/conexion-campesina-go/cart - the cart store
//   - github.com/dani-agudelo/conexion-campesina-go/orders - order composition
//   - github.com/dani-agudelo/conexion-campesina-go/notify - the notification stream
package campesina

import (
	"context"

	"github.com/dani-agudelo/conexion-campesina-go/auth"
	"github.com/dani-agudelo/conexion-campesina-go/cart"
	"github.com/dani-agudelo/conexion-campesina-go/catalog"
	"github.com/dani-agudelo/conexion-campesina-go/core"
	"github.com/dani-agudelo/conexion-campesina-go/inventory"
	"github.com/dani-agudelo/conexion-campesina-go/notify"
	"github.com/dani-agudelo/conexion-campesina-go/orders"
	"github.com/dani-agudelo/conexion-campesina-go/telemetry"
)

// Re-export the types applications touch most, so simple programs
// never import the submodules.
type (
	Config  = core.Config
	Option  = core.Option
	Logger  = core.Logger
	Storage = core.Storage

	LineItem        = cart.LineItem
	ProductSnapshot = cart.ProductSnapshot
	Order           = orders.Order
	OrderStatus     = orders.Status
	Notification    = notify.Notification
	User            = auth.User
	Role            = auth.Role
	UserStatus      = auth.UserStatus
)

// Re-export the config options.
var (
	WithBaseURL           = core.WithBaseURL
	WithHTTPTimeout       = core.WithHTTPTimeout
	WithStorageProvider   = core.WithStorageProvider
	WithStorageDir        = core.WithStorageDir
	WithRedisURL          = core.WithRedisURL
	WithReconnectDelay    = core.WithReconnectDelay
	WithTelemetry         = core.WithTelemetry
	WithTelemetryEndpoint = core.WithTelemetryEndpoint
	WithLogLevel          = core.WithLogLevel
	WithConfigFile        = core.WithConfigFile
)

// Client bundles every marketplace concern behind one handle. All
// fields are wired to share the same storage, token store, and HTTP
// transport.
type Client struct {
	config  *core.Config
	storage core.Storage
	tokens  *core.TokenStore
	api     *core.APIClient

	Cart      *cart.Store
	Orders    *orders.Client
	Checkout  *orders.Checkout
	Notify    *notify.Store
	Stream    *notify.Consumer
	Inventory *inventory.Client
	Catalog   *catalog.Client
	Auth      *auth.Client

	telemetryProvider *telemetry.Provider
}

// New builds a fully wired client. Configuration follows the usual
// precedence: defaults, then environment, then the given options.
func New(opts ...core.Option) (*Client, error) {
	return NewWithContext(context.Background(), opts...)
}

// NewWithContext is New with a context governing the initial storage
// loads (cart state and persisted token).
func NewWithContext(ctx context.Context, opts ...core.Option) (*Client, error) {
	cfg, err := core.NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	logger := core.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	storage, err := core.NewStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := core.NewTokenStore(ctx, storage, logger)
	if err != nil {
		return nil, err
	}

	clientOpts := []core.ClientOption{
		core.WithLogger(logger),
		core.WithTokenStore(tokens),
	}

	var telemetryProvider *telemetry.Provider
	if cfg.Telemetry.Enabled {
		telemetryProvider, err = telemetry.New(telemetry.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.Endpoint,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, core.WithClientTelemetry(telemetryProvider))
	}

	api := core.NewAPIClient(cfg, clientOpts...)

	cartStore, err := cart.NewStore(ctx, storage, logger)
	if err != nil {
		return nil, err
	}

	orderClient := orders.NewClient(api)
	notifyStore := notify.NewStore(notify.WithStoreLogger(logger))

	return &Client{
		config:  cfg,
		storage: storage,
		tokens:  tokens,
		api:     api,

		Cart:     cartStore,
		Orders:   orderClient,
		Checkout: orders.NewCheckout(cartStore, orderClient, orders.WithCheckoutLogger(logger)),
		Notify:   notifyStore,
		Stream: notify.NewConsumer(api, notifyStore,
			notify.WithStreamPath(cfg.Stream.Path),
			notify.WithReconnectDelay(cfg.Stream.ReconnectDelay),
			notify.WithConsumerLogger(logger)),
		Inventory: inventory.NewClient(api),
		Catalog:   catalog.NewClient(api),
		Auth:      auth.NewClient(api, nil),

		telemetryProvider: telemetryProvider,
	}, nil
}

// Config returns the resolved configuration.
func (c *Client) Config() *core.Config {
	return c.config
}

// API exposes the underlying transport for endpoints this client does
// not model.
func (c *Client) API() *core.APIClient {
	return c.api
}

// Tokens exposes the persisted token store.
func (c *Client) Tokens() *core.TokenStore {
	return c.tokens
}

// Close stops the notification stream and releases storage and
// telemetry resources.
func (c *Client) Close(ctx context.Context) error {
	c.Stream.Stop()

	var firstErr error
	if closer, ok := c.storage.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if c.telemetryProvider != nil {
		if err := c.telemetryProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
