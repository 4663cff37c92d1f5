package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solana-payment-gateway/config"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

// RPC is the subset of the JSON-RPC client this package uses. *rpc.Client satisfies it.
type RPC interface {
	GetHealth(ctx context.Context) (string, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

const defaultProbeTimeout = 5 * time.Second

// Connection lazily picks the first healthy endpoint and shares one client
// for the process lifetime.
type Connection struct {
	endpoints    []string
	dial         func(endpoint string) RPC
	log          zerolog.Logger
	probeTimeout time.Duration

	once     sync.Once
	client   RPC
	endpoint string
}

// NewConnection creates a Connection over the primary and backup endpoints.
func NewConnection(cfg config.SolanaConfig, log zerolog.Logger) *Connection {
	endpoints := cfg.Endpoints()
	if len(endpoints) == 0 {
		endpoints = []string{rpc.MainNetBeta_RPC}
	}
	return &Connection{
		endpoints:    endpoints,
		dial:         func(endpoint string) RPC { return rpc.New(endpoint) },
		log:          log,
		probeTimeout: defaultProbeTimeout,
	}
}

// Client returns the shared client, selecting the endpoint on first use.
// Selection keeps ctx values but not its cancellation, so a caller that gives
// up early cannot pin the process to a fallback endpoint.
func (c *Connection) Client(ctx context.Context) RPC {
	c.once.Do(func() { c.selectEndpoint(context.WithoutCancel(ctx)) })
	return c.client
}

// Endpoint returns the selected endpoint, selecting it first if needed.
func (c *Connection) Endpoint() string {
	c.once.Do(func() { c.selectEndpoint(context.Background()) })
	return c.endpoint
}

// selectEndpoint probes each endpoint in order with its own timeout.
// When no endpoint reports healthy the primary one is used.
func (c *Connection) selectEndpoint(ctx context.Context) {
	timeout := c.probeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	for _, endpoint := range c.endpoints {
		cl := c.dial(endpoint)
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		status, err := cl.GetHealth(probeCtx)
		cancel()
		if err == nil && status == rpc.HealthOk {
			c.client, c.endpoint = cl, endpoint
			break
		}
		c.log.Warn().Err(err).Str("endpoint", endpoint).Str("status", status).Msg("solana rpc endpoint unhealthy, trying next")
	}
	if c.client == nil {
		c.endpoint = c.endpoints[0]
		c.client = c.dial(c.endpoint)
		c.log.Warn().Str("endpoint", c.endpoint).Msg("no healthy solana rpc endpoint, using primary")
	}
	c.log.Info().Str("endpoint", c.endpoint).Msg("solana rpc endpoint selected")
}

// HealthCheck implements ports.HealthChecker for the Solana RPC node.
type HealthCheck struct {
	conn *Connection
}

// NewHealthCheck creates a Solana RPC health checker.
func NewHealthCheck(conn *Connection) *HealthCheck {
	return &HealthCheck{conn: conn}
}

// Ping checks the node reports healthy.
func (h *HealthCheck) Ping(ctx context.Context) error {
	status, err := h.conn.Client(ctx).GetHealth(ctx)
	if err != nil {
		return err
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("solana rpc unhealthy: %s", status)
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "solana"
}
