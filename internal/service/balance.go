// Package service holds the request pipelines behind the HTTP API: token
// balance and metadata lookups against the chain, and transaction history
// fetched from the explorer and kept in the store.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matrixise/tokenscan/internal/blockchain"
	"github.com/matrixise/tokenscan/internal/join"
	"github.com/matrixise/tokenscan/internal/validation"
)

// Sentinels used when a best-effort metadata call fails
const (
	UnknownSymbol   = "UNKNOWN"
	UnknownName     = "Unknown Token"
	DefaultDecimals = uint8(18)
)

// ChainReader is the subset of the chain client the balance pipeline needs
type ChainReader interface {
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
	TokenName(ctx context.Context, token common.Address) (string, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	BalanceOf(ctx context.Context, token, wallet common.Address) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// MetadataCache stores token metadata between requests
type MetadataCache interface {
	Get(ctx context.Context, address string, dst any) (bool, error)
	Set(ctx context.Context, address string, v any) error
}

type TokenDetails struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// BalanceAmount holds a balance in base units and scaled by the token decimals.
// Formatted is emitted as a JSON number with full precision.
type BalanceAmount struct {
	Raw       string      `json:"raw"`
	Formatted json.Number `json:"formatted"`
}

// TokenBalance is the balance of one wallet for one ERC20 token
type TokenBalance struct {
	TokenAddress  string        `json:"tokenAddress"`
	WalletAddress string        `json:"walletAddress"`
	TokenDetails  TokenDetails  `json:"tokenDetails"`
	Balance       BalanceAmount `json:"balance"`
	LastBlock     uint64        `json:"lastBlock"`
	LastUpdated   time.Time     `json:"lastUpdated"`
}

type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type balanceRequest struct {
	TokenAddress  string `json:"tokenAddress" validate:"eth_address" msg:"Invalid token address"`
	WalletAddress string `json:"walletAddress" validate:"eth_address" msg:"Invalid wallet address"`
}

type tokenInfoRequest struct {
	TokenAddress string `json:"tokenAddress" validate:"eth_address" msg:"Invalid token address"`
}

// BalanceService reads token balances and metadata from the chain
type BalanceService struct {
	chain    ChainReader
	cache    MetadataCache
	validate *validation.Validator
	now      func() time.Time
}

func NewBalanceService(chain ChainReader, validate *validation.Validator) *BalanceService {
	return &BalanceService{
		chain:    chain,
		validate: validate,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithCache serves token info lookups through c
func (s *BalanceService) WithCache(c MetadataCache) *BalanceService {
	s.cache = c
	return s
}

// GetTokenBalance returns the balance of wallet for token together with the
// token metadata and the current block height. Metadata calls fall back to
// sentinels; balanceOf and block height failures fail the request.
func (s *BalanceService) GetTokenBalance(ctx context.Context, token, wallet string) (TokenBalance, error) {
	if fields := s.validate.Check(balanceRequest{TokenAddress: token, WalletAddress: wallet}, "body"); len(fields) > 0 {
		return TokenBalance{}, &ValidationError{Fields: fields}
	}

	tokenAddr := strings.ToLower(token)
	walletAddr := strings.ToLower(wallet)
	tokenContract := common.HexToAddress(tokenAddr)

	var (
		details TokenDetails
		raw     *big.Int
		height  uint64
	)
	err := join.All(ctx,
		func(ctx context.Context) error {
			balance, err := s.chain.BalanceOf(ctx, tokenContract, common.HexToAddress(walletAddr))
			if err != nil {
				return &ChainCallError{Op: "balanceOf", Err: err}
			}
			raw = balance
			return nil
		},
		func(ctx context.Context) error {
			n, err := s.chain.BlockNumber(ctx)
			if err != nil {
				return &ChainCallError{Op: "blockNumber", Err: err}
			}
			height = n
			return nil
		},
		func(ctx context.Context) error {
			details = s.bestEffortDetails(ctx, tokenContract)
			return nil
		},
	)
	if err != nil {
		slog.Error("Failed to fetch token balance",
			"token", tokenAddr,
			"wallet", walletAddr,
			"error", err)
		return TokenBalance{}, &BalanceFetchError{Err: err}
	}

	return TokenBalance{
		TokenAddress:  tokenAddr,
		WalletAddress: walletAddr,
		TokenDetails:  details,
		Balance: BalanceAmount{
			Raw:       raw.String(),
			Formatted: json.Number(blockchain.HumanBalance(raw, details.Decimals)),
		},
		LastBlock:   height,
		LastUpdated: s.now(),
	}, nil
}

func (s *BalanceService) bestEffortDetails(ctx context.Context, token common.Address) TokenDetails {
	var d TokenDetails
	errs := join.Settle(ctx,
		join.Fallback(&d.Symbol, UnknownSymbol, func(ctx context.Context) (string, error) {
			return s.chain.TokenSymbol(ctx, token)
		}),
		join.Fallback(&d.Name, UnknownName, func(ctx context.Context) (string, error) {
			return s.chain.TokenName(ctx, token)
		}),
		join.Fallback(&d.Decimals, DefaultDecimals, func(ctx context.Context) (uint8, error) {
			return s.chain.TokenDecimals(ctx, token)
		}),
	)
	for i, op := range []string{"symbol", "name", "decimals"} {
		if errs[i] != nil {
			slog.Warn("Token metadata call failed, using fallback",
				"token", strings.ToLower(token.Hex()),
				"call", op,
				"error", errs[i])
		}
	}
	return d
}

// GetTokenInfo returns the metadata of token. Every call must succeed.
func (s *BalanceService) GetTokenInfo(ctx context.Context, token string) (TokenInfo, error) {
	if fields := s.validate.Check(tokenInfoRequest{TokenAddress: token}, "params"); len(fields) > 0 {
		return TokenInfo{}, &ValidationError{Fields: fields}
	}

	tokenAddr := strings.ToLower(token)

	if s.cache != nil {
		var cached TokenInfo
		found, err := s.cache.Get(ctx, tokenAddr, &cached)
		switch {
		case err != nil:
			slog.Warn("Token cache lookup failed", "token", tokenAddr, "error", err)
		case found:
			slog.Debug("Token info served from cache", "token", tokenAddr)
			return cached, nil
		}
	}

	contract := common.HexToAddress(tokenAddr)
	info := TokenInfo{Address: tokenAddr}
	err := join.All(ctx,
		func(ctx context.Context) error {
			v, err := s.chain.TokenSymbol(ctx, contract)
			if err != nil {
				return &ChainCallError{Op: "symbol", Err: err}
			}
			info.Symbol = v
			return nil
		},
		func(ctx context.Context) error {
			v, err := s.chain.TokenName(ctx, contract)
			if err != nil {
				return &ChainCallError{Op: "name", Err: err}
			}
			info.Name = v
			return nil
		},
		func(ctx context.Context) error {
			v, err := s.chain.TokenDecimals(ctx, contract)
			if err != nil {
				return &ChainCallError{Op: "decimals", Err: err}
			}
			info.Decimals = v
			return nil
		},
	)
	if err != nil {
		return TokenInfo{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tokenAddr, info); err != nil {
			slog.Warn("Failed to cache token info", "token", tokenAddr, "error", err)
		}
	}
	return info, nil
}
