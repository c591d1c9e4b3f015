package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}
]`

// TokenSymbol calls symbol() on the token contract
func (c *Client) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	out, err := c.call(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("symbol: unexpected output type %T", out)
	}
	return symbol, nil
}

// TokenName calls name() on the token contract
func (c *Client) TokenName(ctx context.Context, token common.Address) (string, error) {
	out, err := c.call(ctx, token, "name")
	if err != nil {
		return "", err
	}
	name, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("name: unexpected output type %T", out)
	}
	return name, nil
}

// TokenDecimals calls decimals() on the token contract
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := c.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := out.(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected output type %T", out)
	}
	return decimals, nil
}

// BalanceOf returns the base-unit token balance held by wallet
func (c *Client) BalanceOf(ctx context.Context, token, wallet common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, "balanceOf", wallet)
	if err != nil {
		return nil, err
	}
	balance, ok := out.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected output type %T", out)
	}
	return balance, nil
}

// call performs a read-only contract call and returns its single output value
func (c *Client) call(ctx context.Context, token common.Address, method string, args ...any) (any, error) {
	payload, err := c.parsedABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", method, err)
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var res []byte
	err = c.retryWithBackoff(rpcCtx, func(ec *ethclient.Client) error {
		out, err := ec.CallContract(rpcCtx, ethereum.CallMsg{To: &token, Data: payload}, nil)
		if err != nil {
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	outputs, err := c.parsedABI.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", method, err)
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("%s: unexpected %d outputs", method, len(outputs))
	}
	return outputs[0], nil
}
