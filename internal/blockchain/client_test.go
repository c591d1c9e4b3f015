package blockchain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHumanBalance(t *testing.T) {
	tests := []struct {
		name     string
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{
			name:     "zero balance",
			raw:      big.NewInt(0),
			decimals: 18,
			want:     "0",
		},
		{
			name:     "1 wei with 18 decimals",
			raw:      big.NewInt(1),
			decimals: 18,
			want:     "0.000000000000000001",
		},
		{
			name:     "1 token (18 decimals)",
			raw:      big.NewInt(1000000000000000000),
			decimals: 18,
			want:     "1",
		},
		{
			name:     "1.5 tokens (18 decimals)",
			raw:      big.NewInt(1500000000000000000),
			decimals: 18,
			want:     "1.5",
		},
		{
			name:     "token with no fractional part",
			raw:      big.NewInt(1000000000000000000),
			decimals: 18,
			want:     "1",
		},
		{
			name:     "6 decimals token (USDC-like)",
			raw:      big.NewInt(1500000),
			decimals: 6,
			want:     "1.5",
		},
		{
			name:     "0 decimals token",
			raw:      big.NewInt(100),
			decimals: 0,
			want:     "100",
		},
		{
			name: "large balance",
			raw: func() *big.Int {
				v, _ := big.NewInt(0).SetString("123456789000000000000000000", 10)
				return v
			}(),
			decimals: 18,
			want:     "123456789",
		},
		{
			name:     "trailing zeros trimmed",
			raw:      big.NewInt(1000000000000000000),
			decimals: 18,
			want:     "1",
		},
		{
			name:     "fractional with trailing zeros",
			raw:      big.NewInt(1100000000000000000),
			decimals: 18,
			want:     "1.1",
		},
		{
			name:     "very small fractional value",
			raw:      big.NewInt(1000),
			decimals: 18,
			want:     "0.000000000000001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HumanBalance(tt.raw, tt.decimals)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBalanceCalculationEdgeCases(t *testing.T) {
	t.Run("balance with high precision decimals", func(t *testing.T) {
		raw, _ := big.NewInt(0).SetString("123456789123456789", 10)
		result := HumanBalance(raw, 18)
		assert.Equal(t, "0.123456789123456789", result)
	})

	t.Run("large balance with small decimals", func(t *testing.T) {
		raw, _ := big.NewInt(0).SetString("999999999999999999", 10)
		result := HumanBalance(raw, 6)
		assert.Equal(t, "999999999999.999999", result)
	})

	t.Run("negative balance keeps sign", func(t *testing.T) {
		result := HumanBalance(big.NewInt(-1), 18)
		assert.Equal(t, "-0.000000000000000001", result)
	})

	t.Run("nil balance is zero", func(t *testing.T) {
		assert.Equal(t, "0", HumanBalance(nil, 18))
	})

	t.Run("max uint256 keeps every digit", func(t *testing.T) {
		raw, _ := big.NewInt(0).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
		result := HumanBalance(raw, 18)
		assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457.584007913129639935", result)
	})
}

func TestFormatUnitsScalesByDecimals(t *testing.T) {
	raw, _ := big.NewInt(0).SetString("123456789012345678901234567890", 10)
	for _, decimals := range []uint8{0, 1, 6, 8, 18, 24, 30} {
		got := FormatUnits(raw, decimals)
		back := got.Mul(decimal.New(1, int32(decimals)))
		assert.True(t, back.Equal(decimal.NewFromBigInt(raw, 0)), "decimals=%d got=%s", decimals, got)
	}
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"checksummed", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0", true},
		{"all lowercase", "0x742d35cc6634c0532925a3b844bc9e7595f0beb0", true},
		{"all uppercase hex", "0x742D35CC6634C0532925A3B844BC9E7595F0BEB0", true},
		{"uppercase prefix", "0X742d35cc6634c0532925a3b844bc9e7595f0beb0", true},
		{"zero address", "0x0000000000000000000000000000000000000000", true},
		{"missing prefix", "742d35Cc6634C0532925a3b844Bc9e7595f0bEb0", false},
		{"too short", "0x742d35Cc", false},
		{"too long", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb123", false},
		{"invalid hex character", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEg0", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAddress(tt.address))
		})
	}
}

func TestHumanBalanceConsistency(t *testing.T) {
	t.Run("consistency across multiple calls", func(t *testing.T) {
		raw := big.NewInt(1234567890123456789)
		decimals := uint8(18)

		result1 := HumanBalance(raw, decimals)
		result2 := HumanBalance(raw, decimals)

		assert.Equal(t, result1, result2)
	})

	t.Run("preserves original big.Int", func(t *testing.T) {
		original := big.NewInt(1000000000000000000)
		originalStr := original.String()

		_ = HumanBalance(original, 18)

		// Verify original wasn't modified
		assert.Equal(t, originalStr, original.String())
	})
}

func TestHumanBalanceWithRealWorldNumbers(t *testing.T) {
	tests := []struct {
		name        string
		description string
		raw         *big.Int
		decimals    uint8
		expected    string
	}{
		{
			name:        "USDC with 1000 tokens",
			description: "1000 USDC (6 decimals)",
			raw:         big.NewInt(1000000000), // 1000 * 10^6
			decimals:    6,
			expected:    "1000",
		},
		{
			name: "DAI with fractional amount",
			description: "123.456 DAI (18 decimals)",
			raw: func() *big.Int {
				v, _ := big.NewInt(0).SetString("123456000000000000000", 10)
				return v
			}(),
			decimals: 18,
			expected: "123.456",
		},
		{
			name:        "USDT with fractional amount",
			description: "0.50 USDT (6 decimals)",
			raw:         big.NewInt(500000), // 0.5 * 10^6
			decimals:    6,
			expected:    "0.5",
		},
		{
			name: "ETH with wei",
			description: "2.5 ETH (18 decimals)",
			raw: func() *big.Int {
				v, _ := big.NewInt(0).SetString("2500000000000000000", 10)
				return v
			}(),
			decimals: 18,
			expected: "2.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HumanBalance(tt.raw, tt.decimals)
			assert.Equal(t, tt.expected, result, tt.description)
		})
	}
}
