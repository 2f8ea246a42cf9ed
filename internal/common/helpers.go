package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SOLDecimals  = 9 // lamports
	USDCDecimals = 6 // micro
)

// FormatSOL converts lamports to a SOL decimal string without float precision loss
func FormatSOL(lamports uint64) string {
	return formatWithDecimals(lamports, SOLDecimals)
}

// ParseSOL converts a SOL decimal string to lamports without float precision loss
func ParseSOL(sol string) (uint64, error) {
	return parseWithDecimals(sol, SOLDecimals)
}

// FormatUSDC converts micro units to a USDC decimal string without float precision loss
func FormatUSDC(micro uint64) string {
	return formatWithDecimals(micro, USDCDecimals)
}

// ParseUSDC converts a USDC decimal string to micro units without float precision loss
func ParseUSDC(usdc string) (uint64, error) {
	return parseWithDecimals(usdc, USDCDecimals)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	for len(s) <= decimals {
		s = "0" + s
	}

	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("0.024981836", 9) = 24981836
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	parts := strings.Split(s, ".")

	if len(parts) == 1 {
		n, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return 0, err
		}
		for i := 0; i < decimals; i++ {
			n *= 10
		}
		return n, nil
	}

	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	frac := parts[1]

	// Pad or truncate the fractional part to exact decimals
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else if len(frac) > decimals {
		frac = frac[:decimals]
	}

	return strconv.ParseUint(whole+frac, 10, 64)
}
