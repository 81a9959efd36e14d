// Package tokens maps well-known asset symbols to their mints so requests
// can name assets either way. The built-in set can be extended with a JSON
// overlay file.
package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"

	xerrors "SolAgent-Kit/internal/errors"
)

// Well-known mints used across the toolkit.
var (
	USDC    = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	USDT    = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
	WSOL    = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	JitoSOL = solana.MustPublicKeyFromBase58("J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn")
	MSOL    = solana.MustPublicKeyFromBase58("mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So")
	BSOL    = solana.MustPublicKeyFromBase58("bSo13r4TkiE4KumL71LsHTPpL2euBYLFx6h9HP3piy1")
	JupSOL  = solana.MustPublicKeyFromBase58("jupSoLaHXQiZZTSfEWMTRRgpnyFm8f6sZdosWBjx93v")
	Bonk    = solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263")
)

func builtins() map[string]solana.PublicKey {
	return map[string]solana.PublicKey{
		"USDC":    USDC,
		"USDT":    USDT,
		"SOL":     WSOL,
		"JITOSOL": JitoSOL,
		"MSOL":    MSOL,
		"BSOL":    BSOL,
		"JUPSOL":  JupSOL,
		"BONK":    Bonk,
	}
}

// Directory resolves symbols and mint addresses. Immutable once built.
type Directory struct {
	bySymbol map[string]solana.PublicKey
	byMint   map[solana.PublicKey]string
}

// NewDirectory returns a directory holding only the built-in assets.
func NewDirectory() *Directory {
	return build(builtins())
}

// LoadDirectory overlays a JSON file of {"SYMBOL": "mint"} pairs on top of
// the built-ins. Overlay entries win on symbol collisions.
func LoadDirectory(path string) (*Directory, error) {
	if strings.TrimSpace(path) == "" {
		return NewDirectory(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token directory: %w", err)
	}
	var overlay map[string]string
	if err := json.Unmarshal(content, &overlay); err != nil {
		return nil, fmt.Errorf("parse token directory: %w", err)
	}

	entries := builtins()
	for symbol, raw := range overlay {
		mint, err := solana.PublicKeyFromBase58(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("token directory entry %s: %w", symbol, err)
		}
		entries[normalize(symbol)] = mint
	}
	return build(entries), nil
}

func build(entries map[string]solana.PublicKey) *Directory {
	dir := &Directory{
		bySymbol: make(map[string]solana.PublicKey, len(entries)),
		byMint:   make(map[solana.PublicKey]string, len(entries)),
	}
	for symbol, mint := range entries {
		symbol = normalize(symbol)
		dir.bySymbol[symbol] = mint
		dir.byMint[mint] = symbol
	}
	return dir
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Resolve accepts a symbol or a base58 mint address and returns the mint.
func (d *Directory) Resolve(asset string) (solana.PublicKey, error) {
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return solana.PublicKey{}, xerrors.New(xerrors.CodeInvalidArgument, "asset is empty")
	}
	if mint, ok := d.bySymbol[normalize(asset)]; ok {
		return mint, nil
	}
	mint, err := solana.PublicKeyFromBase58(asset)
	if err != nil {
		return solana.PublicKey{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err,
			fmt.Sprintf("%s is neither a known symbol nor a mint address", asset))
	}
	return mint, nil
}

// Symbol returns the known symbol for a mint, or its address when unknown.
func (d *Directory) Symbol(mint solana.PublicKey) string {
	if symbol, ok := d.byMint[mint]; ok {
		return symbol
	}
	return mint.String()
}

// Symbols lists the known symbols in sorted order.
func (d *Directory) Symbols() []string {
	symbols := make([]string, 0, len(d.bySymbol))
	for symbol := range d.bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
