// Package pyth reads oracle price accounts from the pythnet cluster. Only
// the aggregate fields of the V2 price account layout are decoded.
package pyth

import (
	"context"
	"encoding/binary"
	stdErrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	xerrors "SolAgent-Kit/internal/errors"
)

const (
	defaultRPCURL = "https://pythnet.rpcpool.com"

	// V2 price account layout offsets.
	accountMagic   = 0xa1b2c3d4
	offsetExponent = 20
	offsetPrice    = 208
	offsetConf     = 216
	offsetStatus   = 224
	minAccountLen  = offsetStatus + 4
)

// Config carries the pythnet RPC endpoint. Empty uses the public cluster.
type Config struct {
	RPCURL string
}

// Client reads price accounts over JSON-RPC.
type Client struct {
	rpc *rpc.Client
}

// NewClient builds an oracle reader from config.
func NewClient(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.RPCURL)
	if endpoint == "" {
		endpoint = defaultRPCURL
	}
	return &Client{rpc: rpc.New(endpoint)}
}

// Price is the aggregate quote published on a price account. Price and
// Confidence are decimal strings scaled by the account exponent.
type Price struct {
	Price      string `json:"price"`
	Confidence string `json:"confidence"`
	Status     string `json:"status"`
}

// Price fetches and decodes the aggregate price on a price account.
func (c *Client) Price(ctx context.Context, account solana.PublicKey) (*Price, error) {
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding: solana.EncodingBase64,
	})
	if err != nil {
		if stdErrors.Is(err, rpc.ErrNotFound) {
			return nil, xerrors.New(xerrors.CodeNotFound,
				fmt.Sprintf("price account %s does not exist", account))
		}
		return nil, xerrors.Wrap(xerrors.CodeRPCFailure, err, "read price account")
	}
	if out == nil || out.Value == nil {
		return nil, xerrors.New(xerrors.CodeNotFound,
			fmt.Sprintf("price account %s does not exist", account))
	}
	return decodePriceAccount(out.Value.Data.GetBinary())
}

func decodePriceAccount(data []byte) (*Price, error) {
	if len(data) < minAccountLen {
		return nil, xerrors.New(xerrors.CodeProviderFailure, "price account data is truncated")
	}
	if binary.LittleEndian.Uint32(data[:4]) != accountMagic {
		return nil, xerrors.New(xerrors.CodeProviderFailure, "account is not an oracle price account")
	}
	exponent := int32(binary.LittleEndian.Uint32(data[offsetExponent : offsetExponent+4]))
	raw := int64(binary.LittleEndian.Uint64(data[offsetPrice : offsetPrice+8]))
	conf := binary.LittleEndian.Uint64(data[offsetConf : offsetConf+8])
	status := binary.LittleEndian.Uint32(data[offsetStatus : offsetStatus+4])

	return &Price{
		Price:      formatScaled(raw, exponent),
		Confidence: formatScaled(int64(conf), exponent),
		Status:     statusLabel(status),
	}, nil
}

// formatScaled renders raw*10^exponent as a decimal string without going
// through floating point.
func formatScaled(raw int64, exponent int32) string {
	sign := ""
	if raw < 0 {
		sign = "-"
		raw = -raw
	}
	digits := strconv.FormatInt(raw, 10)
	if exponent >= 0 {
		return sign + digits + strings.Repeat("0", int(exponent))
	}
	shift := int(-exponent)
	if len(digits) <= shift {
		digits = strings.Repeat("0", shift-len(digits)+1) + digits
	}
	whole := digits[:len(digits)-shift]
	frac := strings.TrimRight(digits[len(digits)-shift:], "0")
	if frac == "" {
		return sign + whole
	}
	return sign + whole + "." + frac
}

func statusLabel(raw uint32) string {
	switch raw {
	case 1:
		return "trading"
	case 2:
		return "halted"
	case 3:
		return "auction"
	default:
		return "unknown"
	}
}
