// Package chain talks to the two REST backends of the chain: the low level
// LCD node API and the indexed FCD API.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/ratelimit"
)

// ErrMalformedResponse is returned when a body does not have the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

const (
	DefaultLCD = "https://lcd.terra.dev"
	DefaultFCD = "https://fcd.terra.dev"
)

// Client is safe for concurrent use. All requests share one rate limiter.
type Client struct {
	lcd    string
	fcd    string
	client *http.Client
	rl     ratelimit.Limiter
}

// NewClient builds a client limited to rps requests per second. A
// non-positive rps disables the limiter.
func NewClient(lcd, fcd string, rps int) *Client {
	rl := ratelimit.NewUnlimited()
	if rps > 0 {
		rl = ratelimit.New(rps)
	}
	return &Client{
		lcd:    lcd,
		fcd:    fcd,
		client: &http.Client{Timeout: 30 * time.Second},
		rl:     rl,
	}
}

// GetJSON fetches rawURL and returns the body if it is valid JSON.
func (c *Client) GetJSON(ctx context.Context, rawURL string) (json.RawMessage, error) {
	c.rl.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("get %s: %w", rawURL, ErrMalformedResponse)
	}
	return body, nil
}

func (c *Client) getInto(ctx context.Context, rawURL string, out any) error {
	body, err := c.GetJSON(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w: %v", rawURL, ErrMalformedResponse, err)
	}
	return nil
}

// Txs returns one page of an account's transaction history from the FCD.
func (c *Client) Txs(ctx context.Context, account, offset string, limit int) (*TxPage, error) {
	q := url.Values{}
	q.Set("offset", offset)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("account", account)

	var page TxPage
	if err := c.getInto(ctx, c.fcd+"/v1/txs?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	if page.Txs == nil {
		return nil, fmt.Errorf("txs page: missing txs: %w", ErrMalformedResponse)
	}
	if page.Next == nil {
		return nil, fmt.Errorf("txs page: missing next: %w", ErrMalformedResponse)
	}
	return &page, nil
}

// LatestBlock returns the newest block header.
func (c *Client) LatestBlock(ctx context.Context) (*Block, error) {
	return c.block(ctx, "latest")
}

// BlockAt returns the block header at height.
func (c *Client) BlockAt(ctx context.Context, height uint64) (*Block, error) {
	return c.block(ctx, strconv.FormatUint(height, 10))
}

func (c *Client) block(ctx context.Context, ref string) (*Block, error) {
	var b Block
	if err := c.getInto(ctx, c.lcd+"/blocks/"+ref, &b); err != nil {
		return nil, err
	}
	if b.Block.Header.Height == "" {
		return nil, fmt.Errorf("block %s: missing header: %w", ref, ErrMalformedResponse)
	}
	return &b, nil
}

// BlockTxs returns one page of the transactions included at height.
func (c *Client) BlockTxs(ctx context.Context, height uint64, offset, limit int) (*BlockTxs, error) {
	q := url.Values{}
	q.Set("events", "tx.height="+strconv.FormatUint(height, 10))
	q.Set("order_by", "ORDER_BY_ASC")
	q.Set("pagination.offset", strconv.Itoa(offset))
	q.Set("pagination.limit", strconv.Itoa(limit))

	var txs BlockTxs
	if err := c.getInto(ctx, c.lcd+"/cosmos/tx/v1beta1/txs?"+q.Encode(), &txs); err != nil {
		return nil, err
	}
	return &txs, nil
}

// QueryContract runs a smart contract store query through the FCD and falls
// back to the LCD when the FCD fails. The body is the {height, result} envelope.
func (c *Client) QueryContract(ctx context.Context, address, queryMsg string) (json.RawMessage, error) {
	path := "/wasm/contracts/" + url.PathEscape(address) + "/store?query_msg=" + url.QueryEscape(queryMsg)

	body, err := c.GetJSON(ctx, c.fcd+path)
	if err == nil {
		return body, nil
	}
	body, lcdErr := c.GetJSON(ctx, c.lcd+path)
	if lcdErr != nil {
		return nil, fmt.Errorf("query %s: fcd: %v; lcd: %w", address, err, lcdErr)
	}
	return body, nil
}

// TaxRate returns the current stability tax rate.
func (c *Client) TaxRate(ctx context.Context) (*Response[string], error) {
	var r Response[string]
	if err := c.getInto(ctx, c.lcd+"/treasury/tax_rate", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// TaxCaps returns the per-denom tax caps.
func (c *Client) TaxCaps(ctx context.Context) (*Response[[]TaxCap], error) {
	var r Response[[]TaxCap]
	if err := c.getInto(ctx, c.lcd+"/treasury/tax_caps", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Balances returns the native balances of account.
func (c *Client) Balances(ctx context.Context, account string) (*Response[[]Coin], error) {
	var r Response[[]Coin]
	if err := c.getInto(ctx, c.lcd+"/bank/balances/"+url.PathEscape(account), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Swap simulates a market module swap of amount offerDenom into askDenom.
func (c *Client) Swap(ctx context.Context, offerDenom, askDenom string, amount int64) (*Response[Coin], error) {
	q := url.Values{}
	q.Set("offer_coin", strconv.FormatInt(amount, 10)+offerDenom)
	q.Set("ask_denom", askDenom)

	var r Response[Coin]
	if err := c.getInto(ctx, c.lcd+"/market/swap?"+q.Encode(), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GasPrices returns the FCD's suggested gas price per denom.
func (c *Client) GasPrices(ctx context.Context) (map[string]string, error) {
	var prices map[string]string
	if err := c.getInto(ctx, c.fcd+"/v1/txs/gas_prices", &prices); err != nil {
		return nil, err
	}
	return prices, nil
}
