// Package subgraph is a GraphQL client for the prediction-market indexer.
// It is the primary transaction-log source; the chain fetcher covers for it
// when it is down or lagging.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"turbopricer/internal/domain"
)

// Client is a GraphQL client for the market subgraph.
type Client struct {
	graphqlURL string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a subgraph client for the given endpoint.
func NewClient(graphqlURL, apiKey string) *Client {
	return &Client{
		graphqlURL: graphqlURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Wire shapes. The subgraph returns every numeric field as a string; amounts
// are decoded with shopspring decimal so nothing is rounded on the way in.

type rawTrade struct {
	User       string `json:"user"`
	Outcome    string `json:"outcome"`
	Collateral string `json:"collateral"`
	Shares     string `json:"shares"`
	Price      string `json:"price"`
	Timestamp  string `json:"timestamp"`
	TxHash     string `json:"transactionHash"`
}

type rawLiquidity struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Collateral string   `json:"collateral"`
	LPTokens   string   `json:"lpTokens"`
	Outcomes   []string `json:"sharesReturned"`
	Timestamp  string   `json:"timestamp"`
	TxHash     string   `json:"transactionHash"`
}

type rawClaim struct {
	User      string `json:"user"`
	Outcome   string `json:"outcome"`
	Payout    string `json:"payout"`
	Timestamp string `json:"timestamp"`
	TxHash    string `json:"transactionHash"`
}

type rawMarket struct {
	ID              string         `json:"id"`
	Trades          []rawTrade     `json:"trades"`
	AddLiquidity    []rawLiquidity `json:"addLiquidity"`
	RemoveLiquidity []rawLiquidity `json:"removeLiquidity"`
	ClaimedProceeds []rawClaim     `json:"claimedProceeds"`
}

const marketTransactionsQuery = `
	query MarketTransactions($first: Int!, $skip: Int!) {
		markets(first: $first, skip: $skip, orderBy: id) {
			id
			trades(first: 1000, orderBy: timestamp, orderDirection: asc) {
				user outcome collateral shares price timestamp transactionHash
			}
			addLiquidity(first: 1000, orderBy: timestamp, orderDirection: asc) {
				sender { id } collateral lpTokens sharesReturned timestamp transactionHash
			}
			removeLiquidity(first: 1000, orderBy: timestamp, orderDirection: asc) {
				sender { id } collateral lpTokens sharesReturned timestamp transactionHash
			}
			claimedProceeds(first: 1000, orderBy: timestamp, orderDirection: asc) {
				user outcome payout timestamp transactionHash
			}
		}
	}
`

// FetchAllTransactions pages through every market's transaction log. Markets
// with malformed entries are skipped with the batch continuing; an empty
// result is not an error.
func (c *Client) FetchAllTransactions(ctx context.Context) (domain.AllMarketsTransactions, error) {
	const pageSize = 100

	all := make(domain.AllMarketsTransactions)
	for skip := 0; ; skip += pageSize {
		respData, err := c.doQuery(ctx, marketTransactionsQuery, map[string]any{
			"first": pageSize,
			"skip":  skip,
		})
		if err != nil {
			return nil, fmt.Errorf("subgraph: fetch transactions: %w", err)
		}

		var result struct {
			Markets []rawMarket `json:"markets"`
		}
		if err := json.Unmarshal(respData, &result); err != nil {
			return nil, fmt.Errorf("subgraph: decode transactions: %w", err)
		}

		for _, rm := range result.Markets {
			mtx, err := decodeMarket(rm)
			if err != nil {
				// One bad market never sinks the batch.
				continue
			}
			all[strings.ToLower(rm.ID)] = mtx
		}

		if len(result.Markets) < pageSize {
			break
		}
	}
	return all, nil
}

// FetchMarketTransactions returns one market's transaction log.
func (c *Client) FetchMarketTransactions(ctx context.Context, marketID string) (domain.MarketTransactions, error) {
	query := `
		query OneMarket($id: ID!) {
			market(id: $id) {
				id
				trades(first: 1000, orderBy: timestamp, orderDirection: asc) {
					user outcome collateral shares price timestamp transactionHash
				}
				addLiquidity(first: 1000, orderBy: timestamp, orderDirection: asc) {
					sender { id } collateral lpTokens sharesReturned timestamp transactionHash
				}
				removeLiquidity(first: 1000, orderBy: timestamp, orderDirection: asc) {
					sender { id } collateral lpTokens sharesReturned timestamp transactionHash
				}
				claimedProceeds(first: 1000, orderBy: timestamp, orderDirection: asc) {
					user outcome payout timestamp transactionHash
				}
			}
		}
	`
	respData, err := c.doQuery(ctx, query, map[string]any{"id": strings.ToLower(marketID)})
	if err != nil {
		return domain.MarketTransactions{}, fmt.Errorf("subgraph: fetch market %s: %w", marketID, err)
	}

	var result struct {
		Market *rawMarket `json:"market"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return domain.MarketTransactions{}, fmt.Errorf("subgraph: decode market %s: %w", marketID, err)
	}
	if result.Market == nil {
		return domain.MarketTransactions{}, domain.ErrNotFound
	}
	mtx, err := decodeMarket(*result.Market)
	if err != nil {
		return domain.MarketTransactions{}, fmt.Errorf("subgraph: market %s: %w", marketID, err)
	}
	return mtx, nil
}

// FetchLatestBlock returns the latest block indexed by the subgraph, used by
// the failover check to measure indexing lag.
func (c *Client) FetchLatestBlock(ctx context.Context) (int64, error) {
	query := `
		query LatestBlock {
			_meta {
				block {
					number
				}
			}
		}
	`
	respData, err := c.doQuery(ctx, query, nil)
	if err != nil {
		return 0, fmt.Errorf("subgraph: fetch latest block: %w", err)
	}

	var result struct {
		Meta struct {
			Block struct {
				Number int64 `json:"number"`
			} `json:"block"`
		} `json:"_meta"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return 0, fmt.Errorf("subgraph: decode latest block: %w", err)
	}
	return result.Meta.Block.Number, nil
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

func decodeMarket(rm rawMarket) (domain.MarketTransactions, error) {
	mtx := domain.MarketTransactions{MarketID: strings.ToLower(rm.ID)}

	for _, rt := range rm.Trades {
		t, err := decodeTrade(rt)
		if err != nil {
			return mtx, fmt.Errorf("trade %s: %w", rt.TxHash, domain.ErrMalformedData)
		}
		mtx.Trades = append(mtx.Trades, t)
	}
	for _, rl := range rm.AddLiquidity {
		l, err := decodeLiquidity(rl)
		if err != nil {
			return mtx, fmt.Errorf("addLiquidity %s: %w", rl.TxHash, domain.ErrMalformedData)
		}
		mtx.AddLiquidity = append(mtx.AddLiquidity, l)
	}
	for _, rl := range rm.RemoveLiquidity {
		l, err := decodeLiquidity(rl)
		if err != nil {
			return mtx, fmt.Errorf("removeLiquidity %s: %w", rl.TxHash, domain.ErrMalformedData)
		}
		mtx.RemoveLiquidity = append(mtx.RemoveLiquidity, l)
	}
	for _, rc := range rm.ClaimedProceeds {
		cl, err := decodeClaim(rc)
		if err != nil {
			return mtx, fmt.Errorf("claim %s: %w", rc.TxHash, domain.ErrMalformedData)
		}
		mtx.ClaimedProceeds = append(mtx.ClaimedProceeds, cl)
	}
	return mtx, nil
}

func decodeTrade(rt rawTrade) (domain.Trade, error) {
	var (
		t   domain.Trade
		err error
	)
	t.User = strings.ToLower(rt.User)
	t.TxHash = rt.TxHash
	if _, err = fmt.Sscanf(rt.Outcome, "%d", &t.Outcome); err != nil {
		return t, err
	}
	if _, err = fmt.Sscanf(rt.Timestamp, "%d", &t.Timestamp); err != nil {
		return t, err
	}
	if t.Shares, err = decimal.NewFromString(rt.Shares); err != nil {
		return t, err
	}
	if t.Collateral, err = decimal.NewFromString(rt.Collateral); err != nil {
		return t, err
	}
	if t.Price, err = decimal.NewFromString(rt.Price); err != nil {
		return t, err
	}
	return t, nil
}

func decodeLiquidity(rl rawLiquidity) (domain.LiquidityChange, error) {
	var (
		l   domain.LiquidityChange
		err error
	)
	l.Sender = strings.ToLower(rl.Sender.ID)
	l.TxHash = rl.TxHash
	if _, err = fmt.Sscanf(rl.Timestamp, "%d", &l.Timestamp); err != nil {
		return l, err
	}
	if l.Collateral, err = decimal.NewFromString(rl.Collateral); err != nil {
		return l, err
	}
	if l.LPTokens, err = decimal.NewFromString(rl.LPTokens); err != nil {
		return l, err
	}
	for _, s := range rl.Outcomes {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return l, err
		}
		l.Outcomes = append(l.Outcomes, v)
	}
	return l, nil
}

func decodeClaim(rc rawClaim) (domain.ClaimedProceeds, error) {
	var (
		cl  domain.ClaimedProceeds
		err error
	)
	cl.Receiver = strings.ToLower(rc.User)
	cl.TxHash = rc.TxHash
	if _, err = fmt.Sscanf(rc.Outcome, "%d", &cl.Outcome); err != nil {
		return cl, err
	}
	if _, err = fmt.Sscanf(rc.Timestamp, "%d", &cl.Timestamp); err != nil {
		return cl, err
	}
	if cl.Payout, err = decimal.NewFromString(rc.Payout); err != nil {
		return cl, err
	}
	return cl, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doQuery executes a GraphQL query and returns the raw "data" field.
func (c *Client) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphqlRequest{
		Query:     query,
		Variables: variables,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUnavailable, resp.StatusCode, truncate(body, 200))
	}

	var gr graphqlResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gr.Errors[0].Message)
	}
	return gr.Data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
