package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
)

func graphqlServer(t *testing.T, data string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":` + data + `}`))
	}))
}

const marketJSON = `{
	"id": "0xFAC-1",
	"trades": [{
		"user": "0xAbC1111111111111111111111111111111111111",
		"outcome": "1",
		"collateral": "-5.5",
		"shares": "11",
		"price": "0.5",
		"timestamp": "1700000000",
		"transactionHash": "0xt1"
	}],
	"addLiquidity": [{
		"sender": {"id": "0xAbC1111111111111111111111111111111111111"},
		"collateral": "-10",
		"lpTokens": "10",
		"sharesReturned": ["0", "2.5"],
		"timestamp": "1700000100",
		"transactionHash": "0xl1"
	}],
	"removeLiquidity": [],
	"claimedProceeds": [{
		"user": "0xAbC1111111111111111111111111111111111111",
		"outcome": "1",
		"payout": "7.25",
		"timestamp": "1700000200",
		"transactionHash": "0xc1"
	}]
}`

func TestFetchMarketTransactions(t *testing.T) {
	t.Run("decodes a full market log", func(t *testing.T) {
		srv := graphqlServer(t, `{"market":`+marketJSON+`}`)
		defer srv.Close()

		mtx, err := NewClient(srv.URL, "").FetchMarketTransactions(context.Background(), "0xFAC-1")
		require.NoError(t, err)

		require.Equal(t, "0xfac-1", mtx.MarketID)
		require.Len(t, mtx.Trades, 1)
		trade := mtx.Trades[0]
		require.Equal(t, "0xabc1111111111111111111111111111111111111", trade.User)
		require.Equal(t, 1, trade.Outcome)
		require.True(t, trade.IsBuy())
		require.Equal(t, "11", trade.Shares.String())
		require.EqualValues(t, 1700000000, trade.Timestamp)

		require.Len(t, mtx.AddLiquidity, 1)
		require.Equal(t, "2.5", mtx.AddLiquidity[0].Outcomes[1].String())
		require.Empty(t, mtx.RemoveLiquidity)

		require.Len(t, mtx.ClaimedProceeds, 1)
		require.Equal(t, "7.25", mtx.ClaimedProceeds[0].Payout.String())
	})

	t.Run("unknown market", func(t *testing.T) {
		srv := graphqlServer(t, `{"market":null}`)
		defer srv.Close()

		_, err := NewClient(srv.URL, "").FetchMarketTransactions(context.Background(), "0xnope-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed amounts surface as malformed data", func(t *testing.T) {
		srv := graphqlServer(t, `{"market":{"id":"0xfac-1","trades":[{"user":"0xa","outcome":"1","collateral":"??","shares":"1","price":"1","timestamp":"1","transactionHash":"0xt"}]}}`)
		defer srv.Close()

		_, err := NewClient(srv.URL, "").FetchMarketTransactions(context.Background(), "0xfac-1")
		require.ErrorIs(t, err, domain.ErrMalformedData)
	})
}

func TestFetchAllTransactions(t *testing.T) {
	t.Run("bad markets are skipped, good ones kept", func(t *testing.T) {
		bad := `{"id":"0xbad-1","trades":[{"user":"0xa","outcome":"x","collateral":"1","shares":"1","price":"1","timestamp":"1","transactionHash":"0xt"}]}`
		srv := graphqlServer(t, `{"markets":[`+marketJSON+`,`+bad+`]}`)
		defer srv.Close()

		all, err := NewClient(srv.URL, "").FetchAllTransactions(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Contains(t, all, "0xfac-1")
	})

	t.Run("server errors map to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "").FetchAllTransactions(context.Background())
		require.ErrorIs(t, err, domain.ErrUnavailable)
	})
}

func TestFetchLatestBlock(t *testing.T) {
	srv := graphqlServer(t, `{"_meta":{"block":{"number":42}}}`)
	defer srv.Close()

	block, err := NewClient(srv.URL, "").FetchLatestBlock(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 42, block)
}
