package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/matrixise/tokenscan/internal/service"
)

type handlers struct {
	balances     BalanceReader
	transactions TransactionReader
}

type tokenBalanceBody struct {
	TokenAddress  string `json:"tokenAddress"`
	WalletAddress string `json:"walletAddress"`
}

type fetchBody struct {
	Address string `json:"address"`
}

// balanceResponse marks balances as computed for this request
type balanceResponse struct {
	service.TokenBalance
	Cached bool `json:"cached"`
}

// decodeBody reads a JSON body into dst. An empty body leaves dst zero so the
// pipeline reports the missing fields.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("tokenscan is running"))
}

func (h *handlers) tokenBalance(w http.ResponseWriter, r *http.Request) {
	var body tokenBalanceBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err.Error())
		return
	}

	balance, err := h.balances.GetTokenBalance(r.Context(), body.TokenAddress, body.WalletAddress)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch token balance")
		return
	}
	writeData(w, balanceResponse{TokenBalance: balance})
}

func (h *handlers) tokenInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.balances.GetTokenInfo(r.Context(), chi.URLParam(r, "tokenAddress"))
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, msgInvalidToken, "")
			return
		}
		writeServiceError(w, r, err, "Failed to fetch token info")
		return
	}
	writeData(w, info)
}

func (h *handlers) fetchTransactions(w http.ResponseWriter, r *http.Request) {
	var body fetchBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, err.Error())
		return
	}

	txs, err := h.transactions.Fetch(r.Context(), body.Address)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch transactions")
		return
	}
	writeData(w, txs)
}

func (h *handlers) queryTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, err := h.transactions.Query(r.Context(), chi.URLParam(r, "address"), queryParam(q, "startDate"), queryParam(q, "endDate"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to query transactions")
		return
	}
	writeData(w, txs)
}

func (h *handlers) transactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.transactions.Stats(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to get transaction stats")
		return
	}
	writeData(w, stats)
}

// queryParam returns nil when key is absent from q, so an empty value stays
// distinguishable from a missing one
func queryParam(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}
