package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademirvarjao/conciliador-bancario/internal/application/service"
)

const bankCSV = "data;descricao;valor\n03/02/2026;Pagamento Energia Eletrica;-320,75\n04/02/2026;Recebimento PIX Cliente A;1.250,50"

const ledgerCSV = "data;descricao;valor;conta\n03/02/2026;Energia Eletrica;-320,75;4.1.02 - Energia"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	session, err := service.New(service.Options{SessionID: "test", Logger: slog.Default()})
	require.NoError(t, err)
	return NewServer(DefaultConfig(), session, slog.Default())
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func importBank(t *testing.T, s *Server) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/import", jsonBody{
		"files": []jsonBody{{"name": "extrato.csv", "content": bankCSV}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

type jsonBody = map[string]any

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestServer_ImportFiles(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/import", jsonBody{
		"files": []jsonBody{{"name": "extrato.csv", "content": bankCSV}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp service.ImportSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Imported)
}

func TestServer_ImportFiles_NoFiles(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/import", jsonBody{"files": []jsonBody{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ImportFiles_AllRejected(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/import", jsonBody{
		"files": []jsonBody{{"name": "vazio.csv", "content": ""}},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServer_ImportLedger(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/ledger", jsonBody{
		"files": []jsonBody{{"name": "razao.csv", "content": ledgerCSV}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"imported":1`)
}

func TestServer_ReconcileAndReport(t *testing.T) {
	s := newTestServer(t)
	importBank(t, s)
	w := doJSON(t, s, http.MethodPost, "/api/ledger", jsonBody{
		"files": []jsonBody{{"name": "razao.csv", "content": ledgerCSV}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/reconcile", jsonBody{"tolerance_days": 3, "tolerance_value": 0.01})
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		MatchedBank int `json:"matched_bank"`
		PendingBank int `json:"pending_bank"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.MatchedBank)
	assert.Equal(t, 1, report.PendingBank)

	w = doJSON(t, s, http.MethodGet, "/api/report", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ReconcileRejectsNegativeTolerance(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/reconcile", jsonBody{"tolerance_days": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ReportBeforeFirstRun(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Rules(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/rules", jsonBody{"pattern": "energia", "account": "4.1.02"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/rules", jsonBody{"pattern": "energia"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "energia")
}

func TestServer_TransactionsSearch(t *testing.T) {
	s := newTestServer(t)
	importBank(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/transactions?search=energia", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestServer_CorrectAccount(t *testing.T) {
	s := newTestServer(t)
	importBank(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/transactions", nil)
	var resp struct {
		Transactions []struct {
			ID string `json:"id"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Transactions)

	w = doJSON(t, s, http.MethodPut, "/api/transactions/"+resp.Transactions[0].ID+"/account",
		jsonBody{"account": "4.1.02 - Energia"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPut, "/api/transactions/nao-existe/account", jsonBody{"account": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ExportCSV(t *testing.T) {
	s := newTestServer(t)
	importBank(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/export/csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "conciliacao.csv")
	assert.Contains(t, w.Body.String(), "data;descricao;valor")
}

func TestServer_ArchiveRoundTrip(t *testing.T) {
	s := newTestServer(t)
	importBank(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/export/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	archive := w.Body.String()

	fresh := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/import/archive", strings.NewReader(archive))
	rec := httptest.NewRecorder()
	fresh.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	w = doJSON(t, fresh, http.MethodGet, "/api/transactions", nil)
	assert.Contains(t, w.Body.String(), "Pagamento Energia Eletrica")
}

func TestServer_SamplesAndSummary(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/samples", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session_id":"test"`)
}

func TestServer_Reset(t *testing.T) {
	s := newTestServer(t)
	importBank(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/transactions", nil)
	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)
}

func TestServer_Accounts(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/accounts", jsonBody{"content": "1.1.01;Clientes\n4.1.02;Energia"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1.1.01 - Clientes")
}
