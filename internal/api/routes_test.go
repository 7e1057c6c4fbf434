package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-scoring/backend/internal/ai"
	"lead-scoring/backend/internal/model"
	"lead-scoring/backend/internal/store"
)

const leadsCSV = "name,role,company,industry,location,linkedin_bio\n" +
	"Jo,VP Sales,X,saas,NY,bio\n" +
	"Sam,Data Analyst,Y,Retail,,\n"

type stubClassifier struct {
	result ai.Result
}

func (s stubClassifier) Enabled() bool { return true }

func (s stubClassifier) Classify(context.Context, model.Offer, model.Lead, int) ai.Result {
	return s.result
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	server := New(Config{}, store.NewMemory(), stubClassifier{result: ai.Result{Intent: model.IntentHigh, Reasoning: "strong fit", Outcome: ai.OutcomeParsed}})
	return server, server.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func uploadCSV(t *testing.T, router http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/leads/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const acmeOffer = `{"name":"Acme","value_props":["fast"],"ideal_use_cases":["SaaS"]}`

func TestSubmitOffer(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/offer", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/offer", acmeOffer)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp OfferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Acme", resp.Offer.Name)

	rec = doJSON(t, router, http.MethodPost, "/offer", `{"name":"Beta","value_props":[],"ideal_use_cases":["Retail"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/offer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Beta", resp.Offer.Name)
	assert.Equal(t, []string{"Retail"}, resp.Offer.IdealUseCases)
}

func TestSubmitOfferValidation(t *testing.T) {
	for name, body := range map[string]string{
		"not json":          `name=Acme`,
		"missing use cases": `{"name":"Acme","value_props":["fast"]}`,
		"wrong type":        `{"name":"Acme","value_props":"fast","ideal_use_cases":["SaaS"]}`,
		"missing name":      `{"value_props":["fast"],"ideal_use_cases":["SaaS"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			server, router := newTestServer(t)
			rec := doJSON(t, router, http.MethodPost, "/offer", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")

			offer, err := server.store.Offer()
			require.NoError(t, err)
			assert.Nil(t, offer)
		})
	}
}

func TestUploadLeads(t *testing.T) {
	_, router := newTestServer(t)

	rec := uploadCSV(t, router, "leads.csv", leadsCSV)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Leads, 2)
	assert.Equal(t, "VP Sales", resp.Leads[0]["role"])
	assert.Equal(t, "", resp.Leads[1]["location"])

	rec = uploadCSV(t, router, "more.csv", "\ufeffname,role\nJo,CEO\n")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count, "uploads accumulate without dedupe")
	assert.Equal(t, "Jo", resp.Leads[2]["name"])

	rec = doJSON(t, router, http.MethodGet, "/leads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list LeadsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Count)
}

func TestUploadLeadsRejectsNonCSV(t *testing.T) {
	server, router := newTestServer(t)

	rec := uploadCSV(t, router, "leads.xlsx", leadsCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"File must be a CSV"}`, rec.Body.String())

	rec = uploadCSV(t, router, "broken.csv", "name,role\n\"Jo,CEO\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/leads/upload", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	leads, err := server.store.Leads()
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestScorePreconditions(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/score", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "offer")

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/offer", acmeOffer).Code)
	rec = doJSON(t, router, http.MethodPost, "/score", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "leads")

	rec = doJSON(t, router, http.MethodGet, "/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestScoreAndResults(t *testing.T) {
	_, router := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/offer", acmeOffer).Code)
	require.Equal(t, http.StatusOK, uploadCSV(t, router, "leads.csv", leadsCSV).Code)

	rec := doJSON(t, router, http.MethodPost, "/score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var score ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, "ok", score.Status)
	assert.Equal(t, 2, score.Count)
	assert.NotEmpty(t, score.RunID)

	rec = doJSON(t, router, http.MethodGet, "/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var results []model.LeadScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)

	assert.Equal(t, "Jo", results[0].Name)
	assert.Equal(t, 50, results[0].Score)
	assert.Equal(t, model.RuleBreakdown{Role: 20, Industry: 20, Completeness: 10}, results[0].RuleBreakdown)
	assert.Equal(t, model.IntentHigh, results[0].AIIntent)
	assert.Equal(t, "strong fit", results[0].AIReasoning)

	assert.Equal(t, "Sam", results[1].Name)
	assert.Equal(t, model.RuleBreakdown{Role: 10}, results[1].RuleBreakdown)
	assert.Equal(t, 10, results[1].Score)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"name", "role", "company", "industry", "score", "rule_breakdown", "ai_intent", "ai_reasoning"} {
		assert.Contains(t, raw[0], key)
	}
}

func TestExportResults(t *testing.T) {
	_, router := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/offer", acmeOffer).Code)
	require.Equal(t, http.StatusOK, uploadCSV(t, router, "leads.csv", leadsCSV).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/score", "").Code)

	rec := doJSON(t, router, http.MethodGet, "/results/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ai_reasoning", rows[0][9])
	assert.Equal(t, []string{"Jo", "VP Sales", "X", "saas", "50", "20", "20", "10", "High", "strong fit"}, rows[1])

	rec = doJSON(t, router, http.MethodGet, "/results/export.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "lead-scores.json")
}

func TestHealthAndConfig(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.True(t, cfg.AIEnabled)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestNewServerWithAIDisabled(t *testing.T) {
	server, err := NewServer(Config{AIConfig: ai.Config{Disabled: true}})
	require.NoError(t, err)
	assert.Equal(t, "memory", server.storeName)
	assert.IsType(t, ai.RuleClassifier{}, server.classifier)
}

func TestScoreStream(t *testing.T) {
	server, router := newTestServer(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/score/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool {
		server.notifier.mu.Lock()
		defer server.notifier.mu.Unlock()
		return len(server.notifier.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	post := func(path, contentType string, body *bytes.Buffer) {
		resp, err := http.Post(srv.URL+path, contentType, body)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	post("/offer", "application/json", bytes.NewBufferString(acmeOffer))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte(leadsCSV))
	require.NoError(t, writer.Close())
	post("/leads/upload", writer.FormDataContentType(), body)

	post("/score", "application/json", &bytes.Buffer{})

	var types []string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for len(types) < 4 {
		var event ScoringEvent
		require.NoError(t, conn.ReadJSON(&event))
		types = append(types, event.Type)
	}
	assert.Equal(t, []string{"started", "progress", "progress", "completed"}, types)
}
