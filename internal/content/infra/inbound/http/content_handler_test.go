package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/application"
	"github.com/davicafu/contentql/internal/content/domain"
	gql "github.com/davicafu/contentql/internal/content/infra/inbound/graphql"
	"github.com/davicafu/contentql/internal/metrics"
	"github.com/davicafu/contentql/tests/mocks"
)

type testEnv struct {
	router *gin.Engine
	pub    *mocks.MockPublisher
	stats  *mocks.MockStatsRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	records := mocks.Posts(3)
	records = append(records, &domain.User{ID: 1, Login: "ana", DisplayName: "Ana", Email: "ana@example.com"})
	src := mocks.NewInMemorySource(records...)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	resolver := application.NewConnectionResolver(src, application.NewArgsTranslator(log), application.DefaultResolverOptions(), nil, m, log)
	schema, err := gql.NewSchema(resolver, src, m, log)
	require.NoError(t, err)

	pub := new(mocks.MockPublisher)
	stats := new(mocks.MockStatsRepository)
	handler := NewContentHandler(schema, application.NewChangeNotifier(pub, log), stats, log)
	return testEnv{router: NewRouter(handler, reg, log), pub: pub, stats: stats}
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type graphQLResponse struct {
	Data   map[string]interface{}   `json:"data"`
	Errors []map[string]interface{} `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestGraphQL_PostRunsQueryWithViewer(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]interface{}{"query": `{ user(id: "1") { name email } }`})
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderViewerCaps, "list_users, edit_posts")
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	var res graphQLResponse
	decode(t, rec, &res)
	assert.Empty(t, res.Errors)
	user := res.Data["user"].(map[string]interface{})
	assert.Equal(t, "Ana", user["name"])
	assert.Equal(t, "ana@example.com", user["email"])
}

func TestGraphQL_GetWithVariables(t *testing.T) {
	env := newTestEnv(t)

	q := url.Values{}
	q.Set("query", `query Q($n: Int) { posts(first: $n) { nodes { databaseId } } }`)
	q.Set("variables", `{"n": 2}`)
	req := httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil)
	req.Header.Set(HeaderRequestID, "req-1")
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))

	var res graphQLResponse
	decode(t, rec, &res)
	nodes := res.Data["posts"].(map[string]interface{})["nodes"].([]interface{})
	assert.Len(t, nodes, 2)
}

func TestGraphQL_ErrorsAndBadRequests(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query": "{ post(id: \"42\") { title } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var res graphQLResponse
	decode(t, rec, &res)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0]["message"], "no post exists with the id 42")

	rec = env.do(httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/graphql?query=x&variables=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentHook(t *testing.T) {
	env := newTestEnv(t)
	env.pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	body := `{"event": "content.updated", "type": "post", "id": 3}`
	rec := env.do(httptest.NewRequest(http.MethodPost, "/hooks/content", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	env.pub.AssertExpectations(t)

	body = `{"event": "content.created", "type": "post", "id": 3}`
	rec = env.do(httptest.NewRequest(http.MethodPost, "/hooks/content", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentHook_PublishFailure(t *testing.T) {
	env := newTestEnv(t)
	env.pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	body := `{"event": "content.deleted", "type": "user", "id": 1}`
	rec := env.do(httptest.NewRequest(http.MethodPost, "/hooks/content", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDailyStats(t *testing.T) {
	env := newTestEnv(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	env.stats.On("DailyVolume", mock.Anything, from, to).Return([]domain.DailyVolume{
		{Day: from, EntityType: domain.EntityPost, Queries: 12, Failed: 1, AvgMillis: 3.5},
	}, nil).Once()

	rec := env.do(httptest.NewRequest(http.MethodGet, "/stats/daily?from=2024-03-01&to=2024-03-02", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Data []dailyVolumeResponse `json:"data"`
	}
	decode(t, rec, &res)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "2024-03-01", res.Data[0].Day)
	assert.Equal(t, int64(12), res.Data[0].Queries)
	env.stats.AssertExpectations(t)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/stats/daily?from=2024-03-05&to=2024-03-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Una consulta para que existan series.
	body, _ := json.Marshal(map[string]interface{}{"query": `{ posts { nodes { title } } }`})
	env.do(httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body)))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "contentql_connections_total")
}
