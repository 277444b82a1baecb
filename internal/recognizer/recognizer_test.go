package recognizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTopAbove(t *testing.T) {
	r := Result{Intents: []Intent{{Name: IntentGetDiscounts, Score: 0.2}, {Name: IntentReserveTable, Score: 0.5}}}

	name, score := r.TopAbove(0.5)
	assert.Equal(t, IntentNone, name)
	assert.Equal(t, 0.5, score)

	r.Intents[1].Score = 0.51
	name, _ = r.TopAbove(0.5)
	assert.Equal(t, IntentReserveTable, name)

	name, _ = Result{}.TopAbove(0.5)
	assert.Equal(t, IntentNone, name)
}

func TestKeywordRecognizer(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC) }
	k := NewKeyword(nil, now)

	r, err := k.Recognize(context.Background(), "Can I book a table for 4 tomorrow at 7pm?")
	require.NoError(t, err)

	name, score := r.TopAbove(0.5)
	assert.Equal(t, IntentReserveTable, name)
	assert.InDelta(t, 0.8, score, 1e-9)

	amount, ok := r.FirstEntity(EntityAmountPeople)
	require.True(t, ok)
	assert.Equal(t, "4", amount)

	tx, ok := r.FirstTimex()
	require.True(t, ok)
	assert.Equal(t, "2024-05-01T19", tx)
}

func TestKeywordRecognizerNoMatch(t *testing.T) {
	k := NewKeyword(nil, nil)

	r, err := k.Recognize(context.Background(), "what time do you open?")
	require.NoError(t, err)

	name, _ := r.TopAbove(0.5)
	assert.Equal(t, IntentNone, name)
	_, ok := r.FirstTimex()
	assert.False(t, ok)
}

func TestKeywordTimeWithoutDay(t *testing.T) {
	k := NewKeyword(nil, nil)

	r, err := k.Recognize(context.Background(), "reservation at 8:30 pm for 2 people")
	require.NoError(t, err)

	tx, ok := r.FirstTimex()
	require.True(t, ok)
	assert.Equal(t, "T20:30", tx)
	amount, _ := r.FirstEntity(EntityAmountPeople)
	assert.Equal(t, "2", amount)
}

func TestLoadKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
intents:
  - name: GetDiscounts
    keywords: [cheap, happy hour]
`), 0o600))

	intents, err := LoadKeywords(path)
	require.NoError(t, err)

	k := NewKeyword(intents, nil)
	r, err := k.Recognize(context.Background(), "Is there a happy hour?")
	require.NoError(t, err)
	assert.Equal(t, IntentGetDiscounts, r.Top().Name)
}

const luisBody = `{
  "query": "table for 4 tomorrow at 7pm",
  "topScoringIntent": {"intent": "ReserveTable", "score": 0.9},
  "intents": [
    {"intent": "None", "score": 0.05},
    {"intent": "ReserveTable", "score": 0.9}
  ],
  "entities": [
    {"entity": "4", "type": "AmountPeople"},
    {"entity": "tomorrow at 7pm", "type": "builtin.datetimeV2.datetime",
     "resolution": {"values": [{"timex": "2024-05-01T19", "type": "datetime", "value": "2024-05-01 19:00:00"}]}}
  ]
}`

func TestLUISRecognize(t *testing.T) {
	var gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "/luis/v2.0/apps/app-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(luisBody))
	}))
	defer srv.Close()

	c := NewLUIS(srv.URL+"/", "app-1", "secret", time.Second, zap.NewNop())
	r, err := c.Recognize(context.Background(), "table for 4 tomorrow at 7pm")
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "table for 4 tomorrow at 7pm", gotQuery)
	assert.Equal(t, Intent{Name: IntentReserveTable, Score: 0.9}, r.Top())
	amount, _ := r.FirstEntity(EntityAmountPeople)
	assert.Equal(t, "4", amount)
	tx, _ := r.FirstTimex()
	assert.Equal(t, "2024-05-01T19", tx)
}

func TestLUISErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewLUIS(srv.URL, "app-1", "secret", time.Second, nil)
	_, err := c.Recognize(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
