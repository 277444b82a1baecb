package answerer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStaticAnswer(t *testing.T) {
	s := NewStatic([]Entry{
		{Questions: []string{"What time do you open?", "When are you open?"}, Answer: "We open at 5pm"},
		{Questions: []string{"Do you have parking?"}, Answer: "There is a garage next door"},
	}, 0.3)

	got, err := s.Answer(context.Background(), "what time do you open")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "We open at 5pm", got[0].Text)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)

	got, err = s.Answer(context.Background(), "tell me a joke")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadFAQ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entries:
  - questions: ["Are you open on Sundays?"]
    answer: "Yes, from noon."
`), 0o600))

	entries, err := LoadFAQ(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Yes, from noon.", entries[0].Answer)
}

func TestQnAMakerAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/knowledgebases/kb-1/generateAnswer", r.URL.Path)
		assert.Equal(t, "EndpointKey k", r.Header.Get("Authorization"))

		var req generateAnswerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "when do you open", req.Question)
		assert.Equal(t, 3, req.Top)

		_, _ = w.Write([]byte(`{"answers":[
			{"answer":"No good match found in KB.","score":0,"questions":[]},
			{"answer":"We open at 5pm","score":87.5,"questions":["When do you open?"]},
			{"answer":"Closed on Mondays","score":40}
		]}`))
	}))
	defer srv.Close()

	q := NewQnAMaker(QnAMakerOptions{Host: srv.URL, KnowledgeBaseID: "kb-1", EndpointKey: "k", Top: 3}, zap.NewNop())
	got, err := q.Answer(context.Background(), "when do you open")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, Answer{Text: "We open at 5pm", Score: 0.875}, got[0])
	assert.Equal(t, "Closed on Mondays", got[1].Text)
}

func TestQnAMakerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	q := NewQnAMaker(QnAMakerOptions{Host: srv.URL, KnowledgeBaseID: "kb-1"}, nil)
	_, err := q.Answer(context.Background(), "hi")
	assert.Error(t, err)
}
