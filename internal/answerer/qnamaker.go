package answerer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/breaker"
)

const DefaultScoreThreshold = 0.3

// QnAMaker queries a QnA Maker knowledge base.
type QnAMaker struct {
	host        string
	kbID        string
	endpointKey string
	top         int
	threshold   float64

	http *http.Client
	cb   *gobreaker.CircuitBreaker
}

type QnAMakerOptions struct {
	Host            string
	KnowledgeBaseID string
	EndpointKey     string
	Top             int
	ScoreThreshold  float64
	Timeout         time.Duration
}

func NewQnAMaker(opts QnAMakerOptions, log *zap.Logger) *QnAMaker {
	if opts.Top <= 0 {
		opts.Top = 1
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = DefaultScoreThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QnAMaker{
		host:        strings.TrimRight(opts.Host, "/"),
		kbID:        opts.KnowledgeBaseID,
		endpointKey: opts.EndpointKey,
		top:         opts.Top,
		threshold:   opts.ScoreThreshold,
		http:        &http.Client{Timeout: opts.Timeout},
		cb:          breaker.New("qnamaker", 0, log.With(zap.String("component", "qnamaker"))),
	}
}

type generateAnswerRequest struct {
	Question string `json:"question"`
	Top      int    `json:"top"`
}

type generateAnswerResponse struct {
	Answers []struct {
		Answer    string   `json:"answer"`
		Score     float64  `json:"score"`
		Questions []string `json:"questions"`
	} `json:"answers"`
}

func (q *QnAMaker) Answer(ctx context.Context, question string) ([]Answer, error) {
	out, err := q.cb.Execute(func() (interface{}, error) {
		return q.generateAnswer(ctx, question)
	})
	if err != nil {
		return nil, fmt.Errorf("qnamaker: %w", err)
	}
	return out.([]Answer), nil
}

func (q *QnAMaker) generateAnswer(ctx context.Context, question string) ([]Answer, error) {
	body, err := json.Marshal(generateAnswerRequest{Question: question, Top: q.top})
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/knowledgebases/%s/generateAnswer", q.host, q.kbID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "EndpointKey "+q.endpointKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var gr generateAnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	// scores come back in 0..100
	out := []Answer{}
	for _, a := range gr.Answers {
		score := a.Score / 100
		if score < q.threshold {
			continue
		}
		out = append(out, Answer{Text: a.Answer, Score: score})
	}
	sortAnswers(out)
	return out, nil
}
