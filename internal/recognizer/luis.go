package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/breaker"
)

// LUIS calls a LUIS v2 prediction endpoint.
type LUIS struct {
	endpoint string
	appID    string
	key      string

	http *http.Client
	cb   *gobreaker.CircuitBreaker
	log  *zap.Logger
}

func NewLUIS(endpoint, appID, key string, timeout time.Duration, log *zap.Logger) *LUIS {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "luis"))
	return &LUIS{
		endpoint: strings.TrimRight(endpoint, "/"),
		appID:    appID,
		key:      key,
		http:     &http.Client{Timeout: timeout},
		cb:       breaker.New("luis", 0, log),
		log:      log,
	}
}

type luisResponse struct {
	Query            string `json:"query"`
	TopScoringIntent *struct {
		Intent string  `json:"intent"`
		Score  float64 `json:"score"`
	} `json:"topScoringIntent"`
	Intents []struct {
		Intent string  `json:"intent"`
		Score  float64 `json:"score"`
	} `json:"intents"`
	Entities []struct {
		Entity     string `json:"entity"`
		Type       string `json:"type"`
		Resolution *struct {
			Value  string `json:"value"`
			Values []struct {
				Timex string `json:"timex"`
				Type  string `json:"type"`
				Value string `json:"value"`
			} `json:"values"`
		} `json:"resolution"`
	} `json:"entities"`
}

func (c *LUIS) Recognize(ctx context.Context, text string) (Result, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.predict(ctx, text)
	})
	if err != nil {
		return Result{}, fmt.Errorf("luis: %w", err)
	}
	return out.(Result), nil
}

func (c *LUIS) predict(ctx context.Context, text string) (Result, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("verbose", "true")
	u := fmt.Sprintf("%s/luis/v2.0/apps/%s?%s", c.endpoint, url.PathEscape(c.appID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var lr luisResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return Result{}, fmt.Errorf("decode: %w", err)
	}
	return lr.toResult(text), nil
}

func (lr luisResponse) toResult(text string) Result {
	r := Result{Text: text}
	for _, in := range lr.Intents {
		r.Intents = append(r.Intents, Intent{Name: in.Intent, Score: in.Score})
	}
	if len(r.Intents) == 0 && lr.TopScoringIntent != nil {
		r.Intents = append(r.Intents, Intent{Name: lr.TopScoringIntent.Intent, Score: lr.TopScoringIntent.Score})
	}
	sortIntents(r.Intents)

	for _, e := range lr.Entities {
		switch {
		case e.Type == EntityAmountPeople:
			r.addEntity(EntityAmountPeople, Entity{Text: e.Entity})
		case strings.HasPrefix(e.Type, "builtin.datetimeV2."):
			ent := Entity{Text: e.Entity}
			if e.Resolution != nil {
				for _, v := range e.Resolution.Values {
					if v.Timex != "" {
						ent.Timex = append(ent.Timex, v.Timex)
					}
				}
			}
			r.addEntity(EntityDatetime, ent)
		}
	}
	return r
}
