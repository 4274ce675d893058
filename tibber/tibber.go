// Package tibber reads spot prices from the Tibber GraphQL API. Prices are
// those of the home's own price area.
package tibber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultURL = "https://api.tibber.com/v1-beta/gql"

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse[T any] struct {
	Data struct {
		Viewer struct {
			Home T `json:"home"`
		} `json:"viewer"`
	} `json:"data"`
	Errors []struct {
		Message string   `json:"message"`
		Path    []string `json:"path"`
	} `json:"errors,omitempty"`
}

type Tibber struct {
	apiToken string
	homeId   string
	url      string
	client   *http.Client
}

func New(apiToken string, homeId string) *Tibber {
	return &Tibber{
		apiToken: apiToken,
		homeId:   homeId,
		url:      DefaultURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// WithURL points the client at another endpoint.
func (t *Tibber) WithURL(url string) *Tibber {
	t.url = url
	return t
}

func (t *Tibber) String() string {
	return "tibber"
}

func doQuery[T any](ctx context.Context, t *Tibber, innerQuery string) (*queryResponse[T], error) {
	query := fmt.Sprintf(`query {
		viewer {
			home(id:"%s") {
				%s
			}
		}
	}`, t.homeId, innerQuery)

	reqBody, err := json.Marshal(queryRequest{Query: query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.apiToken))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got status %s", res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	resBody := new(queryResponse[T])
	if err = json.Unmarshal(body, resBody); err != nil {
		return nil, err
	}

	if resBody.Errors != nil {
		messages := make([]string, len(resBody.Errors))
		for i, err := range resBody.Errors {
			messages[i] = err.Message
		}
		return nil, fmt.Errorf("graphql error: %s", strings.Join(messages, "; "))
	}

	return resBody, nil
}
