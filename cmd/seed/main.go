// Command seed populates a running bugboard instance with sample
// discoveries over HTTP. Useful for demos and manual testing.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	defaultCount   = 200
	defaultWorkers = 8
	defaultTimeout = 10 * time.Second
	runTimeout     = 5 * time.Minute
)

var sampleParticipants = []string{
	"Alice Chen", "Bob Martinez", "Carol Okafor", "Dave Lindqvist",
	"Erin Novak", "Farid Haddad", "Grace Kim", "Hugo Alves",
}

var sampleKinds = []struct {
	name   string
	points int64
}{
	{"sql-injection", 100},
	{"stored-xss", 80},
	{"reflected-xss", 60},
	{"csrf", 50},
	{"idor", 70},
	{"open-redirect", 30},
	{"info-disclosure", 40},
	{"race-condition", 90},
	{"ssrf", 110},
	{"path-traversal", 85},
}

type submission struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	EventKind     string `json:"event_kind"`
	Points        int64  `json:"points"`
	Description   string `json:"description,omitempty"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		count   = flag.Int("count", defaultCount, "Number of submissions to send")
		workers = flag.Int("workers", defaultWorkers, "Number of concurrent senders")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	rng := rand.New(rand.NewSource(*seed))

	// Stable participant ids for this run so repeated kinds exercise the
	// idempotent path.
	ids := make([]string, len(sampleParticipants))
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	subs := make([]submission, *count)
	for i := range subs {
		p := rng.Intn(len(sampleParticipants))
		k := sampleKinds[rng.Intn(len(sampleKinds))]
		subs[i] = submission{
			ParticipantID: ids[p],
			DisplayName:   sampleParticipants[p],
			EventKind:     fmt.Sprintf("%s-%03d", k.name, rng.Intn(*count)),
			Points:        k.points,
			Description:   fmt.Sprintf("sample %s finding", k.name),
		}
	}

	client := &http.Client{Timeout: *timeout}
	jobs := make(chan submission)
	var created, duplicate, failed atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				switch status := post(ctx, client, *baseURL, sub); status {
				case http.StatusCreated:
					created.Add(1)
				case http.StatusOK:
					duplicate.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

send:
	for _, sub := range subs {
		select {
		case jobs <- sub:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("seeded %d submissions: %d created, %d duplicate, %d failed\n",
		*count, created.Load(), duplicate.Load(), failed.Load())
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func post(ctx context.Context, client *http.Client, baseURL string, sub submission) int {
	body, err := json.Marshal(sub)
	if err != nil {
		return 0
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/discoveries", bytes.NewReader(body))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	return resp.StatusCode
}
