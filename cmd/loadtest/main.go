package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type authResponse struct {
	Token string `json:"access_token"`
	ID    string `json:"id"`
}

type stats struct {
	sent     atomic.Int64
	received atomic.Int64
	failed   atomic.Int64
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base URL")
	pairs := flag.Int("pairs", 50, "number of user pairs, each pair chats both ways")
	msgs := flag.Int("msgs", 20, "messages per user")
	flag.Parse()

	wsURL, err := url.Parse(*baseURL)
	if err != nil {
		log.Fatal("bad base URL", "err", err)
	}
	wsURL.Scheme = map[string]string{"https": "wss"}[wsURL.Scheme]
	if wsURL.Scheme == "" {
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/ws"

	log.Info("starting load test", "users", *pairs*2, "msgs", *msgs)
	run := uuid.NewString()[:8]
	var st stats
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < *pairs; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(*baseURL, wsURL.String(), run, pairID, *msgs, &st)
		}(i)
	}
	wg.Wait()

	log.Info("load test complete",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"sent", st.sent.Load(),
		"received", st.received.Load(),
		"failed", st.failed.Load())
}

func runPair(baseURL, wsURL, run string, pairID, msgs int, st *stats) {
	a, err := authenticate(baseURL, fmt.Sprintf("lt-%s-%d-a@example.com", run, pairID))
	if err != nil {
		log.Error("auth failed", "pair", pairID, "err", err)
		st.failed.Add(1)
		return
	}
	b, err := authenticate(baseURL, fmt.Sprintf("lt-%s-%d-b@example.com", run, pairID))
	if err != nil {
		log.Error("auth failed", "pair", pairID, "err", err)
		st.failed.Add(1)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go chat(&wg, wsURL, a, b.ID, msgs, st)
	go chat(&wg, wsURL, b, a.ID, msgs, st)
	wg.Wait()
}

// authenticate registers (a taken email is fine) and logs in.
func authenticate(baseURL, email string) (*authResponse, error) {
	pass := "password123"
	resp, err := postJSON(baseURL+"/register", map[string]string{"name": email, "email": email, "password": pass})
	if err == nil {
		resp.Body.Close()
	}

	resp, err = postJSON(baseURL+"/login", map[string]string{"email": email, "password": pass})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login %s: %s", email, resp.Status)
	}

	var data authResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func chat(wg *sync.WaitGroup, wsURL string, me *authResponse, peerID string, msgs int, st *stats) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+url.QueryEscape(me.Token), nil)
	if err != nil {
		log.Error("ws connect failed", "user", me.ID, "err", err)
		st.failed.Add(1)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			st.received.Add(1)
		}
	}()

	for i := 0; i < msgs; i++ {
		frame := map[string]any{
			"type":        "send",
			"recipientId": peerID,
			"content":     fmt.Sprintf("load test msg %d from %s", i, me.ID),
		}
		if err := conn.WriteJSON(frame); err != nil {
			log.Error("send failed", "user", me.ID, "err", err)
			st.failed.Add(1)
			break
		}
		st.sent.Add(1)
		time.Sleep(10 * time.Millisecond)
	}

	// Give in-flight deliveries a moment before hanging up.
	time.Sleep(time.Second)
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return http.Post(endpoint, "application/json", bytes.NewReader(body))
}
