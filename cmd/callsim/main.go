// callsim simulates one inbound call against a running service: it starts a
// session through the telephony webhook API and plays back a scripted digit
// sequence, pausing between presses. Useful for exercising menus end to end
// without a PBX.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

func main() {
	serverAddr := flag.String("server", "http://localhost:8080", "Service base URL")
	apiKey := flag.String("api-key", "", "Webhook API key")
	menuID := flag.String("menu", "", "Entry menu id (service root menu when empty)")
	callID := flag.String("call", "sim-"+time.Now().Format("150405"), "Call ID")
	tenantID := flag.String("tenant", "tenant-demo", "Tenant ID")
	digits := flag.String("digits", "", "Digit script, e.g. '1' or '5,2'. 'T' injects a timeout, 'H' a hangup")
	intervalMs := flag.Int("interval", 500, "Milliseconds between events")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	session := post(client, *serverAddr+"/v1/calls/inbound", *apiKey, map[string]string{
		"callId":   *callID,
		"tenantId": *tenantID,
		"menuId":   *menuID,
	})
	sessionID, _ := session["id"].(string)
	if sessionID == "" {
		log.Fatalf("no session id in response: %v", session)
	}
	log.Printf("session %s started, state=%v menu=%v", sessionID, session["state"], session["activeMenuId"])

	for _, step := range strings.Split(*digits, ",") {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		time.Sleep(time.Duration(*intervalMs) * time.Millisecond)

		var resp map[string]any
		switch step {
		case "T":
			resp = post(client, fmt.Sprintf("%s/v1/calls/%s/timeout", *serverAddr, sessionID), *apiKey, nil)
		case "H":
			resp = post(client, fmt.Sprintf("%s/v1/calls/%s/hangup", *serverAddr, sessionID), *apiKey, nil)
		default:
			resp = post(client, fmt.Sprintf("%s/v1/calls/%s/digits", *serverAddr, sessionID), *apiKey,
				map[string]string{"digit": step})
		}
		log.Printf("after %q: state=%v", step, resp["state"])
		if resp["state"] == "TERMINATED" {
			return
		}
	}
}

func post(client *http.Client, url, apiKey string, body any) map[string]any {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		log.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		log.Fatalf("POST %s: %d %s", url, resp.StatusCode, data)
	}
	out := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			log.Fatalf("unmarshal response: %v (%s)", err, data)
		}
	}
	return out
}
