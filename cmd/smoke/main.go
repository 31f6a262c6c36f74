package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type createResp struct {
	SessionID    string   `json:"session_id"`
	SessionToken string   `json:"session_token"`
	View         pageView `json:"view"`
}

type pageView struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Rows       []struct {
		RowIndex   int    `json:"row_index"`
		QuestionID string `json:"question_id"`
		LLM        string `json:"llm"`
		Score      int    `json:"score"`
	} `json:"rows"`
}

type eventResp struct {
	Notice *struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"notice"`
	View pageView `json:"view"`
}

type exportResp struct {
	ExportID   string `json:"export_id"`
	EntryCount int    `json:"entry_count"`
}

type exportOut struct {
	Status    string `json:"status"`
	ObjectRef string `json:"object_ref"`
	Error     string `json:"error"`
}

func main() {
	base := envOr("API_BASE_URL", "http://localhost:8000")
	token := envOr("API_TOKEN", "dev-secret-token")

	baseFlag := flag.String("base", base, "API base URL (e.g., http://localhost:8000)")
	tokenFlag := flag.String("token", token, "API token for admin endpoints")
	export := flag.Bool("export", false, "Also create a durable export and poll until it is uploaded")
	waitExport := flag.Duration("wait-export", 20*time.Second, "How long to poll for the export upload")
	flag.Parse()

	httpc := &http.Client{Timeout: 12 * time.Second}

	// 1) Create session
	var created createResp
	if err := postJSON(httpc, *baseFlag+"/sessions", *tokenFlag, nil, &created); err != nil {
		fatalf("create session: %v", err)
	}
	fmt.Printf("✅ Created session: id=%s pages=%d rows_on_first_page=%d\n", created.SessionID, created.View.TotalPages, len(created.View.Rows))
	if len(created.View.Rows) == 0 {
		fatalf("first page has no responses")
	}
	sess := fmt.Sprintf("%s/sessions/%s", *baseFlag, created.SessionID)

	// 2) Score every response on the first page
	for i, row := range created.View.Rows {
		score := i%5 + 1
		body := map[string]any{"row_index": row.RowIndex, "score": score}
		if err := postJSON(httpc, sess+"/scores", created.SessionToken, body, &eventResp{}); err != nil {
			fatalf("score row %d: %v", row.RowIndex, err)
		}
	}
	fmt.Printf("✅ Scored %d responses\n", len(created.View.Rows))

	// 3) Save page, then save again to exercise the update path
	for _, want := range []string{"Saved", "Updated"} {
		var saved eventResp
		if err := postJSON(httpc, sess+"/save", created.SessionToken, nil, &saved); err != nil {
			fatalf("save page: %v", err)
		}
		if saved.Notice == nil {
			fatalf("save page: no notice")
		}
		fmt.Printf("✅ %s (expected %q)\n", saved.Notice.Message, want)
	}

	// 4) Next page, save everything unsaved
	if created.View.TotalPages > 1 {
		var moved eventResp
		if err := postJSON(httpc, sess+"/page", created.SessionToken, map[string]any{"page": 1}, &moved); err != nil {
			fatalf("next page: %v", err)
		}
		fmt.Printf("✅ Moved to page %d with %d responses\n", moved.View.Page+1, len(moved.View.Rows))
	}
	var all eventResp
	if err := postJSON(httpc, sess+"/save-all", created.SessionToken, nil, &all); err != nil {
		fatalf("save all: %v", err)
	}
	fmt.Printf("✅ Save all: %s\n", all.Notice.Message)

	// 5) Download CSV
	csv, err := getRaw(httpc, sess+"/export.csv", created.SessionToken)
	if err != nil {
		fatalf("download: %v", err)
	}
	fmt.Printf("✅ Downloaded CSV:\n%s", csv)

	if !*export {
		fmt.Printf("🎉 Smoke run OK. SessionID=%s\n", created.SessionID)
		return
	}

	// 6) Durable export (optionally poll for upload)
	var exp exportResp
	if err := postJSON(httpc, sess+"/exports", created.SessionToken, nil, &exp); err != nil {
		fatalf("create export: %v", err)
	}
	fmt.Printf("✅ Enqueued export %s with %d entries\n", exp.ExportID, exp.EntryCount)

	deadline := time.Now().Add(*waitExport)
	for {
		var out exportOut
		if err := getJSON(httpc, fmt.Sprintf("%s/exports/%s", *baseFlag, exp.ExportID), *tokenFlag, &out); err != nil {
			fatalf("get export: %v", err)
		}
		if out.Status != "pending" {
			fmt.Printf("✅ Export %s: %s\n", out.Status, compactJSON(out))
			break
		}
		if time.Now().After(deadline) {
			fmt.Printf("ℹ️  Export still pending (is the worker running?)\n")
			break
		}
		time.Sleep(2 * time.Second)
	}

	fmt.Printf("🎉 Smoke run OK. SessionID=%s\n", created.SessionID)
}

// --- helpers ---

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func postJSON(c *http.Client, url, bearer string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, r)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("POST %s -> %d: %s", url, res.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func get(c *http.Client, url, bearer string) (*http.Response, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := c.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		res.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("GET %s -> %d: %s", url, res.StatusCode, string(b))
	}
	return res, cancel, nil
}

func getJSON(c *http.Client, url, bearer string, out any) error {
	res, cancel, err := get(c, url, bearer)
	if err != nil {
		return err
	}
	defer cancel()
	defer res.Body.Close()
	return json.NewDecoder(res.Body).Decode(out)
}

func getRaw(c *http.Client, url, bearer string) (string, error) {
	res, cancel, err := get(c, url, bearer)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	return string(b), err
}

func compactJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func fatalf(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}
