package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(raw []byte) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func sendJSON(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func uploadDocument(token, title, content string) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, _ := w.CreateFormFile("file", "smoke.txt")
	fw.Write([]byte(content))
	w.WriteField("title", title)
	w.WriteField("proc_type", "text/plain")
	w.Close()

	req, err := http.NewRequest("POST", baseURL+"/document/v1", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	token := os.Getenv("SMOKE_TEST_TOKEN")
	if token == "" {
		color.Red("SMOKE_TEST_TOKEN is not set (any valid user JWT)")
		os.Exit(1)
	}

	color.Cyan("Starting Document Search API Smoke Test\n")

	color.Yellow("\n1. Upload a plain text document")
	resp, body, err := uploadDocument(token, "Smoke Test Doc",
		"Rivers carve valleys over thousands of years. Glaciers do the same work faster, grinding stone into gravel as they slide downhill.")
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	var uploadRes struct {
		Data struct {
			Id string `json:"id"`
		} `json:"data"`
	}
	json.Unmarshal(body, &uploadRes)
	docID := uploadRes.Data.Id

	color.Yellow("\n2. Poll ingestion progress until 100")
	for i := 0; i < 30; i++ {
		resp, body, err = sendJSON("GET", "/document/v1/"+docID+"/progress", token, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		var progressRes struct {
			Data struct {
				Progress int `json:"progress"`
			} `json:"data"`
		}
		json.Unmarshal(body, &progressRes)
		fmt.Printf("progress: %d\n", progressRes.Data.Progress)
		if progressRes.Data.Progress >= 100 {
			break
		}
		time.Sleep(time.Second)
	}

	color.Yellow("\n3. List documents")
	resp, body, err = sendJSON("GET", "/document/v1", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n4. Single-turn retrieval")
	retrievalReq := map[string]interface{}{
		"chat_id": "11111111-1111-1111-1111-111111111111",
		"messages": []map[string]interface{}{
			{"user": "How do glaciers shape valleys?"},
		},
	}
	resp, body, err = sendJSON("POST", "/retrieval/v1", token, retrievalReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Cyan("\nSmoke test finished")
}
