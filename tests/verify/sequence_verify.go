//go:build verify
// +build verify

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const baseURL = "http://127.0.0.1:8888"

// Manual end-to-end check against a running backend:
//
//	go run -tags verify tests/verify/sequence_verify.go ./clips transitions
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: sequence_verify <meta_dir> [render_mode]")
		os.Exit(2)
	}
	metaDir := os.Args[1]
	renderMode := ""
	if len(os.Args) > 2 {
		renderMode = os.Args[2]
	}

	fmt.Printf("Submitting sequence task for %s (render_mode=%q)...\n", metaDir, renderMode)
	body, _ := json.Marshal(map[string]any{
		"meta_dir":    metaDir,
		"render_mode": renderMode,
		"loop_trim":   true,
	})
	resp, err := http.Post(baseURL+"/api/sequence/task", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Submit failed: %v\n", err)
		os.Exit(1)
	}
	var submitRes struct {
		Error int    `json:"error"`
		Msg   string `json:"msg"`
		Data  struct {
			TaskId string `json:"task_id"`
		} `json:"data"`
	}
	err = json.NewDecoder(resp.Body).Decode(&submitRes)
	resp.Body.Close()
	if err != nil {
		fmt.Printf("Decode submit response failed: %v\n", err)
		os.Exit(1)
	}
	if submitRes.Error != 0 {
		fmt.Printf("Submit rejected: %s\n", submitRes.Msg)
		os.Exit(1)
	}
	taskId := submitRes.Data.TaskId
	fmt.Printf("Task accepted: %s\n", taskId)

	for {
		time.Sleep(1 * time.Second)

		statusResp, err := http.Get(baseURL + "/api/sequence/task?task_id=" + taskId)
		if err != nil {
			fmt.Printf("Status poll failed: %v\n", err)
			os.Exit(1)
		}
		var statusRes struct {
			Error int    `json:"error"`
			Msg   string `json:"msg"`
			Data  struct {
				Status         int     `json:"status"`
				Stage          string  `json:"stage"`
				ProcessPercent uint8   `json:"process_percent"`
				StatusMsg      string  `json:"status_msg"`
				ManifestPath   string  `json:"manifest_path"`
				OutputPath     string  `json:"output_path"`
				TotalDuration  float64 `json:"total_duration"`
				TimeSaved      float64 `json:"time_saved"`
				FailReason     string  `json:"fail_reason"`
			} `json:"data"`
		}
		err = json.NewDecoder(statusResp.Body).Decode(&statusRes)
		statusResp.Body.Close()
		if err != nil {
			fmt.Printf("Decode status failed: %v\n", err)
			os.Exit(1)
		}
		if statusRes.Error != 0 {
			fmt.Printf("Status query failed: %s\n", statusRes.Msg)
			os.Exit(1)
		}

		d := statusRes.Data
		fmt.Printf("[%3d%%] %-11s %s\n", d.ProcessPercent, d.Stage, d.StatusMsg)
		switch d.Status {
		case 2:
			fmt.Printf("Done. manifest=%s output=%s total=%.2fs saved=%.2fs\n",
				d.ManifestPath, d.OutputPath, d.TotalDuration, d.TimeSaved)
			os.Exit(0)
		case 3:
			fmt.Printf("Task failed: %s\n", d.FailReason)
			os.Exit(1)
		}
	}
}
