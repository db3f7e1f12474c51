package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// --- Statistics (/calculate_cmvn) ---
type CMVNReq struct {
	Split     string `json:"split_name"`
	ListDir   string `json:"list_dir"`
	DataDir   string `json:"data_dir"`
	ModelType string `json:"model_type"`
}
type CMVNResp struct {
	Status     string `json:"status"`
	Path       string `json:"path"`
	Utterances int    `json:"utterances"`
	Frames     int    `json:"frames"`
}

func (h *HTTP) CalculateCMVN(ctx context.Context, url string, in CMVNReq) (*CMVNResp, error) {
	b, _ := json.Marshal(in)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/calculate_cmvn", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cmvn %s: %s", resp.Status, string(body))
	}

	var out CMVNResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("cmvn decode: %w", err)
	}
	return &out, nil
}
