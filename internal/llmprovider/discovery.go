package llmprovider

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// ModelInfo is one entry of an OpenAI-compatible /v1/models listing.
type ModelInfo struct {
	Name string `json:"id"`
}

// Discovery polls a single OpenAI-compatible endpoint's /v1/models so an
// unset config.model can fall back to whatever the endpoint actually
// serves, rather than a hardcoded guess.
type Discovery struct {
	baseURL string

	mu          sync.RWMutex
	models      []ModelInfo
	lastUpdated time.Time
	online      bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewDiscovery(baseURL string) *Discovery {
	return &Discovery{baseURL: baseURL, stopCh: make(chan struct{})}
}

// Start begins a background refresh loop; call Stop to release it.
func (d *Discovery) Start() {
	d.wg.Add(1)
	go d.backgroundRefresh()
	log.Printf("[llmprovider:discovery] started for %s", d.baseURL)
}

func (d *Discovery) Stop() {
	close(d.stopCh)
	d.wg.Wait()
	log.Printf("[llmprovider:discovery] stopped for %s", d.baseURL)
}

func (d *Discovery) backgroundRefresh() {
	defer d.wg.Done()
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	d.Refresh()
	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.Refresh()
		}
	}
}

// Refresh fetches the current model list.
func (d *Discovery) Refresh() error {
	models, err := d.fetchModels()
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.online = false
		return fmt.Errorf("llmprovider discovery: %w", err)
	}
	d.models = models
	d.lastUpdated = time.Now()
	d.online = true
	log.Printf("[llmprovider:discovery] refreshed %s: %d models", d.baseURL, len(models))
	return nil
}

func (d *Discovery) fetchModels() ([]ModelInfo, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(d.baseURL + "/v1/models")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var result struct {
		Data []ModelInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode /v1/models: %w", err)
	}
	return result.Data, nil
}

// FirstModelName returns the first model the endpoint reports, refreshing
// first if the cache is empty or stale.
func (d *Discovery) FirstModelName() (string, error) {
	d.mu.RLock()
	stale := len(d.models) == 0 || time.Since(d.lastUpdated) > 5*time.Minute
	d.mu.RUnlock()

	if stale {
		if err := d.Refresh(); err != nil {
			return "", err
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.models) == 0 {
		return "", fmt.Errorf("no models found at %s", d.baseURL)
	}
	return d.models[0].Name, nil
}

func (d *Discovery) IsOnline() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.online
}
