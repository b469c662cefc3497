package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"
)

const (
	workersPath = "/workers"

	WorkerIDField         = "ID"
	WorkerProfessionField = "Profession"
)

// Professions is the fixed list the backend offers on signup and in filters.
var Professions = []string{
	"Plumber", "Electrician", "Carpenter", "Mechanic", "Cleaner",
	"Painter", "AC Repair", "Appliance Repair", "Gardener",
}

type Workers struct {
	Items []Worker
}

// Worker is an immutable catalog snapshot.
type Worker struct {
	ID          string  `json:"_id,omitempty"`
	Name        string  `json:"name,omitempty"`
	Email       string  `json:"email,omitempty"`
	Profession  string  `json:"profession,omitempty"`
	Charges     float64 `json:"charges,omitempty"`
	Location    string  `json:"location,omitempty"`
	Contact     string  `json:"contact,omitempty"`
	Experience  string  `json:"experience,omitempty"`
	Photo       string  `json:"photo,omitempty"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// SearchParams are the optional server side filters of GET /workers.
type SearchParams struct {
	Profession string `query:"profession" mapstructure:"profession"`
	Location   string `query:"location" mapstructure:"location"`
	Search     string `query:"search" mapstructure:"search"`
}

type ExcludedWorkers struct {
	Items []*ExcludedWorker
}

type ExcludedWorker struct {
	ID         string
	Name       string
	Profession string
	ExcludedAt time.Time
}

// GetWorkers returns all active workers, optionally filtered by the backend.
func (c *Client) GetWorkers(ctx context.Context, params *SearchParams) (*Workers, error) {
	items, err := c.getItems(ctx, workersPath, buildParams(params))
	if err != nil {
		return nil, err
	}

	var workers []Worker
	if err := decode(items, &workers); err != nil {
		return nil, fmt.Errorf("decode workers: %w", err)
	}

	return &Workers{Items: workers}, nil
}

// GetWorker returns a single worker by id.
func (c *Client) GetWorker(ctx context.Context, id string) (*Worker, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("worker id is required")
	}

	var worker Worker
	if err := c.getObject(ctx, fmt.Sprintf("%s/%s", workersPath, url.PathEscape(id)), &worker); err != nil {
		return nil, err
	}

	return &worker, nil
}

func (w Worker) GetStringField(name string) string {
	switch name {
	case WorkerIDField:
		return w.ID
	case WorkerProfessionField:
		return w.Profession
	default:
		return ""
	}
}

func (w *Workers) Len() int {
	return len(w.Items)
}

func (w *Workers) FindByID(id string) *Worker {
	for i := range w.Items {
		if w.Items[i].ID == id {
			return &w.Items[i]
		}
	}
	return nil
}

// Locations returns the distinct worker locations in catalog order.
func (w *Workers) Locations() []string {
	locations := make([]string, 0)
	for _, worker := range w.Items {
		if worker.Location != "" && !slices.Contains(locations, worker.Location) {
			locations = append(locations, worker.Location)
		}
	}
	return locations
}

// Keep drops every worker for which keep returns false and returns the dropped ids.
// Catalog order is preserved.
func (w *Workers) Keep(keep func(Worker) bool) []string {
	var dropped []string
	kept := make([]Worker, 0, len(w.Items))
	for _, worker := range w.Items {
		if keep(worker) {
			kept = append(kept, worker)
			continue
		}
		dropped = append(dropped, worker.ID)
	}
	w.Items = kept
	return dropped
}

// Exclude removes workers whose field matches any of targets.
func (w *Workers) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	return w.Keep(func(worker Worker) bool {
		return !slices.Contains(targets, worker.GetStringField(name))
	})
}

// ReportByProfession groups workers by profession for a quick overview.
func (w *Workers) ReportByProfession() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, worker := range w.Items {
		report[worker.Profession] = append(report[worker.Profession], map[string]string{
			"id":       worker.ID,
			"name":     worker.Name,
			"location": worker.Location,
			"charges":  fmt.Sprintf("₹%.0f/day", worker.Charges),
		})
	}
	return report
}

func (w *Workers) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "workers_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (w *Workers) ToExcluded() *ExcludedWorkers {
	excluded := &ExcludedWorkers{}
	for _, worker := range w.Items {
		excluded.Items = append(excluded.Items, &ExcludedWorker{
			ID:         worker.ID,
			Name:       worker.Name,
			Profession: worker.Profession,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedWorkersFromFile reads a hidden workers file. A missing or empty file means nothing is hidden.
func GetExcludedWorkersFromFile(path string) (*ExcludedWorkers, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedWorkers{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedWorkers{}, nil
	}

	var excluded ExcludedWorkers
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedWorkers) Append(s *ExcludedWorkers) {
	for _, item := range s.Items {
		if !slices.Contains(e.WorkerIDs(), item.ID) {
			e.Items = append(e.Items, item)
		}
	}
}

func (e *ExcludedWorkers) WorkerIDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, worker := range e.Items {
		ids = append(ids, worker.ID)
	}
	return ids
}

func (e *ExcludedWorkers) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
