package enrich

import "github.com/sells-group/prospector/internal/model"

// EventType names a progress stream event.
type EventType string

const (
	EventProgress    EventType = "progress"
	EventCompanyDone EventType = "company_done"
	EventComplete    EventType = "complete"
)

// Company-level statuses reported on the stream.
const (
	StreamEnriching = "enriching"
	StreamComplete  = "complete"
	StreamFailed    = "failed"
)

// Event is one entry in the ordered batch progress stream.
type Event interface {
	EventType() EventType
}

// Progress is emitted before a candidate starts processing.
type Progress struct {
	Type    EventType `json:"type"`
	Current int       `json:"current"`
	Index   int       `json:"index"`
	Total   int       `json:"total"`
	Company string    `json:"company"`
	Status  string    `json:"status"`
}

// EventType implements Event.
func (Progress) EventType() EventType { return EventProgress }

// CompanyDone is emitted once per candidate with its terminal record.
type CompanyDone struct {
	Type    EventType             `json:"type"`
	Current int                   `json:"current"`
	Index   int                   `json:"index"`
	Total   int                   `json:"total"`
	Company string                `json:"company"`
	Status  string                `json:"status"`
	Error   string                `json:"error,omitempty"`
	Data    model.EnrichedCompany `json:"data"`
}

// EventType implements Event.
func (CompanyDone) EventType() EventType { return EventCompanyDone }

// Complete is the final event of a batch.
type Complete struct {
	Type       EventType               `json:"type"`
	Total      int                     `json:"total"`
	Successful int                     `json:"successful"`
	Failed     int                     `json:"failed"`
	Error      string                  `json:"error,omitempty"`
	Results    []model.EnrichedCompany `json:"results"`
}

// EventType implements Event.
func (Complete) EventType() EventType { return EventComplete }

// Sink receives events in order. It is called from the orchestrating goroutine.
type Sink func(Event)

func newProgress(i, total int, company string) Progress {
	return Progress{
		Type:    EventProgress,
		Current: i + 1,
		Index:   i,
		Total:   total,
		Company: company,
		Status:  StreamEnriching,
	}
}

func newCompanyDone(i, total int, rec model.EnrichedCompany) CompanyDone {
	status := StreamFailed
	if rec.EnrichmentStatus == model.StatusSuccess {
		status = StreamComplete
	}
	return CompanyDone{
		Type:    EventCompanyDone,
		Current: i + 1,
		Index:   i,
		Total:   total,
		Company: rec.CompanyName,
		Status:  status,
		Error:   rec.Error,
		Data:    rec,
	}
}

func newComplete(results []model.EnrichedCompany, batchErr string) Complete {
	return Complete{
		Type:       EventComplete,
		Total:      len(results),
		Successful: model.CountStatus(results, model.StatusSuccess),
		Failed:     model.CountStatus(results, model.StatusFailed),
		Error:      batchErr,
		Results:    results,
	}
}
