package models

// Failure reasons recorded on a RecordResult
const (
	ReasonValidation  = "validation"
	ReasonLookup      = "lookup"
	ReasonPersistence = "persistence"
)

// RecordResult is the outcome of importing one input record
type RecordResult struct {
	Index   int    `json:"index"`
	Key     string `json:"key,omitempty"`
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ImportReport aggregates the outcome of one import call.
// Results are in input order.
type ImportReport struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Results    []RecordResult `json:"results"`
}

// NewImportReport creates an empty report for a batch of total records
func NewImportReport(total int) *ImportReport {
	return &ImportReport{
		Total:   total,
		Results: make([]RecordResult, 0, total),
	}
}

// Succeed records a persisted record
func (r *ImportReport) Succeed(index int, key, id string) {
	r.Successful++
	r.Results = append(r.Results, RecordResult{
		Index:   index,
		Key:     key,
		Success: true,
		ID:      id,
	})
}

// Fail records a rejected record
func (r *ImportReport) Fail(index int, key, reason string, err error) {
	r.Failed++
	result := RecordResult{
		Index:  index,
		Key:    key,
		Reason: reason,
	}
	if err != nil {
		result.Error = err.Error()
	}
	r.Results = append(r.Results, result)
}

// Processed returns how many records have an outcome so far
func (r *ImportReport) Processed() int {
	return r.Successful + r.Failed
}
