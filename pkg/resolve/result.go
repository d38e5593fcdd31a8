package resolve

// ProvenanceRecord is the audit trail for one attempt within a resolution.
// Every consulted stage leaves at least one record, including failed or
// rejected attempts.
type ProvenanceRecord struct {
	Stage    string  `json:"stage"`
	SourceId string  `json:"source_id,omitempty"`
	Score    float64 `json:"score"`
	Accepted bool    `json:"accepted"`
	Error    string  `json:"error,omitempty"`
}

// Recommendation is a related fixed question surfaced when no stage could
// answer, so the caller can offer alternatives instead of a bare apology.
type Recommendation struct {
	QuestionId string  `json:"question_id"`
	Question   string  `json:"question"`
	Score      float64 `json:"score"`
}

// Resolution is the terminal outcome of a pipeline run. Stage names the
// stage that produced the answer, or StageNone when the pipeline was
// exhausted and fell back.
type Resolution struct {
	Query              string             `json:"query"`
	Stage              string             `json:"stage"`
	Answer             string             `json:"answer"`
	Confidence         float64            `json:"confidence"`
	RequiresDisclaimer bool               `json:"requires_disclaimer"`
	Provenance         []ProvenanceRecord `json:"provenance"`
	Recommendations    []Recommendation   `json:"recommendations,omitempty"`
}
