package scoringapi

// Endpoint paths relative to the service base URL.
const (
	pathMatchSkills   = "/match-skills"
	pathSemanticScore = "/api/semantic-score"
	pathTFIDFScore    = "/api/tfidf-score"
	statusSuccess     = "success"
)

type matchSkillsRequest struct {
	ResumeSkills []string `json:"resume_skills"`
	JDSkills     []string `json:"jd_skills"`
}

type matchSkillsResponse struct {
	Status      string       `json:"status"`
	MatchResult *matchResult `json:"match_result"`
}

type matchResult struct {
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	MatchPercentage float64  `json:"match_percentage"`
	SemanticScore   *float64 `json:"semantic_score"`
	TFIDFScore      *float64 `json:"tfidf_score"`
	HybridScore     float64  `json:"hybrid_score"`
}

type granularRequest struct {
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
}

type semanticResponse struct {
	SemanticScore *float64 `json:"semantic_score"`
}

type tfidfResponse struct {
	TFIDFScore *float64 `json:"tfidf_score"`
}
