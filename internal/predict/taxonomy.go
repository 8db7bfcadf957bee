package predict

// RiskFactor tags a condition that makes the predicted outcome less reliable
// or worse than it looks.
type RiskFactor string

const (
	RiskLowConsistency RiskFactor = "low_consistency"
	RiskSlowResponse   RiskFactor = "slow_response"
	RiskLowPerformance RiskFactor = "high_risk_low_performance"
	RiskDecliningTrend RiskFactor = "declining_trend"
)

// Suggestion tags an action the learner can take.
type Suggestion string

const (
	SuggestGatherMoreData   Suggestion = "gather_more_data"
	SuggestBuildRoutine     Suggestion = "build_routine"
	SuggestTimeManagement   Suggestion = "practice_time_management"
	SuggestReviewBasics     Suggestion = "review_fundamentals"
	SuggestEasierDifficulty Suggestion = "try_easier_difficulty"
	SuggestHarderDifficulty Suggestion = "consider_harder_difficulty"
)

// Tag is the display metadata for a risk factor or suggestion.
type Tag struct {
	ID          string
	Kind        string // "risk" or "suggestion"
	Label       string
	Description string
}

var seedTags = []Tag{
	{ID: string(RiskLowConsistency), Kind: "risk", Label: "Inconsistent results",
		Description: "Accuracy swings widely between sessions"},
	{ID: string(RiskSlowResponse), Kind: "risk", Label: "Slow responses",
		Description: "Average time per item is above two minutes"},
	{ID: string(RiskLowPerformance), Kind: "risk", Label: "Low predicted score",
		Description: "Expected accuracy is below 50%"},
	{ID: string(RiskDecliningTrend), Kind: "risk", Label: "Declining trend",
		Description: "Recent results are more than 20% below earlier ones"},

	{ID: string(SuggestGatherMoreData), Kind: "suggestion", Label: "Practice more",
		Description: "Complete a few more sessions so predictions can be personalised"},
	{ID: string(SuggestBuildRoutine), Kind: "suggestion", Label: "Build a routine",
		Description: "Study at a regular time to steady your results"},
	{ID: string(SuggestTimeManagement), Kind: "suggestion", Label: "Practice time management",
		Description: "Work on timed sets to bring response time down"},
	{ID: string(SuggestReviewBasics), Kind: "suggestion", Label: "Review fundamentals",
		Description: "Revisit the core concepts of this subject area"},
	{ID: string(SuggestEasierDifficulty), Kind: "suggestion", Label: "Try easier items",
		Description: "Step down a difficulty level to rebuild accuracy"},
	{ID: string(SuggestHarderDifficulty), Kind: "suggestion", Label: "Try harder items",
		Description: "You are improving quickly; step up the difficulty"},
}

var registry map[string]*Tag

func init() {
	registry = make(map[string]*Tag, len(seedTags))
	for i := range seedTags {
		registry[seedTags[i].ID] = &seedTags[i]
	}
}

// LookupTag returns the metadata for a tag ID, or nil if unknown.
func LookupTag(id string) *Tag {
	return registry[id]
}

// Label returns the display label, falling back to the raw tag.
func (r RiskFactor) Label() string { return labelFor(string(r)) }

// Label returns the display label, falling back to the raw tag.
func (s Suggestion) Label() string { return labelFor(string(s)) }

func labelFor(id string) string {
	if t := registry[id]; t != nil {
		return t.Label
	}
	return id
}
