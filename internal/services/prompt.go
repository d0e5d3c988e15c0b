package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lojf/pairsurvey/internal/models"
)

// Top-level sections every report must carry.
const (
	SectionMultiPerspective = "multiPerspectiveAnalysis"
	SectionEvaluation       = "depthAndBreadthEvaluation"
	SectionGuidance         = "parentingGuidance"
	SectionVisualized       = "visualizedData"
	radarChartKey           = "radarChart"
)

const promptHeader = `# ROLE & MISSION
You are an expert child psychologist. Compare the survey answers given by a parent and by their child, find where they agree and where they diverge, infer the child's underlying psychological traits, and produce a structured report as JSON.

# INPUT DATA
`

const promptSchema = `
# ANALYSIS & OUTPUT REQUIREMENTS
Structure your entire response as one valid JSON object covering:

1. Multi-perspective analysis: compare the two answer sets, highlight key differences and similarities, and explain what they imply.
2. Depth & breadth evaluation: assess the child's state across traits such as anxiety, depression, social skills and self-esteem.
3. Parenting guidance: personalised, actionable advice that helps the parent understand and support the child.
4. Visualized data: numeric scores (0-10) for a radar chart of the key traits.

# FINAL JSON OUTPUT STRUCTURE (MANDATORY)
Output nothing except a JSON object with exactly this shape:

{
  "multiPerspectiveAnalysis": {
    "summary": "Short comparison of the parent's and the child's answers.",
    "keyDifferences": [
      {
        "topic": "Social Anxiety",
        "childsPerspective": "What the child reports.",
        "parentsPerspective": "What the parent reports.",
        "implication": "What the gap suggests."
      }
    ]
  },
  "depthAndBreadthEvaluation": {
    "summary": "Overall assessment of the child.",
    "traits": [
      { "trait": "Anxiety", "level": "High", "evidence": "Answers that support the rating." }
    ]
  },
  "parentingGuidance": [
    { "area": "Communication", "advice": "Concrete, constructive advice." }
  ],
  "visualizedData": {
    "radarChart": { "Anxiety": 8, "Depression": 5, "SocialSkills": 4, "SelfEsteem": 6, "Resilience": 7 }
  }
}
`

// BuildAnalysisPrompt renders the prompt for one parent/child pair.
func BuildAnalysisPrompt(parent, child *models.Participant) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	writeProfile(&b, "Child", "Child's Answers", child)
	b.WriteString("\n---\n\n")
	writeProfile(&b, "Parent", "Parent's Answers (about the child)", parent)
	b.WriteString(promptSchema)
	return b.String()
}

func writeProfile(b *strings.Builder, who, heading string, p *models.Participant) {
	fmt.Fprintf(b, "## %s's Profile\n- Age: %d\n- Gender: %s\n\n### %s\n", who, p.Age, p.Gender, heading)
	b.WriteString(FormatAnswers(p.Answers))
	b.WriteString("\n")
}

// FormatAnswers renders one "- questionId: value" line per answer, sorted
// so the prompt does not depend on row order.
func FormatAnswers(answers []models.Answer) string {
	sorted := make([]models.Answer, len(answers))
	copy(sorted, answers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].QuestionID != sorted[j].QuestionID {
			return sorted[i].QuestionID < sorted[j].QuestionID
		}
		return sorted[i].ID < sorted[j].ID
	})
	lines := make([]string, len(sorted))
	for i, a := range sorted {
		lines[i] = fmt.Sprintf("- %s: %s", a.QuestionID, a.Value)
	}
	return strings.Join(lines, "\n")
}

// CorrectivePrompt is appended after a failed attempt.
func CorrectivePrompt(err error) string {
	return fmt.Sprintf("\n\n---\n\nATTENTION: Your previous response failed with the error: %q. "+
		"You MUST reply with a single, valid, complete JSON object that follows the required schema exactly, "+
		"with the top-level keys %s, %s, %s and %s.%s holding numbers. Please try again.",
		err.Error(), SectionMultiPerspective, SectionEvaluation, SectionGuidance, SectionVisualized, radarChartKey)
}

// ValidateReport checks raw is a JSON object with the four mandatory sections.
func ValidateReport(raw json.RawMessage) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("report is not a JSON object: %w", err)
	}

	for _, key := range []string{SectionMultiPerspective, SectionEvaluation, SectionVisualized} {
		v, ok := doc[key]
		if !ok {
			return fmt.Errorf("report is missing %q", key)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err != nil || obj == nil {
			return fmt.Errorf("report field %q must be an object", key)
		}
	}
	v, ok := doc[SectionGuidance]
	if !ok {
		return fmt.Errorf("report is missing %q", SectionGuidance)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(v, &arr); err != nil || arr == nil {
		return fmt.Errorf("report field %q must be an array", SectionGuidance)
	}

	var vis struct {
		RadarChart map[string]float64 `json:"radarChart"`
	}
	if err := json.Unmarshal(doc[SectionVisualized], &vis); err != nil {
		return fmt.Errorf("%s.%s must map trait names to numbers", SectionVisualized, radarChartKey)
	}
	if len(vis.RadarChart) == 0 {
		return fmt.Errorf("%s.%s must not be empty", SectionVisualized, radarChartKey)
	}
	return nil
}
