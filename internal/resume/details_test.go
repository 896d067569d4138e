package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetails(t *testing.T) {
	raw := "```json\n" + `{
  "Name": "Jane Roe",
  "Email": "jane@example.com",
  "Phone": 9876543210,
  "Summary": "Backend engineer",
  "Projects": [
    {"Name": "Scorer", "Tech Stack": ["Go", "SQLite"], "Description": "ATS scoring"},
    {"name": "Site", "tech_stack": "Next.js", "description": "Portfolio"}
  ],
  "Education": [{"Degree": "B.Tech", "Institution": "Pune University"}],
  "Strengths": "Ownership",
  "Skills": {"Languages": ["Go", "Python"], "Tools": ["Docker"]},
  "Suggested Job Titles": ["Golang Developer", "Backend Engineer"]
}` + "\n```"

	details, err := ParseDetails(raw)
	require.NoError(t, err)

	assert.Equal(t, "Jane Roe", details.Name)
	assert.Equal(t, "jane@example.com", details.Email)
	assert.Equal(t, "9876543210", details.Phone)
	assert.Equal(t, "Backend engineer", details.Summary)
	require.Len(t, details.Projects, 2)
	assert.Equal(t, Project{Name: "Scorer", TechStack: []string{"Go", "SQLite"}, Description: "ATS scoring"}, details.Projects[0])
	assert.Equal(t, []string{"Next.js"}, details.Projects[1].TechStack)
	assert.Equal(t, []string{"Degree: B.Tech; Institution: Pune University"}, details.Education)
	assert.Equal(t, []string{"Ownership"}, details.Strengths)
	assert.Equal(t, []string{"Go", "Python", "Docker"}, details.Skills)
	assert.Equal(t, []string{"Golang Developer", "Backend Engineer"}, details.SuggestedJobTitles)
}

func TestParseDetailsJobTitleKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "title case with spaces", raw: `{"Suggested Job Titles": ["Go Developer"]}`},
		{name: "snake case", raw: `{"suggested_job_titles": ["Go Developer"]}`},
		{name: "upper snake case", raw: `{"Suggested_Job_Titles": ["Go Developer"]}`},
		{name: "short key", raw: `{"job_titles": ["Go Developer"]}`},
		{name: "short title case", raw: `{"Job Titles": "Go Developer"}`},
		{name: "surrounding text", raw: "Here you go:\n{\"job_titles\": [\"Go Developer\"]}\nThanks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			details, err := ParseDetails(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, []string{"Go Developer"}, details.JobTitles())
		})
	}
}

func TestParseDetailsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "only fences", raw: "```json\n```"},
		{name: "no object", raw: "I cannot help with that"},
		{name: "broken json", raw: `{"name": "Jane",}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDetails(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	payload, err := ExtractJSONObject("```json\n{\"a\": {\"b\": 1}}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 1}}`, payload)

	_, err = ExtractJSONObject("} backwards {")
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestJobTitles(t *testing.T) {
	details := &Details{SuggestedJobTitles: []string{" Go Developer ", "", "go developer", "SRE"}}

	assert.Equal(t, []string{"Go Developer", "SRE"}, details.JobTitles())

	var empty *Details
	assert.Nil(t, empty.JobTitles())
}
