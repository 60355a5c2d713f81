package intent

import (
	"regexp"
	"strings"
)

// Lexical signal detection shared by the rules and heuristic stages.

var (
	// First-person possessive or subject language: the caller is asking
	// about their own records.
	selfRefPattern = regexp.MustCompile(`(?i)\b(my|mine|i|i'm|i've|am i|do i|myself)\b`)

	// Language pointing at other people's records or whole populations.
	otherRefPattern = regexp.MustCompile(`(?i)\b(everyone|everybody|anyone else|other|others|their|theirs|them|his|her|hers|him|she|he|all employees|the team|team's|whole company|each employee|who has|who is|who's)\b`)

	// Possessive proper noun ("Sarah's"), excluding common contractions.
	possessivePattern = regexp.MustCompile(`\b([A-Za-z]+)'s\b`)

	contractionHeads = map[string]bool{
		"what": true, "who": true, "it": true, "that": true,
		"there": true, "here": true, "let": true, "one": true,
		"everyone": true, "everybody": true, "company": true,
	}

	privacyPattern = regexp.MustCompile(`(?i)\b(pto|time[- ]off|vacation|sick (day|leave)|leave balance|salary|salaries|compensation|pay(check| rate|roll)?|wage)\b`)

	teamScopePattern       = regexp.MustCompile(`(?i)\b(my team|our team|my reports|my direct reports|team's)\b`)
	departmentScopePattern = regexp.MustCompile(`(?i)\b(my department|our department|department's)\b`)
	companyScopePattern    = regexp.MustCompile(`(?i)\b(company|company[- ]wide|organization|org[- ]wide|everyone|all employees)\b`)
)

var sourceKeywords = map[string]*regexp.Regexp{
	SourcePTO:        regexp.MustCompile(`(?i)\b(pto|time[- ]off|vacation|sick (day|leave)|leave|holiday)\b`),
	SourceEmployees:  regexp.MustCompile(`(?i)\b(employee|employees|staff|headcount|team member|coworker|colleague)\b`),
	SourceCandidates: regexp.MustCompile(`(?i)\b(candidate|candidates|applicant|interview|hiring|recruit|pipeline stage)\b`),
	SourceSalary:     regexp.MustCompile(`(?i)\b(salary|salaries|compensation|wage|pay rate|payroll)\b`),
	SourcePolicies:   regexp.MustCompile(`(?i)\b(policy|policies|benefit|benefits|rule|guideline)\b`),
	SourceHandbook:   regexp.MustCompile(`(?i)\b(handbook|onboarding guide|code of conduct)\b`),
	SourceDocuments:  regexp.MustCompile(`(?i)\b(document|documents|form|paperwork)\b`),
	SourceTools:      regexp.MustCompile(`(?i)\b(tool|tools|laptop|equipment|device|monitor)\b`),
	SourceContracts:  regexp.MustCompile(`(?i)\b(contract|contracts|agreement|offer letter)\b`),
	SourceStats:      regexp.MustCompile(`(?i)\b(how many|count|total|average|stats|statistics|breakdown)\b`),
}

// Action verb → handler action type. Order matters: more specific phrases
// are matched first.
var actionPatterns = []struct {
	pattern *regexp.Regexp
	action  string
	sources []string
}{
	{regexp.MustCompile(`(?i)\b(schedule|book|set up) (an? )?(interview|call with)\b`), "schedule_interview", []string{SourceCandidates}},
	{regexp.MustCompile(`(?i)\b(move|advance|progress) .*(candidate|applicant|stage)\b`), "move_candidate_stage", []string{SourceCandidates}},
	{regexp.MustCompile(`(?i)\bapprove\b`), "approve_pto", []string{SourcePTO}},
	{regexp.MustCompile(`(?i)\b(deny|reject|decline)\b`), "deny_pto", []string{SourcePTO}},
	{regexp.MustCompile(`(?i)\b(create|add|onboard|hire) (an? )?(new )?(employee|team member)\b`), "create_employee", []string{SourceEmployees}},
	{regexp.MustCompile(`(?i)\b(assign|give|hand out|issue)\b.*\b(tool|laptop|equipment|device|monitor)\b`), "assign_tool", []string{SourceTools}},
	{regexp.MustCompile(`(?i)\b(return|take back|collect)\b.*\b(tool|laptop|equipment|device|monitor)\b`), "return_tool", []string{SourceTools}},
	{regexp.MustCompile(`(?i)\bmark\b.*\b(document|form)\b.*\b(viewed|read|seen)\b`), "mark_document_viewed", []string{SourceDocuments}},
}

var (
	lookupPattern = regexp.MustCompile(`(?i)\b(show|find|who|what|list|view|get|look up|check|display|tell me|how many|how much)\b`)
	reportPattern = regexp.MustCompile(`(?i)\b(report|summary|summarize|analytics|breakdown|overview)\b`)
)

// isSelfReferential reports first-person language about the caller's own
// records.
func isSelfReferential(msg string) bool {
	return selfRefPattern.MatchString(msg)
}

// isOtherReferential reports language about other people's records,
// including possessive proper nouns like "Sarah's".
func isOtherReferential(msg string) bool {
	if otherRefPattern.MatchString(msg) {
		return true
	}
	for _, m := range possessivePattern.FindAllStringSubmatch(msg, -1) {
		head := strings.ToLower(m[1])
		if !contractionHeads[head] {
			return true
		}
	}
	return false
}

// isPrivacySensitive reports PTO/salary style subject matter.
func isPrivacySensitive(msg string) bool {
	return privacyPattern.MatchString(msg)
}

// detectSources returns every data source category the message mentions.
func detectSources(msg string) []string {
	var sources []string
	for _, src := range []string{
		SourcePTO, SourceEmployees, SourceCandidates, SourceSalary,
		SourcePolicies, SourceHandbook, SourceDocuments, SourceTools,
		SourceContracts, SourceStats,
	} {
		if sourceKeywords[src].MatchString(msg) {
			sources = append(sources, src)
		}
	}
	return sources
}

// detectAction returns the action type and its implied sources if the
// message contains an action verb.
func detectAction(msg string) (string, []string, bool) {
	for _, ap := range actionPatterns {
		if ap.pattern.MatchString(msg) {
			return ap.action, ap.sources, true
		}
	}
	return "", nil, false
}

// detectScope derives scope from explicit scope language, falling back to
// self/other reference signals.
func detectScope(msg string) (Scope, bool) {
	switch {
	case teamScopePattern.MatchString(msg):
		return ScopeTeam, true
	case departmentScopePattern.MatchString(msg):
		return ScopeDepartment, true
	case companyScopePattern.MatchString(msg):
		return ScopeCompany, true
	case isOtherReferential(msg):
		return ScopeCompany, true
	case isSelfReferential(msg):
		return ScopeSelf, true
	}
	return "", false
}
