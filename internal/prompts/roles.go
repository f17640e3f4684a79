// Package prompts implements the Prompt Registry (C5): a role → template
// map with {var} substitution and project-local override loading.
package prompts

// AgentRole identifies which specialized prompt an agent executor needs.
type AgentRole string

const (
	RoleSpecGatherer   AgentRole = "spec_gatherer"
	RoleSpecWriter     AgentRole = "spec_writer"
	RoleSpecResearcher AgentRole = "spec_researcher"
	RoleSpecCritic     AgentRole = "spec_critic"
	RoleSpecValidator  AgentRole = "spec_validator"

	RolePlanner         AgentRole = "planner"
	RoleFollowupPlanner AgentRole = "followup_planner"

	RoleCoder         AgentRole = "coder"
	RoleCoderRecovery AgentRole = "coder_recovery"

	RoleQaReviewer      AgentRole = "qa_reviewer"
	RoleQaFixer         AgentRole = "qa_fixer"
	RoleValidationFixer AgentRole = "validation_fixer"

	RoleInsightExtractor   AgentRole = "insight_extractor"
	RoleComplexityAssessor AgentRole = "complexity_assessor"
	RoleCompetitorAnalysis AgentRole = "competitor_analysis"

	RoleIdeationCodeQuality      AgentRole = "ideation_code_quality"
	RoleIdeationPerformance      AgentRole = "ideation_performance"
	RoleIdeationSecurity         AgentRole = "ideation_security"
	RoleIdeationDocumentation    AgentRole = "ideation_documentation"
	RoleIdeationUIUX             AgentRole = "ideation_ui_ux"
	RoleIdeationCodeImprovements AgentRole = "ideation_code_improvements"

	RoleRoadmapDiscovery AgentRole = "roadmap_discovery"
	RoleRoadmapFeatures  AgentRole = "roadmap_features"

	RoleCommitMessage    AgentRole = "commit_message"
	RolePrTemplateFiller AgentRole = "pr_template_filler"
	RoleMergeResolver    AgentRole = "merge_resolver"
)

// roleFromPromptName maps a `.claude/prompts/<stem>.md` file stem to the
// role it overrides. Stems with no match are ignored by LoadFromProject.
func roleFromPromptName(name string) (AgentRole, bool) {
	switch name {
	case "coder":
		return RoleCoder, true
	case "coder_recovery":
		return RoleCoderRecovery, true
	case "planner":
		return RolePlanner, true
	case "followup_planner":
		return RoleFollowupPlanner, true
	case "qa_reviewer":
		return RoleQaReviewer, true
	case "qa_fixer":
		return RoleQaFixer, true
	case "spec_gatherer":
		return RoleSpecGatherer, true
	case "spec_writer":
		return RoleSpecWriter, true
	case "spec_researcher":
		return RoleSpecResearcher, true
	case "spec_critic":
		return RoleSpecCritic, true
	case "spec_validator", "validate_spec":
		return RoleSpecValidator, true
	case "validation_fixer":
		return RoleValidationFixer, true
	case "insight_extractor":
		return RoleInsightExtractor, true
	case "complexity_assessor":
		return RoleComplexityAssessor, true
	case "competitor_analysis":
		return RoleCompetitorAnalysis, true
	case "ideation_code_quality":
		return RoleIdeationCodeQuality, true
	case "ideation_performance":
		return RoleIdeationPerformance, true
	case "ideation_security":
		return RoleIdeationSecurity, true
	case "ideation_documentation":
		return RoleIdeationDocumentation, true
	case "ideation_ui_ux":
		return RoleIdeationUIUX, true
	case "ideation_code_improvements":
		return RoleIdeationCodeImprovements, true
	case "roadmap_discovery":
		return RoleRoadmapDiscovery, true
	case "roadmap_features":
		return RoleRoadmapFeatures, true
	case "commit_message":
		return RoleCommitMessage, true
	case "pr_template_filler", "pr_template":
		return RolePrTemplateFiller, true
	case "merge_resolver":
		return RoleMergeResolver, true
	default:
		return "", false
	}
}
