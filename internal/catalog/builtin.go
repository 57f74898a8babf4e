package catalog

import (
	"github.com/interviewace/simulation-engine/internal/models"
)

// builtinTemplates are the scenarios the engine ships with. A YAML
// scenarios directory may add to or override these at startup.
func builtinTemplates() []*models.ScenarioTemplate {
	return []*models.ScenarioTemplate{
		{
			RoleType:  "cloud-architect",
			RoleName:  "Senior Cloud Solutions Architect",
			Title:     "Fintech Infrastructure Scaling",
			Objective: "Design scalable cloud infrastructure for a fintech platform handling 50,000+ daily transactions",
			Competencies: []string{
				"Infrastructure Design",
				"Cost Optimization",
				"Security Implementation",
				"Scalability Planning",
			},
			Budget: 15000,
			Time:   480,
			Events: models.EventLibrary{
				Stakeholder: []string{
					"CEO demands cost reduction",
					"Regulatory authority requires compliance review",
				},
				Technical: []string{
					"Data center power outage",
					"Traffic spike causes load increase",
				},
			},
			Rubric: map[string]string{
				"Infrastructure Design": "Evaluates architectural decisions under regional infrastructure constraints",
				"Cost Optimization":     "Assesses budget management against the scenario budget",
			},
		},
		{
			RoleType:  "devops-engineer",
			RoleName:  "DevOps Engineer",
			Title:     "Zero-Downtime Delivery Pipeline",
			Objective: "Replace a manual deployment process with a CI/CD pipeline supporting zero-downtime releases",
			Competencies: []string{
				"Pipeline Automation",
				"Release Engineering",
				"Observability",
				"Incident Response",
			},
			Budget: 12000,
			Time:   360,
			Events: models.EventLibrary{
				Stakeholder: []string{
					"Product team pushes for a release freeze exception",
					"CTO questions pipeline cost",
				},
				Technical: []string{
					"Flaky integration tests block the pipeline",
					"Production rollback required mid-deploy",
				},
			},
		},
		{
			RoleType:  "cybersecurity-analyst",
			RoleName:  "Cybersecurity Analyst",
			Title:     "Active Breach Response",
			Objective: "Contain a suspected data breach and restore service within regulatory reporting deadlines",
			Competencies: []string{
				"Threat Detection",
				"Incident Containment",
				"Forensic Analysis",
				"Regulatory Compliance",
			},
			Budget: 8000,
			Time:   240,
			Events: models.EventLibrary{
				Stakeholder: []string{
					"Executive demands immediate public statement",
					"Regulator requests preliminary findings",
				},
				Technical: []string{
					"Lateral movement detected on a second subnet",
					"Backup integrity check fails",
				},
			},
		},
		{
			RoleType:  "ux-designer",
			RoleName:  "UX Designer",
			Title:     "Inclusive Mobile Banking",
			Objective: "Design an inclusive mobile banking experience spanning feature phones and offline use",
			Competencies: []string{
				"User Research",
				"Accessibility",
				"Interaction Design",
				"Usability Testing",
			},
			Budget: 10000,
			Time:   600,
			Events: models.EventLibrary{
				Stakeholder: []string{
					"Marketing requests a redesign of the onboarding flow",
					"Field research budget gets cut",
				},
				Technical: []string{
					"Prototype fails on low-end devices",
					"Usability session reveals a critical navigation flaw",
				},
			},
		},
	}
}
