package generator

import (
	"sort"
	"strings"

	"assessment-service/internal/models"
)

const practiceAssessmentsBaseURL = "https://learn.microsoft.com/credentials/certifications"

// certificationExams maps exam codes to their official titles. Only codes in
// this catalog can be generated.
var certificationExams = map[string]string{
	// Azure AI
	"AI-102": "Designing and Implementing a Microsoft Azure AI Solution",
	"AI-900": "Microsoft Azure AI Fundamentals",

	// Azure Core
	"AZ-104": "Microsoft Azure Administrator",
	"AZ-140": "Configuring and Operating Microsoft Azure Virtual Desktop",
	"AZ-204": "Developing Solutions for Microsoft Azure",
	"AZ-305": "Designing Microsoft Azure Infrastructure Solutions",
	"AZ-400": "Designing and Implementing Microsoft DevOps Solutions",
	"AZ-500": "Microsoft Azure Security Technologies",
	"AZ-700": "Designing and Implementing Microsoft Azure Networking Solutions",
	"AZ-800": "Administering Windows Server Hybrid Core Infrastructure",
	"AZ-801": "Configuring Windows Server Hybrid Advanced Services",
	"AZ-900": "Microsoft Azure Fundamentals",

	// Data & Analytics
	"DP-100": "Designing and Implementing a Data Science Solution on Azure",
	"DP-300": "Administering Microsoft Azure SQL Solutions",
	"DP-420": "Azure Cosmos DB Developer Specialty",
	"DP-600": "Implementing Analytics Solutions Using Microsoft Fabric",
	"DP-700": "Microsoft Certified: Fabric Data Engineer Associate",
	"DP-900": "Microsoft Azure Data Fundamentals",

	// GitHub
	"GH-100": "GitHub Administration",
	"GH-200": "GitHub Actions",
	"GH-300": "GitHub Copilot",
	"GH-500": "GitHub Advanced Security",
	"GH-900": "GitHub Foundations",

	// Dynamics 365
	"MB-230": "Microsoft Dynamics 365 Customer Service Functional Consultant",
	"MB-240": "Microsoft Dynamics 365 Field Service Functional Consultant",
	"MB-280": "Dynamics 365 Customer Experience Analyst Associate",
	"MB-310": "Microsoft Dynamics 365 Finance Functional Consultant",
	"MB-330": "Microsoft Dynamics 365 Supply Chain Management Functional Consultant Associate",
	"MB-335": "Microsoft Dynamics 365 Supply Chain Management Functional Consultant Expert",
	"MB-500": "Dynamics 365: Finance and Operations Apps Developer Associate",
	"MB-800": "Microsoft Dynamics 365 Business Central Functional Consultant Associate",
	"MB-820": "Microsoft Dynamics 365 Business Central Developer Associate",
	"MB-910": "Microsoft Dynamics 365 Fundamentals (CRM)",
	"MB-920": "Microsoft Dynamics 365 Fundamentals (ERP)",

	// Microsoft 365
	"MD-102": "Endpoint Administrator",
	"MS-102": "Microsoft 365 Administrator",
	"MS-700": "Managing Microsoft Teams",
	"MS-721": "Collaboration Communications Systems Engineer",
	"MS-900": "Microsoft 365 Fundamentals",

	// Power Platform
	"PL-200": "Microsoft Power Platform Functional Consultant",
	"PL-300": "Microsoft Power BI Data Analyst",
	"PL-400": "Microsoft Power Platform Developer",
	"PL-500": "Microsoft Power Automate RPA Developer",
	"PL-600": "Microsoft Power Platform Solution Architect",
	"PL-900": "Microsoft Power Platform Fundamentals",

	// Security, Compliance & Identity
	"SC-100": "Microsoft Cybersecurity Architect",
	"SC-200": "Microsoft Security Operations Analyst",
	"SC-300": "Microsoft Identity and Access Administrator",
	"SC-401": "Microsoft Certified: Information Security Administrator Associate",
	"SC-900": "Microsoft Security, Compliance, and Identity Fundamentals",
}

var certificationCategories = map[string]string{
	"AI": "Azure AI",
	"AZ": "Azure",
	"DP": "Data & Analytics",
	"GH": "GitHub",
	"MB": "Dynamics 365",
	"MD": "Microsoft 365",
	"MS": "Microsoft 365",
	"PL": "Power Platform",
	"SC": "Security, Compliance & Identity",
}

// TitleFor returns the official title for an exam code.
func TitleFor(code string) (string, bool) {
	title, ok := certificationExams[strings.ToUpper(code)]
	return title, ok
}

// Catalog lists every supported certification sorted by code.
func Catalog() []models.CertificationInfo {
	infos := make([]models.CertificationInfo, 0, len(certificationExams))
	for code, title := range certificationExams {
		infos = append(infos, models.CertificationInfo{
			Code:     code,
			Title:    title,
			Category: categoryFor(code),
			Level:    levelFor(code),
			URL:      practiceAssessmentsBaseURL + "/" + strings.ToLower(code),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Code < infos[j].Code })
	return infos
}

func categoryFor(code string) string {
	prefix, _, ok := strings.Cut(code, "-")
	if !ok {
		return "Other"
	}
	if category, ok := certificationCategories[prefix]; ok {
		return category
	}
	return "Other"
}

// Microsoft numbering convention: the 900 series is fundamentals.
func levelFor(code string) string {
	if strings.HasSuffix(code, "-900") {
		return "Fundamentals"
	}
	return "Role-based"
}
