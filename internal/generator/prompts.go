package generator

import "fmt"

const systemPrompt = "You are an expert Microsoft certification trainer who creates realistic practice exam questions."

// examContexts holds per-certification domain breakdowns injected into the
// generation prompt. Codes without an entry get a generic context.
var examContexts = map[string]string{
	"AZ-900": `
Official Microsoft Azure Fundamentals exam domains:
1. Describe cloud concepts (25-30%)
   - Benefits and considerations of cloud services
   - Differences between IaaS, PaaS, and SaaS
   - Differences between public, private, and hybrid cloud models
2. Describe Azure architecture and services (35-40%)
   - Core Azure architectural components, compute, networking, storage services
   - Azure identity, access, and security services
3. Describe Azure management and governance (30-35%)
   - Cost management, features and tools for governance and compliance
   - Features and tools for managing and deploying Azure resources
Generate questions covering real Azure scenarios, services, and implementation decisions.
`,
	"AZ-104": `
Official Microsoft Azure Administrator exam domains:
1. Manage Azure identities and governance (15-20%)
   - Azure Active Directory, users, groups, administrative units, RBAC
2. Implement and manage storage (15-20%)
   - Storage accounts, blob storage, Azure Files, backup and recovery
3. Deploy and manage Azure compute resources (20-25%)
   - Virtual machines, Azure App Service, containers, Azure Functions
4. Configure and manage virtual networking (20-25%)
   - Virtual networks, name resolution, security groups, load balancing
5. Monitor and maintain Azure resources (10-15%)
   - Azure Monitor, Log Analytics, alerts, backup and recovery
Generate hands-on administrative scenarios and troubleshooting questions.
`,
	"AZ-204": `
Official Azure Developer exam domains:
1. Develop Azure compute solutions (25-30%)
   - Azure Functions, App Service, container solutions
2. Develop for Azure storage (15-20%)
   - Cosmos DB, blob storage, relational databases
3. Implement Azure security (20-25%)
   - Authentication, authorization, Key Vault, Managed Identities
4. Monitor, troubleshoot, and optimize Azure solutions (15-20%)
   - Application Insights, caching, CDN optimization
5. Connect to and consume Azure services (15-20%)
   - API Management, event-based solutions, message-based solutions
Generate coding scenarios and implementation challenges.
`,
	"MS-900": `
Official Microsoft 365 Fundamentals exam domains:
1. Describe Microsoft 365 core services and concepts (30-35%)
   - Microsoft 365 productivity services, collaboration tools
2. Explain Microsoft 365 security, compliance, privacy, and trust (30-35%)
   - Security features, compliance solutions, privacy in Microsoft 365
3. Describe Microsoft 365 pricing, licensing, and support (20-25%)
   - Licensing options, pricing models, support offerings
4. Describe Microsoft 365 productivity solutions and capabilities (15-20%)
   - Productivity capabilities, Microsoft 365 Apps, SharePoint, Teams
Generate questions about Microsoft 365 administration and business scenarios.
`,
	"PL-900": `
Official Power Platform Fundamentals exam domains:
1. Describe the business value of the Microsoft Power Platform (15-20%)
2. Identify foundational components of Microsoft Power Platform (15-20%)
   - Connectors, AI Builder, Common Data Service
3. Demonstrate the business value of Power BI (15-20%)
   - Power BI components, dashboards, reports
4. Describe the business value of Power Apps (15-20%)
   - Canvas apps, model-driven apps, portals
5. Demonstrate the business value of Power Automate (15-20%)
   - Flow types, templates, connectors
6. Describe the business value of Power Virtual Agents (10-15%)
   - Chatbots, topics, entities
Generate citizen developer scenarios and business process automation questions.
`,
	"SC-900": `
Official Security, Compliance, and Identity Fundamentals exam domains:
1. Describe security and compliance concepts (10-15%)
   - Shared responsibility model, defense in depth, Zero Trust
2. Describe identity concepts (20-25%)
   - Authentication vs authorization, identity providers, directory services
3. Describe the function and identity types of Microsoft Azure Active Directory (25-30%)
4. Describe the authentication capabilities of Microsoft Azure AD (25-30%)
   - MFA, self-service password reset, password protection
5. Describe access management capabilities of Azure AD (15-20%)
   - Conditional access, Azure AD roles, access reviews
Generate identity and security scenarios with Zero Trust principles.
`,
	"DP-900": `
Official Azure Data Fundamentals exam domains:
1. Describe core data concepts (25-30%)
   - Data types, file formats, databases, analytics workloads
2. Identify considerations for relational data on Azure (20-25%)
   - Azure SQL Database, Azure Database services, SQL queries
3. Describe considerations for working with non-relational data on Azure (15-20%)
   - Azure Cosmos DB, Azure Storage, Azure Data Lake
4. Describe an analytics workload on Azure (30-35%)
   - Azure Synapse Analytics, Azure HDInsight, Power BI, real-time analytics
Generate data engineering and analytics scenarios.
`,
	"AI-900": `
Official Azure AI Fundamentals exam domains:
1. Describe Artificial Intelligence workloads and considerations (15-20%)
   - AI concepts, responsible AI principles
2. Describe fundamental principles of machine learning on Azure (20-25%)
   - Machine learning types, Azure Machine Learning service
3. Describe features of computer vision workloads on Azure (15-20%)
   - Computer Vision API, Custom Vision, Face API
4. Describe features of Natural Language Processing workloads on Azure (15-20%)
   - Text Analytics, Language Understanding, Speech services
5. Describe features of generative AI workloads on Azure (15-20%)
   - Azure OpenAI Service, responsible AI for generative AI
Generate AI implementation scenarios and use cases.
`,
}

func contextFor(code string) string {
	if context, ok := examContexts[code]; ok {
		return context
	}
	return fmt.Sprintf(`
Focus on the core concepts and technologies covered in the %s certification.
Generate questions that test practical knowledge and understanding of the subject matter.
`, code)
}

// buildPrompt assembles the user prompt for generating a full question set.
func buildPrompt(code, title string, questionCount int) string {
	return fmt.Sprintf(`
Generate %[3]d realistic practice exam questions for the Microsoft certification: %[2]s (%[1]s).

These questions should be based on the official Microsoft Learn practice assessments available at:
https://learn.microsoft.com/en-us/credentials/certifications/practice-assessments-for-microsoft-certifications

%[4]s

Requirements:
- Generate exactly %[3]d questions covering all exam domains
- Questions should match the style and difficulty of official Microsoft practice assessments
- Include a variety of difficulty levels: 30%% beginner, 50%% intermediate, 20%% advanced
- Cover all major domains and skills measured in the %[1]s exam
- Use realistic scenarios that professionals encounter
- Include technical details and specific Microsoft product knowledge

For each question, provide:
1. A clear, technical question text (similar to official Microsoft exams)
2. 4 multiple-choice answers (A, B, C, D)
3. Indicate which answer is correct
4. Brief technical explanation of the correct answer
5. Difficulty level (beginner, intermediate, advanced)
6. 2-3 relevant exam domains/skills

Format each question as:
QUESTION 1:
Text: [question text - make it detailed and scenario-based like Microsoft exams]
A) [answer option A]
B) [answer option B]
C) [answer option C]
D) [answer option D]
Correct: [A/B/C/D]
Explanation: [technical explanation with reasoning]
Difficulty: [beginner/intermediate/advanced]
Topics: [domain1, domain2, skill area]

Continue for all %[3]d questions. Ensure questions cover:
- All major exam domains proportionally
- Real-world scenarios
- Microsoft-specific terminology and concepts
- Current technology and best practices
- Hands-on implementation knowledge
`, code, title, questionCount, contextFor(code))
}
