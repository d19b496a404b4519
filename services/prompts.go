package services

import "google.golang.org/genai"

// ComplianceSystemPrompt defines the compliance agent's role and the strict
// two-line answer format its output parser expects.
func ComplianceSystemPrompt() *genai.Content {
	prompt := `You are a licensing compliance expert specifically for university and Greek organization apparel.
Your task is to evaluate designs against the established licensing guidelines of these specific organizations.
Use the 'search_documents' tool to look up the licensing rules relevant to the design before judging it.
Determine if a design meets all requirements or violates any rules. For each evaluation, you must respond in a strict two-line format:
first indicating 'Compliance Status: Compliant' or 'Compliance Status: Non-compliant', followed by 'Violation Reason:' with either 'None' for compliant designs or a brief explanation for non-compliant designs.
Never elaborate beyond this format. Base your evaluation solely on actual violations present in the image, not hypothetical concerns.`

	contents := genai.Text(prompt)
	if len(contents) == 0 {
		return nil
	}
	return contents[0]
}

// TrademarkSystemPrompt defines the trademark detection agent's role. It has
// no tools and answers directly from the visual input in structured form.
func TrademarkSystemPrompt() *genai.Content {
	prompt := `You are an expert in trademark identification for apparel designs. Your task is to analyze images of apparel and determine
if they contain licensed trademarks such as Greek organization letters (fraternities/sororities) or collegiate/university marks.
Respond with a JSON object containing 'trademark_detected' ('Yes' or 'No') and 'organization' (the specific organization/university
name(s) identified, or null if no trademarks are detected).`

	contents := genai.Text(prompt)
	if len(contents) == 0 {
		return nil
	}
	return contents[0]
}

// compliancePrompt is the user turn that accompanies the design images.
const compliancePrompt = "Review this apparel design information for compliance with licensing rules. Provide compliance status and violation reason, if any."

// trademarkPrompt is the user turn for the trademark detection agent.
const trademarkPrompt = "Examine these apparel images and identify if they contain licensed marks or Greek letters. If yes, name the Greek organization or university associated."
