package models

const (
	ContextSeparator  = "\n...\n"
	ServerErrorFormat = "[SERVER ERROR: %s]"
	RoleSystem        = "system"
	RoleUser          = "user"
)

var (
	SystemMessage = "You are a helpful assistant. Use the provided context to answer the request."

	// UserPromptTemplate takes the document context as its only argument.
	UserPromptTemplate = `Context:
%s

You are a helpful QA test case generator.
Your job is to read the provided context (which may come from any PDF or text) and generate test cases for the Explore Phase 2 chatbot feature.

Input sources:
The context may be extracted from a PDF or provided as plain text.

If the context is long or includes noise, extract only the parts relevant to Explore Phase 2 features (e.g., intake selector, banners, handpicked services, most popular, categories, UL Infinity, talk to expert, partners, analytics, navigation).

Output format:
Always output a Markdown table only. No explanations, no headings, no code blocks.

Columns in this exact order:
Test Case ID | Category (UI, Functionality, Edge, Filter) | Description | Expected Result | Status

Rules:
- Status must always be “Not Executed”
- Max 50 rows, stop at 50
- Unique IDs TC_EXP_001 … TC_EXP_050
- Distribute across categories where possible
- Edge cases include invalid inputs, API failures, empty states, etc.
- Filter cases cover toggles, reset, persistence, etc.
- Do not fabricate features not in context.

Begin.`
)
